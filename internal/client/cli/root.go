package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/itemsync/internal/client/data"
)

// RootOptions глобальные флаги
type RootOptions struct {
	ConfigPath string
	DBPath     string
	ServerURL  string
	Verbose    bool
}

// Session окружение одной команды
type Session struct {
	Cli *Cli
	// Run запускает движок синхронизации и блокируется до отмены ctx
	Run       func(ctx context.Context) error
	Close     func() error
	ServerURL string
	// Token из окружения, используется login без --token
	Token string
}

// Opener открывает хранилище и собирает клиента по глобальным флагам
type Opener func(ctx context.Context, opts *RootOptions) (*Session, error)

// NewRootCommand создает корневую команду клиента
func NewRootCommand(open Opener, version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "itemsync",
		Short:         "Offline-first item sync client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to local database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", "", "server URL (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	withSession := func(fn func(cmd *cobra.Command, args []string, s *Session) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return fn(cmd, args, s)
		}
	}

	cmd.AddCommand(
		newRunCommand(withSession),
		newAddCommand(withSession),
		newEditCommand(withSession),
		newDeleteCommand(withSession),
		newListCommand(withSession),
		newGetCommand(withSession),
		newStatusCommand(withSession),
		newLoginCommand(withSession),
		newLogoutCommand(withSession),
	)
	return cmd
}

type sessionFunc func(fn func(cmd *cobra.Command, args []string, s *Session) error) func(*cobra.Command, []string) error

func newRunCommand(with sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync engine and print events until interrupted",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, s *Session) error {
			return s.Run(cmd.Context())
		}),
	}
}

func newAddCommand(with sessionFunc) *cobra.Command {
	var content string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create an item locally",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, s *Session) error {
			return s.Cli.RunAdd(cmd.Context(), args[0], content)
		}),
	}
	cmd.Flags().StringVar(&content, "content", "", "item content")
	return cmd
}

func newEditCommand(with sessionFunc) *cobra.Command {
	var title, content string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change title and/or content of an item",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, s *Session) error {
			var patch data.Patch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			return s.Cli.RunEdit(cmd.Context(), args[0], patch)
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	return cmd
}

func newDeleteCommand(with sessionFunc) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, s *Session) error {
			return s.Cli.RunDelete(cmd.Context(), args[0], yes)
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newListCommand(with sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List items (* marks unsynced)",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, s *Session) error {
			return s.Cli.RunList(cmd.Context())
		}),
	}
}

func newGetCommand(with sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, s *Session) error {
			return s.Cli.RunGet(cmd.Context(), args[0])
		}),
	}
}

func newStatusCommand(with sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication and pending sync status",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, s *Session) error {
			return s.Cli.RunStatus(cmd.Context())
		}),
	}
}

func newLoginCommand(with sessionFunc) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Long: `Store an access token for the sync server.

Token priority (highest to lowest):
  1. --token flag
  2. ITEMSYNC_TOKEN environment variable
  3. Interactive prompt`,
		Args: cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, s *Session) error {
			if token == "" {
				token = s.Token
			}
			if s.ServerURL == "" {
				return fmt.Errorf("server url is not configured")
			}
			return s.Cli.RunLogin(cmd.Context(), token, s.ServerURL)
		}),
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (not recommended, use env var)")
	return cmd
}

func newLogoutCommand(with sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, s *Session) error {
			return s.Cli.RunLogout(cmd.Context())
		}),
	}
}
