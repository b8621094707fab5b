package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/itemsync/internal/config"
	"github.com/iudanet/itemsync/internal/server"
	"github.com/iudanet/itemsync/internal/server/jwt"
	"github.com/iudanet/itemsync/internal/validation"
	"github.com/iudanet/itemsync/pkg/api"
)

// NewRootCommand создает корневую команду сервера
func NewRootCommand(version string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "itemsyncd",
		Short:         "Reference item sync server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	cmd.AddCommand(
		newServeCommand(load, version),
		newTokenCommand(load),
	)
	return cmd
}

type loader func() (*config.Config, error)

func newServeCommand(load loader, version string) *cobra.Command {
	var listen, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			if dbPath != "" {
				cfg.Server.DBPath = dbPath
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			logger := cfg.Log.NewLogger(os.Stderr)
			srv, err := server.New(cmd.Context(), cfg.Server, logger, version)
			if err != nil {
				return err
			}
			defer func() {
				if err := srv.Close(); err != nil {
					logger.Error("Failed to close server", "error", err)
				}
			}()

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to SQLite database (overrides config)")
	return cmd
}

// newTokenCommand выпускает токен для локальной разработки и тестов
func newTokenCommand(load loader) *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user (development only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			if err := validation.ValidateOwner(user); err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if ttl <= 0 {
				ttl = cfg.Server.TokenTTL
			}

			token, expiresIn, err := jwt.NewIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL).IssueWithTTL(user, ttl)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.TokenResponse{AccessToken: token, ExpiresIn: expiresIn})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "token subject (collection owner)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default server.token_ttl)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
