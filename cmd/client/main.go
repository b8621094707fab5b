package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/itemsync/internal/client/api"
	"github.com/iudanet/itemsync/internal/client/auth"
	"github.com/iudanet/itemsync/internal/client/cli"
	"github.com/iudanet/itemsync/internal/client/connection"
	"github.com/iudanet/itemsync/internal/client/connectivity"
	"github.com/iudanet/itemsync/internal/client/iocli"
	"github.com/iudanet/itemsync/internal/client/storage/boltdb"
	"github.com/iudanet/itemsync/internal/client/sync"
	"github.com/iudanet/itemsync/internal/config"
	"github.com/iudanet/itemsync/internal/metrics"
	"github.com/iudanet/itemsync/internal/protocol"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(open, Version)
	root.SetVersionTemplate(fmt.Sprintf("itemsync client\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n", Version, BuildDate, GitCommit))

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// open собирает клиента: bbolt хранилище, REST клиент, websocket соединение,
// проверку сети и оркестратор синхронизации
func open(ctx context.Context, opts *cli.RootOptions) (*cli.Session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.DBPath != "" {
		cfg.Client.DBPath = opts.DBPath
	}
	if opts.ServerURL != "" {
		cfg.Client.ServerURL = opts.ServerURL
		cfg.Client.WSURL = ""
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Log.NewLogger(os.Stderr)

	store, err := boltdb.New(ctx, cfg.Client.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	peerID, err := sync.EnsurePeerID(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	wsURL, err := cfg.WebSocketURL()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	authService := auth.NewService(store, logger)
	apiClient := api.NewClient(cfg.Client.ServerURL, authService, logger)

	dialer := &connection.WebSocketDialer{
		URL:              wsURL,
		Peer:             peerID,
		HandshakeTimeout: cfg.Connection.HandshakeTimeout,
		WriteTimeout:     cfg.Connection.WriteTimeout,
	}
	conn := connection.NewManager(dialer, protocol.NewCodec(), connection.Config{
		Heartbeat:   cfg.Connection.Heartbeat,
		BaseDelay:   cfg.Connection.BaseDelay,
		MaxDelay:    cfg.Connection.MaxDelay,
		Factor:      cfg.Connection.Factor,
		MaxAttempts: cfg.Connection.MaxAttempts,
	}, logger.With("component", "connection"), m)

	probe := connectivity.NewProbe(apiClient, cfg.Sync.ProbeInterval, logger.With("component", "connectivity"))

	orch := sync.Assemble(store, apiClient, conn, probe, authService, peerID, sync.Config{
		Staleness:        cfg.Sync.Staleness,
		PageSize:         cfg.Sync.PageSize,
		DrainMaxAttempts: cfg.Sync.DrainMaxAttempts,
	}, logger, m)

	c := cli.New(iocli.NewStdio(), orch, authService, store)

	run := func(ctx context.Context) error {
		c.Watch(orch)
		logger.Info("Starting sync engine", "peer_id", peerID, "server", cfg.Client.ServerURL)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return probe.Run(gctx)
		})
		if cfg.Metrics.Listen != "" {
			g.Go(func() error {
				return serveMetrics(gctx, cfg.Metrics.Listen, reg, logger)
			})
		}

		if err := orch.Start(gctx); err != nil {
			return fmt.Errorf("failed to start sync: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			orch.Stop()
			return conn.Close()
		})

		return g.Wait()
	}

	return &cli.Session{
		Cli:       c,
		Run:       run,
		Close:     store.Close,
		ServerURL: cfg.Client.ServerURL,
		Token:     cfg.Client.Token,
	}, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
