package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/itemsync/internal/config"
	"github.com/iudanet/itemsync/internal/metrics"
	"github.com/iudanet/itemsync/internal/protocol"
	"github.com/iudanet/itemsync/internal/server/handlers"
	"github.com/iudanet/itemsync/internal/server/hub"
	"github.com/iudanet/itemsync/internal/server/jwt"
	"github.com/iudanet/itemsync/internal/server/middleware"
	"github.com/iudanet/itemsync/internal/server/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Server эталонный сервер: REST API элементов, websocket хаб и метрики
type Server struct {
	cfg      config.ServerConfig
	logger   *slog.Logger
	store    *sqlite.Storage
	hub      *hub.Hub
	limiter  *middleware.RateLimiter
	handler  http.Handler
	registry *prometheus.Registry
}

// New открывает хранилище и собирает маршруты
func New(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger, version string) (*Server, error) {
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	issuer := jwt.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	h := hub.New(issuer, protocol.NewCodec(), hub.Config{PresenceTimeout: cfg.PresenceTimeout}, logger.With("component", "hub"), m)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		hub:      h,
		registry: reg,
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute, logger)
	}

	s.handler = s.routes(issuer, m, version)
	return s, nil
}

func (s *Server) routes(issuer *jwt.Issuer, m *metrics.Metrics, version string) http.Handler {
	items := handlers.NewItemsHandler(s.logger, s.store, s.hub)
	health := handlers.NewHealthHandler(s.logger, s.store, version)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logging(s.logger, m, "/api/v1/health", "/metrics"))
	if s.limiter != nil {
		r.Use(middleware.RateLimit(s.limiter, s.logger))
	}

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.Health)
		// Токен websocket проверяет сам хаб: клиент передает его в query
		r.Method(http.MethodGet, "/ws", s.hub)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(s.logger, issuer))
			r.Get("/items", items.List)
			r.Post("/items", items.Create)
			r.Get("/items/{id}", items.Get)
			r.Put("/items/{id}", items.Update)
			r.Delete("/items/{id}", items.Delete)
		})
	})

	return r
}

// Handler корневой http.Handler сервера
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run слушает cfg.Listen до отмены ctx, затем корректно завершает работу
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")

	// Websocket-сессии hijacked, Shutdown их не ждет
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close освобождает ресурсы сервера
func (s *Server) Close() error {
	s.hub.Close()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.store.Close()
}
