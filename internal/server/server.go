package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/preston-bernstein/archery-score-client/internal/app/competitions"
	"github.com/preston-bernstein/archery-score-client/internal/app/entry"
	"github.com/preston-bernstein/archery-score-client/internal/app/ranking"
	"github.com/preston-bernstein/archery-score-client/internal/app/verify"
	"github.com/preston-bernstein/archery-score-client/internal/auth"
	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/config"
	"github.com/preston-bernstein/archery-score-client/internal/drafts"
	"github.com/preston-bernstein/archery-score-client/internal/events"
	httpserver "github.com/preston-bernstein/archery-score-client/internal/http"
	"github.com/preston-bernstein/archery-score-client/internal/http/handlers"
	"github.com/preston-bernstein/archery-score-client/internal/http/middleware"
	"github.com/preston-bernstein/archery-score-client/internal/janitor"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
)

var metricsSetup = metrics.Setup

// eventBus is the in-process pub/sub carrying scoring milestones.
type eventBus interface {
	message.Subscriber
	io.Closer
}

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	backend       backend.Backend
	entry         *entry.Service
	httpServer    httpServer
	metricsServer httpServer
	janitor       Janitor
	bus           eventBus
	metricsStop   func(context.Context) error
}

// New constructs a server with the configured backend, draft store and janitor.
func New(cfg config.Config, logger *slog.Logger) *Server {
	return newServerWithBackend(cfg, logger, nil)
}

func newServerWithBackend(cfg config.Config, logger *slog.Logger, be backend.Backend) *Server {
	return newServerWithMetrics(cfg, logger, be, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, be backend.Backend, recorder *metrics.Recorder) *Server {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	if be == nil {
		be = newBackendFactory(logger, recorder).build(cfg)
	}

	store := drafts.NewFSStore(cfg.Drafts.Folder, cfg.Drafts.RetentionDays)
	bus := events.NewInProcess(logger, cfg.Events.Buffer)
	entrySvc := entry.NewService(entry.Config{
		Backend:  be,
		Drafts:   store,
		Detector: buildDetector(cfg.Detection, logger, recorder),
		Notifier: events.NewPublisher(bus, logger),
		IdleTTL:  cfg.Drafts.SessionIdleTTL,
		Metrics:  recorder,
		Logger:   logger,
	})
	jan := janitor.New(store, logger, recorder, cfg.Drafts.JanitorInterval, entrySvc)
	httpSrv := buildHTTPServer(cfg, be, entrySvc, jan, logger, recorder)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		backend:       be,
		entry:         entrySvc,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		janitor:       jan,
		bus:           bus,
		metricsStop:   metricsShutdown,
	}
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, jan Janitor, bus eventBus) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		janitor:    jan,
		bus:        bus,
	}
}

func buildTokens(cfg config.AuthConfig, logger *slog.Logger) *auth.Tokens {
	secret := cfg.JWTSecret
	if secret == "" {
		// Only reachable with the fixture backend; tokens die with the process.
		secret = uuid.NewString()
		if logger != nil {
			logger.Warn("no jwt secret configured, using an ephemeral one")
		}
	}
	return auth.NewTokens(secret, cfg.TokenTTL)
}

func buildHTTPServer(cfg config.Config, be backend.Backend, entrySvc *entry.Service, jan Janitor, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	var statusFn func() janitor.Status
	if jan != nil {
		statusFn = jan.Status
	}

	tokens := buildTokens(cfg.Auth, logger)
	handler := handlers.NewHandler(handlers.Deps{
		Entry:         entrySvc,
		Ranking:       ranking.NewService(be),
		Verify:        verify.NewService(be, logger),
		Competitions:  competitions.NewDefaultService(be),
		Login:         auth.NewLoginService(be, tokens, logger),
		StatusFn:      statusFn,
		MaxPhotoBytes: cfg.Detection.MaxUploadBytes,
		Logger:        logger,
	})
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Handler: handler,
		Tokens:  tokens,
		Limiter: middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, recorder, logger),
		Metrics: recorder,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the janitor, event consumer and HTTP server, then waits for
// context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startEvents(ctx)
	s.startServer(stop)
	s.janitor.Start(ctx)

	<-ctx.Done()
	if s.logger != nil {
		s.logger.Info("shutdown signal received")
	}

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	if s.logger != nil {
		s.logger.Info("http server starting", slog.String("addr", s.httpServer.Addr()))
	}
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	if s.logger != nil {
		s.logger.Info("metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	}
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) startEvents(ctx context.Context) {
	if s.bus == nil {
		return
	}
	go func() {
		if err := events.Consume(ctx, s.bus, s.logger, events.LogHandler(s.logger)); err != nil && s.logger != nil {
			s.logger.Warn("event consumer stopped", "error", err)
		}
	}()
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	if err := s.janitor.Stop(shutdownCtx); err != nil && s.logger != nil {
		s.logger.Error("failed to stop draft janitor", "error", err)
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
	}

	// Closed after the HTTP server so in-flight submissions can still publish.
	if s.bus != nil {
		if err := s.bus.Close(); err != nil && s.logger != nil {
			s.logger.Warn("event bus close failed", "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("shutdown complete")
	}
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		if logger != nil {
			logger.Warn("metrics setup failed, continuing without telemetry", "err", err)
		}
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:    ":" + recCfg.Port,
				Handler: handler,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if logger != nil {
			logger.Info("starting "+name+" server", slog.String("addr", srv.Addr()))
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Warn(name+" server failed", "error", err)
			}
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
