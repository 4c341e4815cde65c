package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
	"github.com/kbukum/taskflow/report"
	"github.com/kbukum/taskflow/server/endpoint"
	"github.com/kbukum/taskflow/server/middleware"
	"github.com/kbukum/taskflow/sse"
)

// APIPrefix is the route group of the run endpoints.
const APIPrefix = "/api/v1"

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server is the report HTTP server: a Gin engine behind the middleware
// stack and an h2c handler.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	handler    http.Handler
	config     Config
	metrics    *observability.Metrics
	log        *logger.Logger
	runs       *endpoint.Runs
	hub        *sse.Hub

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server. cfg should have defaults applied.
func New(cfg Config, log *logger.Logger, opts ...Option) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: gin.New(),
		config: cfg,
		log:    log.WithComponent("server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(middleware.Telemetry(s.metrics))
	stack := middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(cfg.MaxBodySize),
		middleware.RequestLogger(s.log),
	)
	s.handler = h2c.NewHandler(stack(s.engine), &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the complete handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// RegisterDefaultEndpoints registers /health, /alive and /version.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checkers ...observability.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checkers...))
	s.engine.GET("/alive", endpoint.Liveness(serviceName))
	s.engine.GET("/version", endpoint.Version())
}

// RegisterRunEndpoints registers the run endpoints and the run event
// stream under APIPrefix. A nil trigger leaves runs read-only.
func (s *Server) RegisterRunEndpoints(ctx context.Context, store *report.Store, trigger endpoint.Trigger) {
	s.hub = sse.NewHub()
	go s.hub.Run()

	s.runs = endpoint.NewRuns(store, s.log).WithEvents(s.hub)
	if trigger != nil {
		s.runs.WithTrigger(ctx, trigger)
	}
	api := s.engine.Group(APIPrefix)
	s.runs.Register(api)
	api.GET("/events", endpoint.Events(s.hub))
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("report server started", logger.Fields("addr", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully within the configured shutdown
// timeout, closing event streams first, then waits for triggered runs to
// finish.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down report server")

	timeout := time.Duration(s.config.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Event streams never go idle on their own.
	if s.hub != nil {
		s.hub.Stop()
	}
	err := s.httpServer.Shutdown(shutdownCtx)
	if s.runs != nil {
		s.runs.Wait()
	}
	if err != nil {
		s.log.Error("server shutdown error", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
