// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the HTTP client used for upstream and geocoding calls
//   - the route manifest
//   - the metrics collector
//   - an optional redis client (geocoding cache)
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rinsr/dashboard/internal/config"
	"github.com/rinsr/dashboard/internal/metrics"
	"github.com/rinsr/dashboard/internal/resource"

	loggerPkg "github.com/rinsr/dashboard/internal/logger"
)

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself; httpServer is configured in
// SetupHTTPServer and started by Start.
type Server struct {
	Config *config.Config

	Logger *zerolog.Logger

	// LoggerService holds the New Relic application, nil inside when disabled.
	LoggerService *loggerPkg.LoggerService

	// Upstream is shared by every outbound call. Its transport reports
	// external segments to New Relic when a transaction is in the request context.
	Upstream *http.Client

	// Routes is the loaded route manifest.
	Routes *resource.Manifest

	Metrics *metrics.Collector

	// Redis is nil when no address is configured.
	Redis *redis.Client

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// Redis is optional: a failed ping is logged and startup continues, the
// geocoding cache then degrades to misses. A manifest that does not load is fatal.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	routes, err := resource.Load(cfg.Routes.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load route manifest: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Address,
		})

		if loggerService.GetApplication() != nil {
			redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error().Err(err).Msg("failed to connect to Redis, continuing without a warm cache")
		}
	}

	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Upstream:      NewUpstreamClient(),
		Routes:        routes,
		Metrics:       metrics.NewCollector(nil),
		Redis:         redisClient,
	}

	logger.Info().
		Int("routes", len(routes.Routes)).
		Bool("redis", redisClient != nil).
		Bool("new_relic", loggerService.GetApplication() != nil).
		Msg("server dependencies initialized")

	return server, nil
}

// NewUpstreamClient returns the pooled client used for outbound calls.
//
// It sets no overall timeout: each call is bounded by its request context
// and the configured per-call timeout.
func NewUpstreamClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 20
	transport.IdleConnTimeout = 90 * time.Second

	return &http.Client{
		Transport: newrelic.NewRoundTripper(transport),
	}
}

// SetupHTTPServer configures the internal net/http server with handler
// (the echo instance).
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: handler,

		// Config stores seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server and blocks until it stops.
// http.ErrServerClosed after Shutdown is not reported as an error.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, then releases the redis client,
// idle upstream connections and the New Relic agent.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}

	if s.Upstream != nil {
		s.Upstream.CloseIdleConnections()
	}

	s.LoggerService.Shutdown()

	return nil
}
