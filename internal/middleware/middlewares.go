package middleware

import (
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/rinsr/dashboard/internal/server"
)

// Middlewares groups every middleware component used by the router.
type Middlewares struct {
	// Global: CORS, request logging, recovery, secure headers, body limit
	// and the global error handler.
	Global *GlobalMiddlewares

	// Token reads the auth cookie on /api routes.
	Token *TokenMiddleware

	ContextEnhancer *ContextEnhancer

	Tracing *TracingMiddleware

	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components. Tracing degrades to
// a no-op when New Relic is not configured.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Token:           NewTokenMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
