package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rinsr/dashboard/internal/handler"
	"github.com/rinsr/dashboard/internal/server"
)

// registerSystemRoutes registers the endpoints that are not part of the
// dashboard API: health, Prometheus metrics and the route listing.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.HEAD("/status", h.Health.CheckHealth)

	r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	r.GET("/docs/routes", handler.Handle(
		h.Docs.Routes,
		http.StatusOK,
		"Routes fetched successfully",
	))
}
