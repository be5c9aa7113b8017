package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/rinsr/dashboard/internal/model"
	"github.com/rinsr/dashboard/internal/proxy"
	"github.com/rinsr/dashboard/internal/server"
)

// DocsHandler describes the proxied API.
type DocsHandler struct {
	Handler
}

func NewDocsHandler(s *server.Server) *DocsHandler {
	return &DocsHandler{
		Handler: NewHandler(s),
	}
}

// Routes lists the manifest routes, optionally only those of one resource.
// Paths are the local ones, below /api.
func (h *DocsHandler) Routes(c echo.Context, req *model.RoutesQuery) ([]*proxy.Route, error) {
	c.Response().Header().Set("Cache-Control", "no-cache")

	routes := make([]*proxy.Route, 0, len(h.server.Routes.Routes))
	for _, route := range h.server.Routes.Routes {
		if req.Resource == "" || route.Resource == req.Resource {
			routes = append(routes, route)
		}
	}
	return routes, nil
}
