package handler

import (
	"github.com/rinsr/dashboard/internal/server"
	"github.com/rinsr/dashboard/internal/service"
)

// Handlers groups all HTTP handlers so router setup receives one value.
type Handlers struct {
	Health  *HealthHandler
	Docs    *DocsHandler
	Proxy   *ProxyHandler
	Geocode *GeocodeHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Docs:    NewDocsHandler(s),
		Proxy:   NewProxyHandler(s, services.Proxy),
		Geocode: NewGeocodeHandler(s, services.Geocode),
	}
}
