package service

import (
	"net/http"

	"github.com/rinsr/dashboard/internal/geocode"
	"github.com/rinsr/dashboard/internal/proxy"
	"github.com/rinsr/dashboard/internal/server"
)

// Services groups the business layer handed to the handlers.
type Services struct {
	Proxy   *proxy.Adapter
	Geocode *GeocodeService
}

// NewService builds every service from the shared server dependencies.
func NewService(s *server.Server) (*Services, error) {
	adapter := proxy.NewAdapter(s.Config.Upstream, s.Upstream, proxy.Options{
		Logger:        s.Logger,
		Recorder:      s.Metrics,
		SlowThreshold: s.Config.Observability.Logging.SlowUpstreamThreshold,
		LoginPath:     s.Config.Auth.LoginPath,
	})

	var cache SuggestionCache
	if s.Redis != nil {
		cache = NewRedisCache(s.Redis, s.Logger)
	}

	geoClient := geocode.NewClient(
		s.Config.Geocoding.BaseURL,
		s.Config.Geocoding.APIKey,
		&http.Client{Transport: s.Upstream.Transport},
	)

	return &Services{
		Proxy:   adapter,
		Geocode: NewGeocodeService(s.Config.Geocoding, geoClient, cache, s.Logger),
	}, nil
}
