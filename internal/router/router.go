// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rinsr/dashboard/internal/handler"
	"github.com/rinsr/dashboard/internal/middleware"
	"github.com/rinsr/dashboard/internal/server"
)

// APIPrefix is where the dashboard API is mounted.
const APIPrefix = "/api"

// NewRouter builds the echo instance: global middleware, system routes and
// the /api group with one proxy route per manifest entry.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.Recover(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
		middlewares.Global.RequestLogger(),
		s.Metrics.Middleware(),
		middlewares.Global.BodyLimit(),
	)

	registerSystemRoutes(router, s, h)

	api := router.Group(APIPrefix)
	api.Use(
		middlewares.RateLimit.Limit(),
		middlewares.Token.ExtractToken,
	)

	registerGeocodeRoutes(api, h)
	registerProxyRoutes(api, s, h)

	return router
}

func registerGeocodeRoutes(api *echo.Group, h *handler.Handlers) {
	api.GET("/geocode/autocomplete", handler.Handle(
		h.Geocode.Autocomplete,
		http.StatusOK,
		"Suggestions fetched successfully",
	))
}

// registerProxyRoutes mounts every manifest route. Manifest paths are
// already validated and unique per method.
func registerProxyRoutes(api *echo.Group, s *server.Server, h *handler.Handlers) {
	for _, route := range s.Routes.Routes {
		api.Add(route.Method, route.Path, h.Proxy.Route(route)).Name = route.Name
	}

	s.Logger.Debug().
		Int("routes", len(s.Routes.Routes)).
		Strs("resources", s.Routes.Resources()).
		Msg("proxy routes registered")
}
