package handler

import (
	"context"
	"io"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rinsr/dashboard/internal/errs"
	"github.com/rinsr/dashboard/internal/middleware"
	"github.com/rinsr/dashboard/internal/proxy"
	"github.com/rinsr/dashboard/internal/server"
)

// Forwarder performs one proxied call.
type Forwarder interface {
	Forward(ctx context.Context, call proxy.Call) proxy.Result
}

// ProxyHandler serves every manifest route through the proxy adapter.
type ProxyHandler struct {
	Handler
	forwarder Forwarder
}

// NewProxyHandler constructs a ProxyHandler.
func NewProxyHandler(s *server.Server, forwarder Forwarder) *ProxyHandler {
	return &ProxyHandler{
		Handler:   NewHandler(s),
		forwarder: forwarder,
	}
}

// Route returns the echo handler for route. Upstream failures are answered
// by the adapter with their own status; only a body that cannot be read
// reaches the global error handler.
func (h *ProxyHandler) Route(route *proxy.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, nil, func(c echo.Context) (interface{}, error) {
			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				// BodyLimit reports an oversized body through the reader.
				var echoErr *echo.HTTPError
				if errors.As(err, &echoErr) {
					return nil, echoErr
				}
				return nil, errs.NewBadRequestError("Could not read request body", false, nil, nil, nil)
			}

			params := pathParams(c)

			return h.forwarder.Forward(c.Request().Context(), proxy.Call{
				Route:  route,
				Params: params,
				Query:  c.QueryParams(),
				Body:   body,
				Token:  middleware.GetToken(c),
			}), nil
		}, ResultResponseHandler{route: route})
	}
}

// pathParams returns the decoded path parameters. echo hands them over as
// they appear in the raw path, and the adapter escapes them again.
func pathParams(c echo.Context) map[string]string {
	names, values := c.ParamNames(), c.ParamValues()

	params := make(map[string]string, len(names))
	for i, name := range names {
		value := values[i]
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		params[name] = value
	}
	return params
}
