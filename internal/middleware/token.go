package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/rinsr/dashboard/internal/server"
)

// TokenKey is the echo context key holding the bearer token read from the auth cookie.
const TokenKey = "token"

// TokenMiddleware reads the upstream bearer token from the auth cookie.
//
// It never rejects a request: routes that need a token fail in the proxy
// adapter, after the upstream configuration has been checked.
type TokenMiddleware struct {
	server *server.Server
}

// NewTokenMiddleware constructs a TokenMiddleware.
func NewTokenMiddleware(s *server.Server) *TokenMiddleware {
	return &TokenMiddleware{
		server: s,
	}
}

// ExtractToken stores the cookie value under TokenKey, "" when the cookie is absent.
func (t *TokenMiddleware) ExtractToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ""
		if cookie, err := c.Cookie(t.server.Config.Auth.CookieName); err == nil {
			token = cookie.Value
		}

		c.Set(TokenKey, token)

		if token != "" {
			GetLogger(c).Debug().Msg("auth cookie present")
		}

		return next(c)
	}
}

// GetToken returns the token stored by ExtractToken.
func GetToken(c echo.Context) string {
	if token, ok := c.Get(TokenKey).(string); ok {
		return token
	}
	return ""
}
