package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/rinsr/dashboard/internal/geocode"
	"github.com/rinsr/dashboard/internal/model"
	"github.com/rinsr/dashboard/internal/server"
)

// Autocompleter returns location suggestions for a free-text query.
type Autocompleter interface {
	Autocomplete(ctx context.Context, q string) ([]geocode.Suggestion, error)
}

// GeocodeHandler serves location autocomplete for the vendor form.
type GeocodeHandler struct {
	Handler
	geocoder Autocompleter
}

func NewGeocodeHandler(s *server.Server, geocoder Autocompleter) *GeocodeHandler {
	return &GeocodeHandler{
		Handler:  NewHandler(s),
		geocoder: geocoder,
	}
}

// Autocomplete answers GET /api/geocode/autocomplete?q=.
func (h *GeocodeHandler) Autocomplete(c echo.Context, req *model.AutocompleteRequest) ([]geocode.Suggestion, error) {
	return h.geocoder.Autocomplete(c.Request().Context(), req.Query)
}
