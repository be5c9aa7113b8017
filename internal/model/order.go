package model

import "github.com/rinsr/dashboard/internal/validation"

// UpdateOrderRequest is the body of PUT /api/orders/:id. Only the status is
// checked; the rest of the body is relayed as is.
type UpdateOrderRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,max=64"`
}

func (r *UpdateOrderRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateStatusRequest is the body of the PATCH .../:id/status routes.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=64"`
}

func (r *UpdateStatusRequest) Validate() error {
	return validation.Struct(r)
}

// AutocompleteRequest is the query of GET /api/geocode/autocomplete.
type AutocompleteRequest struct {
	Query string `query:"q" json:"q" validate:"max=200"`
}

func (r *AutocompleteRequest) Validate() error {
	return validation.Struct(r)
}
