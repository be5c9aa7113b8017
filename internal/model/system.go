package model

import "github.com/rinsr/dashboard/internal/validation"

// RoutesQuery filters GET /docs/routes by resource.
type RoutesQuery struct {
	Resource string `query:"resource" json:"resource" validate:"omitempty,max=64"`
}

func (r *RoutesQuery) Validate() error {
	return validation.Struct(r)
}
