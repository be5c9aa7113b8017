package model

import "github.com/rinsr/dashboard/internal/validation"

// PlanService links a plan to one upstream service.
type PlanService struct {
	ServiceID string `json:"serviceId" validate:"required"`
	Name      string `json:"name" validate:"required"`
}

// PlanRequest is the body of POST /api/plans and PUT /api/plans/:id.
//
// Numeric fields are pointers so a missing value is reported as required
// rather than silently read as zero.
type PlanRequest struct {
	Name                string        `json:"name" validate:"required"`
	Description         string        `json:"description,omitempty"`
	Price               *float64      `json:"price" validate:"required,min=0"`
	Currency            string        `json:"currency,omitempty" validate:"omitempty,len=3"`
	ValidityDays        *int          `json:"validity_days" validate:"required,min=1"`
	WeightLimitKg       *float64      `json:"weight_limit_kg" validate:"required,min=1"`
	PickupsPerMonth     *int          `json:"pickups_per_month" validate:"required,min=1"`
	Features            []string      `json:"features,omitempty"`
	Services            []PlanService `json:"services,omitempty" validate:"dive"`
	ExtraKgRate         *float64      `json:"extra_kg_rate" validate:"required,min=0"`
	RolloverLimitMonths *int          `json:"rollover_limit_months" validate:"required,min=0"`
	IsActive            *bool         `json:"is_active,omitempty"`
}

func (r *PlanRequest) Validate() error {
	return validation.Struct(r)
}
