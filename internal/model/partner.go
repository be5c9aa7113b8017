package model

import (
	"strings"

	"github.com/rinsr/dashboard/internal/validation"
)

// Coordinates is a point picked from a geocoding suggestion.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// VendorRequest is the body of POST /api/vendors and PUT /api/vendors/:id.
type VendorRequest struct {
	CompanyName         string       `json:"company_name" validate:"required"`
	Location            string       `json:"location,omitempty"`
	PhoneNumber         string       `json:"phone_number" validate:"required"`
	Services            []string     `json:"services,omitempty"`
	LocationCoordinates *Coordinates `json:"location_coordinates,omitempty"`
	IsActive            *bool        `json:"is_active,omitempty"`
}

// Validate checks tags, then rejects a service listed twice.
// Blank rows are the form's empty inputs and are ignored.
func (r *VendorRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}

	seen := make(map[string]bool, len(r.Services))
	for _, s := range r.Services {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if seen[key] {
			return validation.CustomValidationErrors{{
				Field:   "services",
				Message: "must not contain duplicates",
			}}
		}
		seen[key] = true
	}
	return nil
}

// DeliveryPartnerRequest is the body of POST /api/delivery-partners
// and PUT /api/delivery-partners/:id.
type DeliveryPartnerRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	Location    string `json:"location,omitempty"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

func (r *DeliveryPartnerRequest) Validate() error {
	return validation.Struct(r)
}
