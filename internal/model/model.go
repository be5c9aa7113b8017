// Package model holds the request payloads the dashboard forms submit.
//
// The upstream API owns every entity; these types exist only to validate a
// body before it is forwarded. Forwarding always relays the original bytes,
// so fields a payload does not declare still reach the upstream.
package model

import (
	"sort"

	"github.com/rinsr/dashboard/internal/validation"
)

// Factory returns a fresh, zero payload to decode a body into.
type Factory func() validation.Validatable

// Schema names referenced by the route manifest.
const (
	SchemaUserCreate            = "user.create"
	SchemaUserUpdate            = "user.update"
	SchemaVendorCreate          = "vendor.create"
	SchemaVendorUpdate          = "vendor.update"
	SchemaDeliveryPartnerCreate = "delivery_partner.create"
	SchemaDeliveryPartnerUpdate = "delivery_partner.update"
	SchemaPlanCreate            = "plan.create"
	SchemaPlanUpdate            = "plan.update"
	SchemaOrderUpdate           = "order.update"
	SchemaStatusUpdate          = "status.update"
)

var schemas = map[string]Factory{
	SchemaUserCreate:            func() validation.Validatable { return &CreateUserRequest{} },
	SchemaUserUpdate:            func() validation.Validatable { return &UpdateUserRequest{} },
	SchemaVendorCreate:          func() validation.Validatable { return &VendorRequest{} },
	SchemaVendorUpdate:          func() validation.Validatable { return &VendorRequest{} },
	SchemaDeliveryPartnerCreate: func() validation.Validatable { return &DeliveryPartnerRequest{} },
	SchemaDeliveryPartnerUpdate: func() validation.Validatable { return &DeliveryPartnerRequest{} },
	SchemaPlanCreate:            func() validation.Validatable { return &PlanRequest{} },
	SchemaPlanUpdate:            func() validation.Validatable { return &PlanRequest{} },
	SchemaOrderUpdate:           func() validation.Validatable { return &UpdateOrderRequest{} },
	SchemaStatusUpdate:          func() validation.Validatable { return &UpdateStatusRequest{} },
}

// Lookup returns the payload factory registered under name.
func Lookup(name string) (Factory, bool) {
	f, ok := schemas[name]
	return f, ok
}

// Names lists every registered schema, sorted.
func Names() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
