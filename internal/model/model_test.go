package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinsr/dashboard/internal/errs"
	"github.com/rinsr/dashboard/internal/validation"
)

func decode(t *testing.T, schema, body string) *errs.HTTPError {
	t.Helper()

	factory, ok := Lookup(schema)
	require.True(t, ok, "schema %s not registered", schema)

	return validation.DecodeAndValidate([]byte(body), factory())
}

func fields(err *errs.HTTPError) []string {
	out := make([]string, 0, len(err.Errors))
	for _, fe := range err.Errors {
		out = append(out, fe.Field)
	}
	return out
}

func TestSchemas(t *testing.T) {
	tests := []struct {
		name       string
		schema     string
		body       string
		wantFields []string
	}{
		{
			name:   "user create valid",
			schema: SchemaUserCreate,
			body:   `{"name":"Asha","email":"asha@rinsr.in","role":"admin","is_active":true}`,
		},
		{
			name:       "user update bad email and missing role",
			schema:     SchemaUserUpdate,
			body:       `{"name":"Asha","email":"asha"}`,
			wantFields: []string{"email", "role"},
		},
		{
			name:       "user create short password",
			schema:     SchemaUserCreate,
			body:       `{"name":"Asha","email":"asha@rinsr.in","role":"admin","password":"123"}`,
			wantFields: []string{"password"},
		},
		{
			name:   "vendor valid with blank service row",
			schema: SchemaVendorCreate,
			body:   `{"company_name":"Clean Co","phone_number":"+91 98","services":["wash",""],"location_coordinates":{"lat":18.52,"lng":73.85}}`,
		},
		{
			name:       "vendor bad coordinates",
			schema:     SchemaVendorUpdate,
			body:       `{"company_name":"Clean Co","phone_number":"1","location_coordinates":{"lat":95,"lng":-200}}`,
			wantFields: []string{"location_coordinates.lat", "location_coordinates.lng"},
		},
		{
			name:       "vendor duplicate services",
			schema:     SchemaVendorCreate,
			body:       `{"company_name":"Clean Co","phone_number":"1","services":["Wash"," wash"]}`,
			wantFields: []string{"services"},
		},
		{
			name:       "delivery partner missing fields",
			schema:     SchemaDeliveryPartnerCreate,
			body:       `{"location":"Pune","is_active":true}`,
			wantFields: []string{"company_name", "phone_number"},
		},
		{
			name:   "plan valid",
			schema: SchemaPlanCreate,
			body: `{"name":"Gold","price":499,"currency":"INR","validity_days":30,"weight_limit_kg":10,
				"pickups_per_month":4,"services":[{"serviceId":"s1","name":"Wash"}],"extra_kg_rate":0,"rollover_limit_months":0}`,
		},
		{
			name:   "plan minimums",
			schema: SchemaPlanUpdate,
			body: `{"name":"Gold","price":-1,"validity_days":0,"weight_limit_kg":0,"pickups_per_month":0,
				"services":[{"serviceId":"","name":"Wash"}],"extra_kg_rate":-2,"rollover_limit_months":-1}`,
			wantFields: []string{
				"price", "validity_days", "weight_limit_kg", "pickups_per_month",
				"services[0].serviceId", "extra_kg_rate", "rollover_limit_months",
			},
		},
		{
			name:       "status required",
			schema:     SchemaStatusUpdate,
			body:       `{}`,
			wantFields: []string{"status"},
		},
		{
			name:   "order update free form",
			schema: SchemaOrderUpdate,
			body:   `{"notes":"left at gate"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decode(t, tt.schema, tt.body)

			if len(tt.wantFields) == 0 {
				require.Nil(t, err)
				return
			}

			require.NotNil(t, err)
			assert.ElementsMatch(t, tt.wantFields, fields(err))
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup("invoice.create")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 10)
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, SchemaPlanCreate)
}
