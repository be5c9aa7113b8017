package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutocomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/autocomplete", r.URL.Path)
		assert.Equal(t, "pk.test", r.URL.Query().Get("key"))
		assert.Equal(t, "baner road", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		_, _ = io.WriteString(w, `[{"place_id":"321","display_name":"Baner Road, Pune","lat":"18.559","lon":"73.786","osm_type":"way"}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", "pk.test", srv.Client())
	require.True(t, c.Configured())

	got, err := c.Autocomplete(context.Background(), "baner road", 5)
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{PlaceID: "321", DisplayName: "Baner Road, Pune", Lat: "18.559", Lon: "73.786"}}, got)
}

func TestAutocomplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		empty   bool
	}{
		{name: "no match", status: http.StatusNotFound, body: `{"error":"Unable to geocode"}`, empty: true},
		{name: "bad key", status: http.StatusUnauthorized, body: `{"error":"Invalid key"}`, wantErr: "geocoding provider returned 401: Invalid key"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `oops`, wantErr: "geocoding provider returned 429"},
		{name: "bad payload", status: http.StatusOK, body: `{"not":"a list"}`, wantErr: "failed to decode autocomplete response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			got, err := NewClient(srv.URL, "k", nil).Autocomplete(context.Background(), "pune", 5)
			if tt.empty {
				require.NoError(t, err)
				assert.Empty(t, got)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
