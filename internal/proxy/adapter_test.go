package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinsr/dashboard/internal/config"
	"github.com/rinsr/dashboard/internal/model"
)

// upstream is a fake upstream API that records what it received.
type upstream struct {
	*httptest.Server

	calls atomic.Int32

	mu      sync.Mutex
	method  string
	path    string
	query   string
	headers http.Header
	body    []byte
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()

	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)

		b, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.method = r.Method
		u.path = r.URL.Path
		u.query = r.URL.RawQuery
		u.headers = r.Header.Clone()
		u.body = b
		u.mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(u.Close)

	return u
}

type recorder struct {
	mu       sync.Mutex
	statuses []int
}

func (r *recorder) ObserveUpstream(resource, method string, status int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func newAdapter(baseURL string) *Adapter {
	return NewAdapter(config.UpstreamConfig{
		BaseURL:         baseURL,
		Timeout:         5 * time.Second,
		MaxErrorSnippet: 200,
	}, nil, Options{})
}

func envelopeJSON(t *testing.T, res Result) map[string]any {
	t.Helper()

	b, err := json.Marshal(res.Envelope)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

var (
	getOrder = &Route{
		Name: "orders.get", Resource: "orders", Method: http.MethodGet,
		Path: "/orders/:id", Upstream: "/orders/:id", Unwrap: []string{"order"},
	}
	createPlan = &Route{
		Name: "plans.create", Resource: "plans", Method: http.MethodPost,
		Path: "/plans", Upstream: "/plans",
	}
	updateStatus = &Route{
		Name: "vendor-orders.status", Resource: "vendor-orders", Method: http.MethodPatch,
		Path: "/vendor-orders/:id/status", Upstream: "/vendor-orders/:id/status",
		Message: "Status updated successfully",
	}
)

func TestNormalizeBaseURL(t *testing.T) {
	hosts := []string{"https://rinsr.example.com", "http://localhost:4000", "https://x.example.com/v1"}
	suffixes := []string{"", "/", "//", "/api", "/api/", "/api//"}

	for _, host := range hosts {
		for _, suffix := range suffixes {
			raw := host + suffix
			t.Run(raw, func(t *testing.T) {
				got := NormalizeBaseURL(raw)

				assert.Equal(t, host+"/api", got)
				assert.Equal(t, 1, strings.Count(got, "/api"))
				assert.Equal(t, got, NormalizeBaseURL(got), "must be idempotent")
			})
		}
	}

	assert.Empty(t, NormalizeBaseURL(""))
	assert.Empty(t, NormalizeBaseURL(" / "))
}

func TestForward_MissingTokenMakesNoCall(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	a := newAdapter(up.URL)

	routes := []*Route{getOrder, createPlan, updateStatus}
	for _, route := range routes {
		t.Run(route.Name, func(t *testing.T) {
			res := a.Forward(context.Background(), Call{
				Route:  route,
				Params: map[string]string{"id": "42"},
				Body:   []byte(`{"status":"done"}`),
			})

			assert.Equal(t, http.StatusUnauthorized, res.Status)
			assert.Equal(t, map[string]any{"success": false, "message": "Unauthorized"}, envelopeJSON(t, res))
		})
	}

	assert.Zero(t, up.calls.Load())
}

func TestForward_UnauthorizedCarriesLoginRedirect(t *testing.T) {
	redirect := map[string]any{
		"type":    "redirect",
		"message": "Your session has expired. Please sign in again.",
		"value":   "/login",
	}

	t.Run("missing token", func(t *testing.T) {
		up := newUpstream(t, http.StatusOK, `{}`)
		a := NewAdapter(config.UpstreamConfig{BaseURL: up.URL, Timeout: 5 * time.Second}, nil, Options{LoginPath: "/login"})

		res := a.Forward(context.Background(), Call{Route: getOrder, Params: map[string]string{"id": "42"}})

		assert.Equal(t, http.StatusUnauthorized, res.Status)
		assert.Equal(t, map[string]any{"success": false, "message": "Unauthorized", "action": redirect}, envelopeJSON(t, res))
		assert.Zero(t, up.calls.Load())
	})

	t.Run("token rejected upstream", func(t *testing.T) {
		up := newUpstream(t, http.StatusUnauthorized, `{"message":"jwt expired"}`)
		a := NewAdapter(config.UpstreamConfig{BaseURL: up.URL, Timeout: 5 * time.Second}, nil, Options{LoginPath: "/login"})

		res := a.Forward(context.Background(), Call{Route: getOrder, Params: map[string]string{"id": "42"}, Token: "stale"})

		assert.Equal(t, http.StatusUnauthorized, res.Status)
		assert.Equal(t, map[string]any{
			"success": false,
			"message": "jwt expired",
			"error":   map[string]any{"message": "jwt expired"},
			"action":  redirect,
		}, envelopeJSON(t, res))
	})
}

func TestForward_MissingBaseURLMakesNoCall(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	a := newAdapter("")

	for _, token := range []string{"", "tok"} {
		res := a.Forward(context.Background(), Call{
			Route:  getOrder,
			Params: map[string]string{"id": "42"},
			Token:  token,
		})

		assert.Equal(t, http.StatusInternalServerError, res.Status)
		assert.Equal(t, map[string]any{"success": false, "message": "Server configuration error"}, envelopeJSON(t, res))
	}

	assert.Zero(t, up.calls.Load())
}

func TestForward_NonJSONBody(t *testing.T) {
	html := "<html>" + strings.Repeat("x", 500) + "</html>"
	up := newUpstream(t, http.StatusBadGateway, html)
	a := newAdapter(up.URL)

	res := a.Forward(context.Background(), Call{Route: getOrder, Params: map[string]string{"id": "1"}, Token: "tok"})

	assert.Equal(t, http.StatusBadGateway, res.Status)
	body := envelopeJSON(t, res)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Fetch failed: 502", body["message"])

	detail, ok := body["error"].(map[string]any)
	require.True(t, ok)
	raw, ok := detail["raw"].(string)
	require.True(t, ok)
	assert.Len(t, raw, 200)
	assert.True(t, strings.HasPrefix(raw, "<html>"))
}

func TestForward_UpstreamNotFound(t *testing.T) {
	up := newUpstream(t, http.StatusNotFound, `{"message":"not found"}`)
	a := newAdapter(up.URL)

	res := a.Forward(context.Background(), Call{Route: getOrder, Params: map[string]string{"id": "1"}, Token: "tok"})

	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, map[string]any{
		"success": false,
		"message": "not found",
		"error":   map[string]any{"message": "not found"},
	}, envelopeJSON(t, res))
}

func TestForward_FallbackMessage(t *testing.T) {
	up := newUpstream(t, http.StatusUnprocessableEntity, `{"errors":["bad"]}`)
	a := newAdapter(up.URL)

	res := a.Forward(context.Background(), Call{
		Route: updateStatus, Params: map[string]string{"id": "9"}, Token: "tok", Body: []byte(`{"status":"x"}`),
	})

	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "Upstream update failed", res.Envelope.Message)
	assert.JSONEq(t, `{"errors":["bad"]}`, string(res.Envelope.Error))
}

func TestForward_CreateSuccess(t *testing.T) {
	up := newUpstream(t, http.StatusCreated, `{"data":{"_id":"abc"}}`)
	a := newAdapter(up.URL)

	res := a.Forward(context.Background(), Call{Route: createPlan, Token: "tok", Body: []byte(`{"name":"Gold"}`)})

	assert.Equal(t, http.StatusOK, res.Status)
	body := envelopeJSON(t, res)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"_id": "abc"}, body["data"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, "Plan created successfully", body["message"])
}

func TestForward_RequestShape(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"success":true}`)
	a := newAdapter(up.URL + "/")

	payload := `{"status":"picked_up", "note":"  spaced  "}`
	res := a.Forward(context.Background(), Call{
		Route:  updateStatus,
		Params: map[string]string{"id": "ord 7"},
		Query:  url.Values{"page": {"2"}},
		Body:   []byte(payload),
		Token:  "secret",
	})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Status updated successfully", res.Envelope.Message)

	up.mu.Lock()
	defer up.mu.Unlock()

	assert.Equal(t, http.MethodPatch, up.method)
	assert.Equal(t, "/api/vendor-orders/ord 7/status", up.path)
	assert.Equal(t, "page=2", up.query, "non-list routes forward the query untouched")
	assert.Equal(t, payload, string(up.body), "body is forwarded byte for byte")
	assert.Equal(t, "Bearer secret", up.headers.Get("Authorization"))
	assert.Equal(t, "application/json", up.headers.Get("Content-Type"))
	assert.Equal(t, "application/json", up.headers.Get("Accept"))
	assert.Empty(t, up.headers.Get("Cookie"))
}

func TestForward_NetworkFailure(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	base := up.URL
	up.Close()

	rec := &recorder{}
	a := NewAdapter(config.UpstreamConfig{BaseURL: base, MaxErrorSnippet: 200}, nil, Options{Recorder: rec})

	res := a.Forward(context.Background(), Call{Route: getOrder, Params: map[string]string{"id": "1"}, Token: "tok"})

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	body := envelopeJSON(t, res)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error", body["message"])
	cause, ok := body["error"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, cause)
	assert.Equal(t, []int{0}, rec.statuses)
}

func TestForward_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	a := NewAdapter(config.UpstreamConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, MaxErrorSnippet: 200}, nil, Options{})

	res := a.Forward(context.Background(), Call{Route: getOrder, Params: map[string]string{"id": "1"}, Token: "tok"})

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, MsgInternal, res.Envelope.Message)
}

func TestForward_SchemaValidationBlocksCall(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	a := newAdapter(up.URL)

	factory, ok := model.Lookup(model.SchemaStatusUpdate)
	require.True(t, ok)

	route := *updateStatus
	route.Payload = factory

	res := a.Forward(context.Background(), Call{
		Route: &route, Params: map[string]string{"id": "1"}, Token: "tok", Body: []byte(`{"note":"x"}`),
	})

	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Validation failed", res.Envelope.Message)
	require.Len(t, res.Envelope.Errors, 1)
	assert.Equal(t, "status", res.Envelope.Errors[0].Field)
	assert.Zero(t, up.calls.Load())
}

func TestForward_InvalidJSONBody(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	a := newAdapter(up.URL)

	res := a.Forward(context.Background(), Call{Route: createPlan, Token: "tok", Body: []byte(`{"name":`)})

	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid JSON body", res.Envelope.Message)
	assert.Zero(t, up.calls.Load())
}

func TestForward_MissingPathParam(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	a := newAdapter(up.URL)

	res := a.Forward(context.Background(), Call{Route: getOrder, Token: "tok"})

	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Zero(t, up.calls.Load())
}

func TestForward_Unwrap(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "nested key", body: `{"data":{"order":{"_id":"1"}}}`, want: `{"_id":"1"}`},
		{name: "top-level key", body: `{"order":{"_id":"2"},"success":true}`, want: `{"_id":"2"}`},
		{name: "data only", body: `{"data":{"_id":"3"}}`, want: `{"_id":"3"}`},
		{name: "null data keeps body", body: `{"data":null,"_id":"4"}`, want: `{"data":null,"_id":"4"}`},
		{name: "whole body", body: `{"_id":"5"}`, want: `{"_id":"5"}`},
		{name: "array body", body: `[1,2]`, want: `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpstream(t, http.StatusOK, tt.body)
			a := newAdapter(up.URL)

			res := a.Forward(context.Background(), Call{Route: getOrder, Params: map[string]string{"id": "1"}, Token: "tok"})

			require.Equal(t, http.StatusOK, res.Status)
			assert.JSONEq(t, tt.want, string(res.Envelope.Data))
			assert.Equal(t, "Order fetched successfully", res.Envelope.Message)
		})
	}
}

func TestForward_PublicStrictRoute(t *testing.T) {
	public := newUpstream(t, http.StatusInternalServerError, "<!DOCTYPE html><p>boom</p>")
	private := newUpstream(t, http.StatusOK, `{}`)

	route := &Route{
		Name: "vendors.get", Resource: "vendors", Method: http.MethodGet,
		Path: "/vendors/:id", Upstream: "/vendors/:id",
		Public: true, StrictJSON: true, Unwrap: []string{"vendor"},
	}

	a := NewAdapter(config.UpstreamConfig{
		BaseURL:         private.URL,
		PublicBaseURL:   public.URL + "/api/",
		MaxErrorSnippet: 200,
	}, nil, Options{})

	res := a.Forward(context.Background(), Call{Route: route, Params: map[string]string{"id": "v1"}})

	assert.Equal(t, http.StatusBadGateway, res.Status)
	assert.Equal(t, MsgNonJSON, res.Envelope.Message)
	assert.JSONEq(t, `{"raw":"<!DOCTYPE html><p>boom</p>"}`, string(res.Envelope.Error))
	assert.Equal(t, int32(1), public.calls.Load())
	assert.Zero(t, private.calls.Load())

	public.mu.Lock()
	assert.Empty(t, public.headers.Get("Authorization"), "no token, no Authorization header")
	assert.Equal(t, "/api/vendors/v1", public.path)
	public.mu.Unlock()
}

func TestForward_ListPagination(t *testing.T) {
	items := make([]string, 0, 25)
	for i := 1; i <= 25; i++ {
		name := fmt.Sprintf("Vendor %02d", i)
		if i%2 == 0 {
			name = fmt.Sprintf("Laundry %02d", i)
		}
		items = append(items, fmt.Sprintf(`{"_id":"%d","company_name":%q}`, i, name))
	}
	up := newUpstream(t, http.StatusOK, `{"data":{"vendors":[`+strings.Join(items, ",")+`]}}`)
	a := newAdapter(up.URL)

	route := &Route{
		Name: "vendors.list", Resource: "vendors", Method: http.MethodGet,
		Path: "/vendors", Upstream: "/vendors", List: true,
		Unwrap: []string{"vendors"}, Search: []string{"company_name"},
	}

	res := a.Forward(context.Background(), Call{
		Route: route, Token: "tok",
		Query: url.Values{"page": {"3"}, "per_page": {"10"}, "status": {"active"}},
	})
	require.Equal(t, http.StatusOK, res.Status)
	require.NotNil(t, res.Envelope.Meta)
	assert.Equal(t, 3, res.Envelope.Meta.PageCount)
	assert.Equal(t, 25, res.Envelope.Meta.Total)

	var page []map[string]any
	require.NoError(t, json.Unmarshal(res.Envelope.Data, &page))
	assert.Len(t, page, 5)
	assert.Equal(t, "Vendors fetched successfully", res.Envelope.Message)

	up.mu.Lock()
	assert.Equal(t, "status=active", up.query)
	up.mu.Unlock()

	res = a.Forward(context.Background(), Call{Route: route, Token: "tok", Query: url.Values{"search": {"LAUNDRY"}}})
	require.NotNil(t, res.Envelope.Meta)
	assert.Equal(t, 12, res.Envelope.Meta.Total)
	assert.Equal(t, 2, res.Envelope.Meta.PageCount)

	res = a.Forward(context.Background(), Call{Route: route, Token: "tok"})
	assert.Nil(t, res.Envelope.Meta, "no listing parameters returns the full collection")
	var all []map[string]any
	require.NoError(t, json.Unmarshal(res.Envelope.Data, &all))
	assert.Len(t, all, 25)
}

func TestRouteMessages(t *testing.T) {
	tests := []struct {
		route   Route
		success string
		failure string
	}{
		{Route{Resource: "users", Method: http.MethodGet, List: true}, "Users fetched successfully", "Fetch failed: 500"},
		{Route{Resource: "delivery-partners", Method: http.MethodPut}, "Delivery partner updated successfully", "Upstream update failed"},
		{Route{Resource: "plans", Method: http.MethodPost}, "Plan created successfully", "Upstream create failed"},
		{Route{Resource: "orders", Method: http.MethodPut, Message: "Order updated successfully", Fallback: "Order update failed"}, "Order updated successfully", "Order update failed"},
	}

	for _, tt := range tests {
		t.Run(tt.success, func(t *testing.T) {
			assert.Equal(t, tt.success, tt.route.SuccessMessage())
			assert.Equal(t, tt.failure, tt.route.FallbackMessage(500))
		})
	}
}

func TestExpandPath(t *testing.T) {
	got, err := ExpandPath("/vendor-orders/:id/status", map[string]string{"id": "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/vendor-orders/a%2Fb/status", got)

	_, err = ExpandPath("/orders/:id", map[string]string{"id": " "})
	require.Error(t, err)

	assert.Equal(t, []string{"id", "item"}, Placeholders("/orders/:id/items/:item"))
}
