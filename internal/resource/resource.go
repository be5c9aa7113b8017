// Package resource loads the route manifest: the list of resource/verb pairs
// the dashboard proxies to the upstream API.
//
// The manifest compiled into the binary is used unless a file path is given.
package resource

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rinsr/dashboard/internal/model"
	"github.com/rinsr/dashboard/internal/proxy"
)

//go:embed routes.yaml
var embedded []byte

var allowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// Manifest is the decoded route manifest.
type Manifest struct {
	Routes []*proxy.Route `yaml:"routes" json:"routes"`
}

// Load reads the manifest at path, or the embedded one when path is empty,
// then resolves and validates every route.
func Load(path string) (*Manifest, error) {
	data := embedded
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read route manifest %s: %w", path, err)
		}
		data = b
	}

	return Parse(data)
}

// Parse decodes and validates a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode route manifest: %w", err)
	}

	if err := m.resolve(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) resolve() error {
	if len(m.Routes) == 0 {
		return fmt.Errorf("route manifest has no routes")
	}

	names := make(map[string]bool, len(m.Routes))
	keys := make(map[string]bool, len(m.Routes))

	for i, r := range m.Routes {
		if r == nil {
			return fmt.Errorf("route %d is empty", i)
		}

		r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
		if r.Name == "" {
			r.Name = r.Method + " " + r.Path
		}

		if err := validateRoute(r); err != nil {
			return fmt.Errorf("route %s: %w", r.Name, err)
		}

		if names[r.Name] {
			return fmt.Errorf("duplicate route name %s", r.Name)
		}
		names[r.Name] = true

		key := r.Method + " " + r.Path
		if keys[key] {
			return fmt.Errorf("route %s: duplicate %s", r.Name, key)
		}
		keys[key] = true

		if r.Schema != "" {
			factory, ok := model.Lookup(r.Schema)
			if !ok {
				return fmt.Errorf("route %s: unknown schema %q", r.Name, r.Schema)
			}
			r.Payload = factory
		}
	}

	return nil
}

func validateRoute(r *proxy.Route) error {
	if r.Resource == "" {
		return fmt.Errorf("resource is required")
	}
	if !slices.Contains(allowedMethods, r.Method) {
		return fmt.Errorf("unsupported method %q", r.Method)
	}
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("path must start with /")
	}
	if !strings.HasPrefix(r.Upstream, "/") {
		return fmt.Errorf("upstream must start with /")
	}
	if !slices.Equal(proxy.Placeholders(r.Path), proxy.Placeholders(r.Upstream)) {
		return fmt.Errorf("path %s and upstream %s use different placeholders", r.Path, r.Upstream)
	}
	if r.List && r.Method != http.MethodGet {
		return fmt.Errorf("list routes must use GET")
	}
	if r.Schema != "" && r.Method == http.MethodGet {
		return fmt.Errorf("GET routes take no body schema")
	}
	return nil
}

// Find returns the route registered for method and path.
func (m *Manifest) Find(method, path string) (*proxy.Route, bool) {
	for _, r := range m.Routes {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return nil, false
}

// Resources lists the distinct resource names in manifest order.
func (m *Manifest) Resources() []string {
	var out []string
	for _, r := range m.Routes {
		if !slices.Contains(out, r.Resource) {
			out = append(out, r.Resource)
		}
	}
	return out
}
