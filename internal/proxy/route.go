package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rinsr/dashboard/internal/model"
)

// Route describes one resource/verb pair served by the adapter.
//
// Path is the local route (echo syntax, e.g. /vendor-orders/:id/status);
// Upstream is the path below the normalized base URL and uses the same
// placeholders.
type Route struct {
	Name     string `yaml:"name" json:"name"`
	Resource string `yaml:"resource" json:"resource"`
	Method   string `yaml:"method" json:"method"`
	Path     string `yaml:"path" json:"path"`
	Upstream string `yaml:"upstream" json:"upstream"`

	// Public routes use the public base URL and do not require a token.
	Public bool `yaml:"public,omitempty" json:"public,omitempty"`

	// StrictJSON turns a non-JSON upstream body into a 502.
	StrictJSON bool `yaml:"strict_json,omitempty" json:"strict_json,omitempty"`

	// Unwrap lists the keys the payload may sit under, tried before "data".
	Unwrap []string `yaml:"unwrap,omitempty" json:"unwrap,omitempty"`

	// List marks collection routes; Search names the fields a search term matches.
	List   bool     `yaml:"list,omitempty" json:"list,omitempty"`
	Search []string `yaml:"search,omitempty" json:"search,omitempty"`

	Schema   string `yaml:"schema,omitempty" json:"schema,omitempty"`
	Message  string `yaml:"message,omitempty" json:"message,omitempty"`
	Fallback string `yaml:"fallback,omitempty" json:"fallback,omitempty"`

	// Payload is resolved from Schema when the manifest is loaded.
	Payload model.Factory `yaml:"-" json:"-"`
}

// Placeholders returns the :name segments of a path template, in order.
func Placeholders(template string) []string {
	var names []string
	for _, segment := range strings.Split(template, "/") {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			names = append(names, segment[1:])
		}
	}
	return names
}

// ExpandPath substitutes every :name segment of template with the escaped
// value of params[name]. A missing or empty value is an error.
func ExpandPath(template string, params map[string]string) (string, error) {
	segments := strings.Split(template, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") || len(segment) == 1 {
			continue
		}

		name := segment[1:]
		value := params[name]
		if strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("missing path parameter %q", name)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}

// SuccessMessage is the confirmation returned on a 2xx upstream answer.
func (r *Route) SuccessMessage() string {
	if r.Message != "" {
		return r.Message
	}

	var verb string
	switch r.Method {
	case http.MethodPost:
		verb = "created"
	case http.MethodPut, http.MethodPatch:
		verb = "updated"
	case http.MethodDelete:
		verb = "deleted"
	default:
		verb = "fetched"
	}

	subject := strings.ReplaceAll(r.Resource, "-", " ")
	if !r.List {
		subject = singular(subject)
	}
	if subject == "" {
		subject = "request"
	}

	words := strings.Fields(subject)
	words[0] = cases.Title(language.English).String(words[0])

	return strings.Join(words, " ") + " " + verb + " successfully"
}

// FallbackMessage is used when a failed upstream answer carries no message.
func (r *Route) FallbackMessage(status int) string {
	if r.Fallback != "" {
		return r.Fallback
	}

	switch r.Method {
	case http.MethodGet:
		return fmt.Sprintf("Fetch failed: %d", status)
	case http.MethodPost:
		return "Upstream create failed"
	case http.MethodDelete:
		return "Upstream delete failed"
	default:
		return "Upstream update failed"
	}
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "ss"):
		return s
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	default:
		return s
	}
}
