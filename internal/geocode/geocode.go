// Package geocode is a small client for the LocationIQ autocomplete API,
// used to suggest vendor locations while an address is typed.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DebounceInterval is how long a client should wait after the last keystroke
// before asking for suggestions.
const DebounceInterval = 500 * time.Millisecond

// Suggestion is one autocomplete result.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Error is a non-2xx answer from the provider.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("geocoding provider returned %d", e.Status)
	}
	return fmt.Sprintf("geocoding provider returned %d: %s", e.Status, e.Message)
}

// Client calls the provider's autocomplete endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a Client for baseURL (e.g. https://api.locationiq.com/v1).
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Autocomplete returns up to limit suggestions for q.
func (c *Client) Autocomplete(ctx context.Context, q string, limit int) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/autocomplete?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build autocomplete request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read autocomplete response: %w", err)
	}

	// LocationIQ answers 404 {"error":"Unable to geocode"} when nothing matches.
	if resp.StatusCode == http.StatusNotFound {
		return []Suggestion{}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &payload)
		return nil, &Error{Status: resp.StatusCode, Message: payload.Error}
	}

	var suggestions []Suggestion
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, fmt.Errorf("failed to decode autocomplete response: %w", err)
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}

	return suggestions, nil
}
