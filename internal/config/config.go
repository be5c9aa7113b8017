// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when one
// exists), loads them into structured Go types, and validates them so the rest
// of the application receives one explicit *Config built at startup.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Keep the variable names of the original deployment working.
//   - Validate values so the app fails fast on bad config.
//
// The upstream base URL is deliberately NOT required here: a missing base URL is
// reported per request by the proxy adapter (500 "Server configuration error").
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the process
	// env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

/*
	Key mapping:
	- Env vars are read using the prefix RINSR_
	- Keys are lowercased and the prefix removed
	- A double underscore marks nesting:
	  RINSR_SERVER__PORT -> server.port -> Config.Server.Port
	- A few legacy names of the original deployment are aliased, see legacyKeys.
*/

const envPrefix = "RINSR_"

// legacyKeys maps variable names used by the original deployment onto koanf keys.
// Names without the RINSR_ prefix are matched as-is.
var legacyKeys = map[string]string{
	"RINSR_API_BASE":             "upstream.base_url",
	"NEXT_PUBLIC_API_BASE_URL":   "upstream.public_base_url",
	"NEXT_PUBLIC_LOCATIONIQ_KEY": "geocoding.api_key",
}

// Config is the root configuration object for the application.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Upstream      UpstreamConfig       `koanf:"upstream"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Geocoding     GeocodingConfig      `koanf:"geocoding" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Routes        RoutesConfig         `koanf:"routes"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=local development staging production"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are stored in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	BodyLimit          string   `koanf:"body_limit" validate:"required"`

	// RateLimit is the allowed request rate per client IP on /api, per second.
	// Zero disables the limiter.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
}

// UpstreamConfig describes the external backend API every proxy route forwards to.
type UpstreamConfig struct {
	// BaseURL is the private upstream base URL. It may or may not end in /api.
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`

	// PublicBaseURL is used by public routes; BaseURL is the fallback.
	PublicBaseURL string `koanf:"public_base_url" validate:"omitempty,url"`

	// Timeout bounds one upstream call. Zero means no client-side timeout.
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`

	// MaxErrorSnippet is how many characters of a non-JSON body are kept in {raw}.
	MaxErrorSnippet int `koanf:"max_error_snippet" validate:"min=1"`
}

// AuthConfig names the cookie carrying the upstream bearer token.
// The dashboard never issues or validates the token, it only relays it.
type AuthConfig struct {
	CookieName string `koanf:"cookie_name" validate:"required"`

	// LoginPath is where the dashboard sends users on a 401. Empty disables the hint.
	LoginPath string `koanf:"login_path"`
}

// GeocodingConfig configures the location autocomplete provider (LocationIQ).
type GeocodingConfig struct {
	APIKey         string        `koanf:"api_key"`
	BaseURL        string        `koanf:"base_url" validate:"required,url"`
	Limit          int           `koanf:"limit" validate:"min=1,max=20"`
	MinQueryLength int           `koanf:"min_query_length" validate:"min=1"`
	Timeout        time.Duration `koanf:"timeout" validate:"min=0"`
	CacheTTL       time.Duration `koanf:"cache_ttl" validate:"min=0"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port"; empty disables the geocoding cache.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// RoutesConfig points at an optional route manifest overriding the embedded one.
type RoutesConfig struct {
	File string `koanf:"file"`
}

// DefaultConfig returns the configuration used when no variable overrides it.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       60,
			IdleTimeout:        120,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			BodyLimit:          "2M",
			RateLimit:          20,
		},
		Upstream: UpstreamConfig{
			Timeout:         30 * time.Second,
			MaxErrorSnippet: 200,
		},
		Auth: AuthConfig{CookieName: "rinsr_token", LoginPath: "/login"},
		Geocoding: GeocodingConfig{
			BaseURL:        "https://api.locationiq.com/v1",
			Limit:          5,
			MinQueryLength: 3,
			Timeout:        10 * time.Second,
			CacheTTL:       10 * time.Minute,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads configuration from environment variables on top of
// DefaultConfig, validates it and returns the result.
func LoadConfig() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	// Legacy names first so RINSR_ prefixed variables win on conflicts.
	err := k.Load(env.Provider("", ".", func(s string) string {
		if key, ok := legacyKeys[s]; ok {
			return key
		}
		return ""
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load legacy env variables: %w", err)
	}

	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		if _, ok := legacyKeys[s]; ok {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := DefaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	if mainConfig.Upstream.BaseURL == "" {
		logger.Warn().Msg("upstream base URL is not set; proxy routes will answer 500 until it is")
	}
	if mainConfig.Geocoding.APIKey == "" {
		logger.Warn().Msg("geocoding API key is not set; location autocomplete is disabled")
	}

	return mainConfig, nil
}
