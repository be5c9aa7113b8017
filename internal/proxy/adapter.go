// Package proxy forwards dashboard requests to the upstream API.
//
// One Adapter serves every resource. A Route tells it the method, the
// upstream path template and where the payload sits in the answer; the
// Adapter checks configuration and credentials, makes exactly one upstream
// call and folds whatever comes back into an envelope.Envelope. Forward
// never returns an error: every failure is reported as an envelope with a
// matching status code.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/rinsr/dashboard/internal/config"
	"github.com/rinsr/dashboard/internal/envelope"
	"github.com/rinsr/dashboard/internal/errs"
	"github.com/rinsr/dashboard/internal/listing"
	"github.com/rinsr/dashboard/internal/validation"
)

// Messages of the failures the adapter reports itself.
const (
	MsgConfiguration = "Server configuration error"
	MsgUnauthorized  = "Unauthorized"
	MsgInternal      = "Internal server error"
	MsgNonJSON       = "Backend returned non-JSON response (likely HTML error)"
)

// Recorder observes upstream calls. status is 0 when no answer was received.
type Recorder interface {
	ObserveUpstream(resource, method string, status int, duration time.Duration)
}

// Options are the optional collaborators of an Adapter.
type Options struct {
	Logger *zerolog.Logger

	// Recorder receives one observation per upstream call.
	Recorder Recorder

	// SlowThreshold logs calls slower than this at warn level. Zero disables it.
	SlowThreshold time.Duration

	// LoginPath is attached to 401 answers as a redirect action when set.
	LoginPath string
}

// Call is one inbound request to forward.
type Call struct {
	Route  *Route
	Params map[string]string
	Query  url.Values
	Body   []byte

	// Token is the bearer token read from the auth cookie, "" when absent.
	Token string
}

// Result is the status code and envelope to answer with.
type Result struct {
	Status   int
	Envelope envelope.Envelope
}

// Adapter forwards calls to the upstream API.
type Adapter struct {
	cfg      config.UpstreamConfig
	client   *http.Client
	logger   *zerolog.Logger
	recorder Recorder
	slow     time.Duration
	login    string
}

// NewAdapter builds an Adapter. client is used for every upstream call and
// should not cache responses.
func NewAdapter(cfg config.UpstreamConfig, client *http.Client, opts Options) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Adapter{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		recorder: opts.Recorder,
		slow:     opts.SlowThreshold,
		login:    opts.LoginPath,
	}
}

// BaseURL returns the normalized base URL used for route, or "" when none
// is configured.
func (a *Adapter) BaseURL(route *Route) string {
	if route != nil && route.Public && a.cfg.PublicBaseURL != "" {
		return NormalizeBaseURL(a.cfg.PublicBaseURL)
	}
	return NormalizeBaseURL(a.cfg.BaseURL)
}

// Forward performs call and returns the response to send.
//
// Checks run in order and stop at the first failure, before any network I/O:
// base URL configured (500), token present unless the route is public (401),
// path parameters present (400), body valid against the route schema (400),
// body is JSON (400). Then exactly one upstream request is made.
func (a *Adapter) Forward(ctx context.Context, call Call) Result {
	route := call.Route
	logger := a.requestLogger(ctx).With().
		Str("route", route.Name).
		Str("upstream_method", route.Method).
		Logger()

	base := a.BaseURL(route)
	if base == "" {
		logger.Error().Msg("upstream base URL is not configured")
		return failure(http.StatusInternalServerError, MsgConfiguration, nil)
	}

	if call.Token == "" && !route.Public {
		logger.Warn().Msg("missing auth token")
		httpErr := a.unauthorized()
		return Result{Status: httpErr.Status, Envelope: envelope.FromHTTPError(httpErr)}
	}

	path, err := ExpandPath(route.Upstream, call.Params)
	if err != nil {
		httpErr := errs.NewBadRequestError("Invalid path: "+err.Error(), false, nil, nil, nil)
		return Result{Status: httpErr.Status, Envelope: envelope.FromHTTPError(httpErr)}
	}

	if route.Payload != nil {
		if httpErr := validation.DecodeAndValidate(call.Body, route.Payload()); httpErr != nil {
			logger.Info().Interface("errors", httpErr.Errors).Msg("request body rejected")
			return Result{Status: httpErr.Status, Envelope: envelope.FromHTTPError(httpErr)}
		}
	}

	body := bytes.TrimSpace(call.Body)
	if len(body) > 0 && !json.Valid(body) {
		httpErr := validation.InvalidJSONError()
		return Result{Status: httpErr.Status, Envelope: envelope.FromHTTPError(httpErr)}
	}

	target := base + path
	if q := a.forwardQuery(route, call.Query); q != "" {
		target += "?" + q
	}

	return a.do(ctx, logger, call, target)
}

func (a *Adapter) do(ctx context.Context, logger zerolog.Logger, call Call, target string) Result {
	route := call.Route

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	var reqBody io.Reader = http.NoBody
	if len(call.Body) > 0 {
		reqBody = bytes.NewReader(call.Body)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, target, reqBody)
	if err != nil {
		logger.Error().Err(err).Str("url", target).Msg("failed to build upstream request")
		return failure(http.StatusInternalServerError, MsgInternal, envelope.Raw(err.Error()))
	}

	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		duration := time.Since(start)
		a.observe(route, 0, duration)
		logger.Error().Err(err).Str("url", target).Dur("duration", duration).Msg("upstream request failed")
		return failure(http.StatusInternalServerError, MsgInternal, envelope.Raw(err.Error()))
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	a.observe(route, resp.StatusCode, duration)
	if err != nil {
		logger.Error().Err(err).Str("url", target).Msg("failed to read upstream response")
		return failure(http.StatusInternalServerError, MsgInternal, envelope.Raw(err.Error()))
	}

	event := logger.Debug()
	if a.slow > 0 && duration > a.slow {
		event = logger.Warn().Bool("slow", true)
	}
	event.Str("url", target).Int("status", resp.StatusCode).Dur("duration", duration).Msg("upstream responded")

	parsed, isJSON := parseBody(text, a.cfg.MaxErrorSnippet)
	if !isJSON {
		logger.Warn().Int("status", resp.StatusCode).Msg("upstream returned a non-JSON body")
		if route.StrictJSON {
			return failure(http.StatusBadGateway, MsgNonJSON, parsed)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := messageOf(parsed)
		if message == "" {
			message = route.FallbackMessage(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			env := envelope.FromHTTPError(a.unauthorized().WithMessage(message))
			env.Error = parsed
			return Result{Status: http.StatusUnauthorized, Envelope: env}
		}
		return failure(resp.StatusCode, message, parsed)
	}

	payload := unwrap(parsed, route.Unwrap)
	env := envelope.Success(payload, route.SuccessMessage())

	if route.List {
		if q, ok := listing.ParseQuery(call.Query); ok {
			a.paginate(logger, route, &env, q)
		}
	}

	return Result{Status: http.StatusOK, Envelope: env}
}

// paginate narrows a collection payload to the requested page. Payloads that
// are not arrays of objects are left untouched.
func (a *Adapter) paginate(logger zerolog.Logger, route *Route, env *envelope.Envelope, q listing.Query) {
	var items []listing.Record

	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		logger.Debug().Err(err).Msg("collection payload is not a list, skipping pagination")
		return
	}

	page := listing.Paginate(listing.Filter(items, q.Search, route.Search), q.Page, q.PerPage)

	data, err := json.Marshal(page.Items)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode page")
		return
	}

	env.Data = data
	env.Meta = &page.Meta
}

// forwardQuery drops the listing parameters handled locally.
func (a *Adapter) forwardQuery(route *Route, query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	if !route.List {
		return query.Encode()
	}

	out := url.Values{}
	for key, values := range query {
		switch key {
		case listing.ParamSearch, listing.ParamPage, listing.ParamPerPage:
			continue
		}
		out[key] = values
	}
	return out.Encode()
}

func (a *Adapter) observe(route *Route, status int, duration time.Duration) {
	if a.recorder != nil {
		a.recorder.ObserveUpstream(route.Resource, route.Method, status, duration)
	}
}

// requestLogger prefers the request-scoped logger carried by ctx.
func (a *Adapter) requestLogger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.logger
}

// unauthorized is the answer for a missing or rejected token.
func (a *Adapter) unauthorized() *errs.HTTPError {
	httpErr := errs.NewUnauthorizedError(MsgUnauthorized, false)
	if a.login != "" {
		httpErr.Action = &errs.Action{
			Type:    errs.ActionTypeRedirect,
			Message: "Your session has expired. Please sign in again.",
			Value:   a.login,
		}
	}
	return httpErr
}

func failure(status int, message string, detail json.RawMessage) Result {
	return Result{Status: status, Envelope: envelope.Failure(message, detail)}
}
