package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/rinsr/dashboard/internal/envelope"
	"github.com/rinsr/dashboard/internal/middleware"
	"github.com/rinsr/dashboard/internal/proxy"
	"github.com/rinsr/dashboard/internal/server"
	"github.com/rinsr/dashboard/internal/validation"
)

// Handler holds the shared application dependencies of concrete handlers.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// Request is satisfied by pointers to request structs. A fresh value is
// allocated for every request.
type Request[T any] interface {
	*T
	validation.Validatable
}

// HandlerFunc is a typed endpoint: it receives a validated request and
// returns the envelope data or an error.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// ResponseHandler writes a successful handler result.
type ResponseHandler interface {
	Handle(c echo.Context, result interface{}) error

	// GetOperation names the handler kind in logs.
	GetOperation() string

	AddAttributes(txn *newrelic.Transaction, result interface{})
}

// EnvelopeResponseHandler wraps the result in a successful envelope.
type EnvelopeResponseHandler struct {
	status  int
	message string
}

func (h EnvelopeResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.JSON(h.status, envelope.Success(envelope.Raw(result), h.message))
}

func (h EnvelopeResponseHandler) GetOperation() string {
	return "handler"
}

func (h EnvelopeResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	// http.status_code is already set by EnhanceTracing.
}

// ResultResponseHandler writes a proxy.Result as is: the adapter already
// chose the status and built the envelope.
type ResultResponseHandler struct {
	route *proxy.Route
}

func (h ResultResponseHandler) Handle(c echo.Context, result interface{}) error {
	res := result.(proxy.Result)
	return c.JSON(res.Status, res.Envelope)
}

func (h ResultResponseHandler) GetOperation() string {
	return "proxy"
}

func (h ResultResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if txn == nil {
		return
	}
	if result == nil {
		txn.AddAttribute("proxy.route", h.route.Name)
		txn.AddAttribute("proxy.resource", h.route.Resource)
		return
	}
	if res, ok := result.(proxy.Result); ok {
		txn.AddAttribute("proxy.status", res.Status)
		txn.AddAttribute("proxy.success", res.Envelope.Success)
	}
}

// handleRequest is the pipeline shared by every handler: optional binding
// and validation, the handler itself, tracing attributes, timing logs and
// the response write. A nil validate skips the validation phase.
func handleRequest(
	c echo.Context,
	validate func() error,
	handler func(c echo.Context) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
		responseHandler.AddAttributes(txn, nil)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", route).
		Logger()

	logger.Debug().Msg("handling request")

	var validationDuration time.Duration
	if validate != nil {
		validationStart := time.Now()
		err := validate()
		validationDuration = time.Since(validationStart)

		if err != nil {
			logger.Warn().
				Err(err).
				Dur("validation_duration", validationDuration).
				Msg("request validation failed")

			if txn != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
				txn.AddAttribute("validation.status", "failed")
				txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
			}
			return err
		}

		if txn != nil {
			txn.AddAttribute("validation.status", "success")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}
	}

	handlerStart := time.Now()
	result, err := handler(c)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		}
		return err
	}

	totalDuration := time.Since(start)

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
		responseHandler.AddAttributes(txn, result)
	}

	logger.Debug().
		Dur("handler_duration", handlerDuration).
		Dur("validation_duration", validationDuration).
		Dur("total_duration", totalDuration).
		Msg("request completed")

	return responseHandler.Handle(c, result)
}

// Handle binds and validates a fresh Req, runs handler and answers with a
// successful envelope carrying message.
//
//	r.GET("/geocode/autocomplete", handler.Handle(h.Geocode.Autocomplete, http.StatusOK, "Suggestions fetched successfully"))
func Handle[T any, Req Request[T], Res any](
	handler HandlerFunc[Req, Res],
	status int,
	message string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := Req(new(T))

		return handleRequest(c,
			func() error { return validation.BindAndValidate(c, req) },
			func(c echo.Context) (interface{}, error) { return handler(c, req) },
			EnvelopeResponseHandler{status: status, message: message},
		)
	}
}
