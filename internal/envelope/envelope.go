// Package envelope defines the single response shape every dashboard route returns.
//
//	{ "success": true,  "data": ..., "message": "Users fetched successfully", "meta": {...} }
//	{ "success": false, "message": "not found", "error": {"message": "not found"} }
//
// Pages treat any envelope without success:true as a failure and show its message.
package envelope

import (
	"encoding/json"

	"github.com/rinsr/dashboard/internal/errs"
	"github.com/rinsr/dashboard/internal/listing"
)

// Envelope is the normalized JSON body of every response.
//
// Data and Error hold already-encoded JSON so upstream payloads are relayed
// byte for byte; both are omitted when empty.
type Envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Message string            `json:"message"`
	Error   json.RawMessage   `json:"error,omitempty"`
	Errors  []errs.FieldError `json:"errors,omitempty"`
	Meta    *listing.Meta     `json:"meta,omitempty"`

	// Action tells the page what to do next, e.g. go to the login screen.
	Action *errs.Action `json:"action,omitempty"`
}

// Success builds a successful envelope.
func Success(data json.RawMessage, message string) Envelope {
	return Envelope{Success: true, Data: data, Message: message}
}

// Failure builds a failed envelope. detail may be nil.
func Failure(message string, detail json.RawMessage) Envelope {
	return Envelope{Success: false, Message: message, Error: detail}
}

// FromHTTPError converts an application error into a failed envelope,
// keeping its field errors and client action.
func FromHTTPError(err *errs.HTTPError) Envelope {
	return Envelope{
		Success: false,
		Message: err.Message,
		Errors:  err.Errors,
		Action:  err.Action,
	}
}

// Raw encodes v for use as Data or Error. Values that cannot be encoded
// yield nil, which drops the field from the response.
func Raw(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
