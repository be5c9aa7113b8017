// Package handler is the HTTP layer between the router and the services.
//
// Proxy routes are generic: one handler per manifest route hands the raw
// request to the proxy adapter. The remaining handlers bind and validate a
// typed request, call a service and answer with the response envelope.
package handler
