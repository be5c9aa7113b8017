// Package service contains the logic that sits behind the handlers.
//
// Handlers hand it validated input. It forwards dashboard calls to the
// upstream API through the proxy adapter and serves geocoding lookups,
// owning the caches and clients those need.
package service
