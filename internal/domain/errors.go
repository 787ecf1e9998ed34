package domain

import "errors"

// ErrValidation is returned when an upload or request fails structural
// validation (e.g. a required spreadsheet column is missing).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrPlaceNotFound is returned when a place name cannot be resolved to an
// address, neither via the alias table nor via geocoding. It is recorded
// per record and never aborts a batch.
var ErrPlaceNotFound = errors.New("place not found")

// ErrRouteUnavailable is returned for transient routing-service faults
// (network errors, 5xx, timeouts). Subject to the retry policy.
var ErrRouteUnavailable = errors.New("route unavailable")

// ErrQuotaExceeded is returned when the routing service reports quota
// exhaustion. Never retried; short-circuits the remainder of a batch.
var ErrQuotaExceeded = errors.New("routing quota exceeded")

// ErrMapUnavailable is returned when a static map image cannot be
// retrieved or stored for an otherwise routable trip.
var ErrMapUnavailable = errors.New("map image unavailable")

// ErrAssembly is returned when a document or archive cannot be built
// (naming collision, write failure). It fails the specific export request
// only; per-record resolution failures never produce it.
var ErrAssembly = errors.New("assembly error")
