package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, rating out of range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the caller lacks the ownership or role
// relationship an operation requires (e.g. confirming a booking on someone
// else's trip). Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a state invariant rejects the operation:
// the trip is no longer available, an active booking already exists, a
// review for the same trip was already submitted. It is a meaningful,
// user-actionable outcome — handlers map it to HTTP 409. Storage failures
// must never be reported as ErrConflict except through the uniqueness
// constraints that encode these invariants.
var ErrConflict = errors.New("conflict")

// ErrUnauthenticated is returned when no valid caller identity is present.
// Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")
