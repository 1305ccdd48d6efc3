package domain

import "errors"

// Error taxonomy shared by services and the HTTP adapter. Handlers map these
// to status codes in one place; anything unrecognized surfaces as a 500.
var (
	// ErrNotFound indicates an unknown handle or deck id.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the requested handle is already taken.
	ErrConflict = errors.New("already exists")
	// ErrUnauthenticated indicates a missing or invalid session, or a failed
	// password check.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates a valid session that does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput indicates a missing required field or malformed body.
	ErrInvalidInput = errors.New("invalid input")
)
