package shared

import "errors"

var (
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the operation collides with current state,
	// e.g. re-committing an already received purchase.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a missing or invalid shop credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// UserSafeMessage returns a message suitable for API consumers without
// leaking datastore internals.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrConflict):
		return "operation conflicts with current state"
	case errors.Is(err, ErrValidation):
		return "invalid input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal error"
	}
}
