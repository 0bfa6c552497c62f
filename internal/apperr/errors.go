// Package apperr defines the rejection taxonomy shared by every request
// path. Handlers wrap these sentinels with context and the HTTP edge maps
// them to status codes in one place.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials covers a bad email/password pair. It never
	// distinguishes "no such user" from "wrong password".
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized covers a missing, invalid or expired bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden covers a valid identity with insufficient role.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound covers a chat, message or user that does not exist or is
	// not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers a duplicate email on signup.
	ErrConflict = errors.New("already exists")

	// ErrUpstream covers a third-party AI or image service failure.
	ErrUpstream = errors.New("upstream service failure")
)

// Status maps a rejection to its HTTP status code. Anything outside the
// taxonomy is an internal error.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
