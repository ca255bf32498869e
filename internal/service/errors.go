// Package service holds the registration, session and list-sharing rules.
// Handlers translate its sentinel errors into HTTP statuses.
package service

import "errors"

var (
	// ErrConflict means the email is already registered.
	ErrConflict = errors.New("email already registered")
	// ErrInvalidToken means a registration token failed to decrypt.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnauthorized covers bad credentials and unusable session tokens alike.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBadRequest is a well-formed but wrong request, e.g. an access token
	// presented to refresh.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound answers both a missing list and one the caller cannot see.
	ErrNotFound = errors.New("list not found")
	// ErrTaskNotFound is a missing task inside a list the caller can see.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUserNotFound is a share target email with no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoAccess is a revoke aimed at a user without an access row.
	ErrNoAccess = errors.New("user does not have access")
)
