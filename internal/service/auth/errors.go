package auth

import (
	"errors"
	"fmt"
)

// Error taxonomy the HTTP layer maps onto status codes. Anything outside it
// is a service failure and surfaces as 500.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrUnprocessable = errors.New("unprocessable token")
	ErrNotFound      = errors.New("not found")
)

// ErrEmailNotVerified is still an ErrUnauthorized; login is the only place
// allowed to show the caller a more specific message.
var ErrEmailNotVerified = fmt.Errorf("%w: email address not verified", ErrUnauthorized)

var (
	ErrEmailTaken    = fmt.Errorf("%w: a user with this email already exists", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: a user with this username already exists", ErrConflict)
)
