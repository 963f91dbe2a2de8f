package accounts

import (
	"errors"
	"fmt"
)

// Errors returned by the Accounts operations.
// All failures are reported synchronously to the caller, nothing is
// retried internally.
var (
	// ErrInvalidArgument is returned when a required argument is empty
	// or malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUserNotFound is returned when the addressed user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoSuchAddress is returned when an email address is not attached
	// to the addressed user.
	ErrNoSuchAddress = errors.New("no such email address for user")

	// ErrLinkExpired is returned when a token matches no outstanding
	// token record. The message is intentionally generic: it covers both
	// unknown tokens and tokens lost to a concurrent consumption, so the
	// caller cannot tell which sub-case occurred.
	ErrLinkExpired = errors.New("verify email link expired")

	// ErrUnknownAddress is returned when a token is valid but the address
	// it was issued for has since been removed from the user.
	ErrUnknownAddress = errors.New("verify email link is for unknown address")
)

// ConflictError is returned when a value would case-insensitively collide
// with one already attached to a different user.
type ConflictError struct {
	// Field is the display name of the conflicting field, e.g. "Email".
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// IsConflict tells if err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
