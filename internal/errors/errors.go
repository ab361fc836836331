package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the dashboard core
var (
	// Credential errors
	ErrMalformedCredential = errors.New("malformed credential")
	ErrUntrustedCredential = errors.New("untrusted credential")

	// Upstream errors (directory API, identity provider)
	ErrUpstream = errors.New("upstream error")

	// Capability errors
	ErrInsufficientCapability = errors.New("insufficient capability")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionExists   = errors.New("session already exists")
	ErrIDExhausted     = errors.New("unable to allocate a unique session id")

	// Login flow errors
	ErrInvalidState = errors.New("invalid state parameter")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
