package auth

import (
	"errors"
	"fmt"
)

// Domain errors for the auth package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, auth.ErrNoCredentials) {
//	    // prompt for credentials
//	}
var (
	// ErrNoCredentials is returned when the client ID or secret is missing.
	ErrNoCredentials = errors.New("auth: client credentials are required")

	// ErrNoTokenURL is returned when no token endpoint is configured.
	ErrNoTokenURL = errors.New("auth: token URL is required")
)

// Error is a failed token exchange.
//
// Status is the HTTP status code, or 0 when the request never reached
// the server. Code and Desc carry the OAuth2 error fields when the
// server supplied them.
type Error struct {
	Status int
	Code   string // OAuth2 "error" field
	Desc   string // OAuth2 "error_description" field
	Err    error  // underlying transport error, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: token request failed: %v", e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("auth: token request rejected (status %d): %s: %s", e.Status, e.Code, e.Desc)
	}
	return fmt.Sprintf("auth: token request rejected (status %d)", e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}
