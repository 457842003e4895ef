package client

import "errors"

// Domain errors for the client package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, client.ErrRequestFailed) {
//	    // transport-level failure, all retries exhausted
//	}
var (
	// ErrRequestFailed is returned when the HTTP exchange itself failed:
	// a transport error, a non-success status, or retries exhausted.
	ErrRequestFailed = errors.New("client: request failed")

	// ErrMalformedResponse is returned when the gateway answered 200 but
	// the body is not a valid BRDP envelope.
	ErrMalformedResponse = errors.New("client: malformed response envelope")

	// ErrUnauthorized is returned when the gateway rejected the request
	// with 401 even after a forced token refresh.
	ErrUnauthorized = errors.New("client: unauthorized after token refresh")

	// ErrNoAuth is returned when constructing a Client without a token
	// source.
	ErrNoAuth = errors.New("client: token source is required")

	// errTokenRejected marks a single 401 inside the retry pipeline. It
	// never escapes Call.
	errTokenRejected = errors.New("client: token rejected")
)
