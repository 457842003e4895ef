package model

import "fmt"

// Result codes returned by the YoLink API gateway.
const (
	// CodeSuccess is the gateway's code for a successful call.
	CodeSuccess = "000000"

	// CodeTokenExpired indicates the access token was rejected.
	// The call itself is well-formed; retrying with a fresh token
	// is the caller's decision, not the transport's.
	CodeTokenExpired = "000103"

	// CodeTokenInvalid is the newer gateway code for a rejected
	// access token.
	CodeTokenInvalid = "010104"

	// CodeDeviceUnreachable indicates the hub could not reach the
	// target device.
	CodeDeviceUnreachable = "000201"
)

// DeviceError is a rejection from the YoLink API itself: the HTTP
// exchange succeeded but the gateway answered with a non-success code.
//
// It is terminal from the transport's point of view. Whether to retry
// (for example on CodeDeviceUnreachable once the device wakes) is up to
// the application.
type DeviceError struct {
	Code string // gateway result code, e.g. "000201"
	Desc string // human-readable description from the gateway
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("model: api error %s: %s", e.Code, e.Desc)
}

// TokenExpired reports whether the failure is the gateway rejecting the
// access token.
func (e *DeviceError) TokenExpired() bool {
	return e.Code == CodeTokenExpired || e.Code == CodeTokenInvalid
}

// DeviceUnreachable reports whether the hub failed to reach the target
// device.
func (e *DeviceError) DeviceUnreachable() bool {
	return e.Code == CodeDeviceUnreachable
}
