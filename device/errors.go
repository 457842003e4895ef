package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrBuilderNotFound) {
//	    // no dynamic builder for this type/operation
//	}
var (
	// ErrNilCaller is returned when constructing a Device without a
	// request pipeline.
	ErrNilCaller = errors.New("device: caller is required")

	// ErrBuilderExists is returned when registering a builder for a
	// (type, operation) pair that already has one.
	ErrBuilderExists = errors.New("device: builder already registered")

	// ErrBuilderNotFound is returned when no builder is registered for
	// a (type, operation) pair.
	ErrBuilderNotFound = errors.New("device: builder not found")

	// ErrResolverExists is returned when registering a resolver for a
	// type that already has one.
	ErrResolverExists = errors.New("device: resolver already registered")

	// ErrTokenRequired is returned when invoking a device whose type
	// demands a device-scoped token but the record carries none.
	ErrTokenRequired = errors.New("device: device token is required")
)
