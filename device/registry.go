package device

import (
	"fmt"
	"sync"
)

// ClientRequest names a device operation and its params before the
// device type prefix is applied. Invoking {Op: "setState"} on an Outlet
// produces the wire method "Outlet.setState".
type ClientRequest struct {
	Op     string
	Params map[string]any
}

// BuilderFunc constructs a ClientRequest from loosely-typed arguments.
// Implementations validate the arguments they consume.
type BuilderFunc func(args map[string]any) (ClientRequest, error)

// ResolverFunc rewrites raw state or event data for one device type.
// attrs carries the device's external-data attributes and may be nil.
// Implementations return the (possibly modified) map they were given.
type ResolverFunc func(data, attrs map[string]any) map[string]any

type builderKey struct {
	deviceType string
	op         string
}

var (
	builderMu sync.RWMutex
	builders  = map[builderKey]BuilderFunc{}

	resolverMu sync.RWMutex
	resolvers  = map[string]ResolverFunc{}
)

// RegisterBuilder adds a builder for a (type, operation) pair. It
// returns ErrBuilderExists when the pair already has one.
func RegisterBuilder(deviceType, op string, fn BuilderFunc) error {
	builderMu.Lock()
	defer builderMu.Unlock()

	key := builderKey{deviceType: deviceType, op: op}
	if _, ok := builders[key]; ok {
		return fmt.Errorf("%w: %s.%s", ErrBuilderExists, deviceType, op)
	}
	builders[key] = fn
	return nil
}

// BuilderFor returns the builder registered for a (type, operation)
// pair.
func BuilderFor(deviceType, op string) (BuilderFunc, bool) {
	builderMu.RLock()
	defer builderMu.RUnlock()

	fn, ok := builders[builderKey{deviceType: deviceType, op: op}]
	return fn, ok
}

// Build runs the registered builder for a (type, operation) pair. It
// returns ErrBuilderNotFound when none is registered.
func Build(deviceType, op string, args map[string]any) (ClientRequest, error) {
	fn, ok := BuilderFor(deviceType, op)
	if !ok {
		return ClientRequest{}, fmt.Errorf("%w: %s.%s", ErrBuilderNotFound, deviceType, op)
	}
	return fn(args)
}

// RegisterResolver adds a resolver for a device type. It returns
// ErrResolverExists when the type already has one.
func RegisterResolver(deviceType string, fn ResolverFunc) error {
	resolverMu.Lock()
	defer resolverMu.Unlock()

	if _, ok := resolvers[deviceType]; ok {
		return fmt.Errorf("%w: %s", ErrResolverExists, deviceType)
	}
	resolvers[deviceType] = fn
	return nil
}

// ResolverFor returns the resolver registered for a device type.
func ResolverFor(deviceType string) (ResolverFunc, bool) {
	resolverMu.RLock()
	defer resolverMu.RUnlock()

	fn, ok := resolvers[deviceType]
	return fn, ok
}

// Resolve runs the registered resolver for a device type, or returns
// data unchanged when the type has none.
func Resolve(deviceType string, data, attrs map[string]any) map[string]any {
	fn, ok := ResolverFor(deviceType)
	if !ok {
		return data
	}
	return fn(data, attrs)
}
