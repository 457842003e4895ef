package subscriber

import "errors"

var (
	// ErrInvalidConfig indicates the subscriber configuration is
	// missing required fields.
	ErrInvalidConfig = errors.New("subscriber: invalid configuration")

	// ErrAlreadyStarted indicates Start was called while the
	// subscriber is already running.
	ErrAlreadyStarted = errors.New("subscriber: already started")

	// ErrStopped indicates an operation on a subscriber that has
	// been stopped. Stopped is terminal; create a new Subscriber
	// instead.
	ErrStopped = errors.New("subscriber: stopped")

	// ErrStopTimeout indicates the run loop did not exit within the
	// configured stop timeout.
	ErrStopTimeout = errors.New("subscriber: stop timed out")

	// ErrConnectFailed indicates a broker connection attempt failed.
	ErrConnectFailed = errors.New("subscriber: connect failed")

	// ErrSubscribeFailed indicates the broker rejected or timed out
	// the report topic subscription.
	ErrSubscribeFailed = errors.New("subscriber: subscribe failed")

	// ErrRetriesExhausted indicates MaxReconnects consecutive
	// connection attempts failed and the subscriber stopped.
	ErrRetriesExhausted = errors.New("subscriber: reconnect attempts exhausted")
)
