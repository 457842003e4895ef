package subscriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YoSmart-Inc/yolink-api/logging"
	"github.com/YoSmart-Inc/yolink-api/model"
)

// Status represents the lifecycle state of a Subscriber.
type Status string

const (
	// StatusDisconnected means the subscriber holds no broker
	// connection. This is the initial state and the state between
	// reconnect cycles.
	StatusDisconnected Status = "disconnected"

	// StatusConnecting means a connection attempt is in progress.
	StatusConnecting Status = "connecting"

	// StatusSubscribed means the report subscription is active and
	// messages are being delivered.
	StatusSubscribed Status = "subscribed"

	// StatusStopped means the subscriber has shut down permanently.
	StatusStopped Status = "stopped"
)

const (
	defaultReconnectInitialDelay = 1 * time.Second
	defaultReconnectMaxDelay     = 60 * time.Second
	defaultConnectTimeout        = 10 * time.Second
	defaultStopTimeout           = 5 * time.Second
	defaultKeepAlive             = 600 * time.Second

	// subscribeQoS is the QoS level for the report subscription. The
	// broker publishes reports at QoS 0.
	subscribeQoS = 0

	// disconnectQuiesce is how long a clean disconnect waits for
	// in-flight work, in milliseconds.
	disconnectQuiesce = 250
)

// MessageHandler receives one decoded device report per call. Handlers
// run on the subscriber's delivery goroutine; a slow handler delays
// subsequent reports but never drops them.
type MessageHandler func(deviceID string, report *model.Response)

// StatusHandler is notified of lifecycle transitions. Optional.
type StatusHandler func(status Status)

// TokenSource supplies the access token used as the MQTT username.
// auth.Manager satisfies it.
type TokenSource interface {
	// EnsureFresh returns a token that is valid now, refreshing
	// first if needed.
	EnsureFresh(ctx context.Context) (string, error)

	// Invalidate drops the cached token if it still equals stale.
	Invalidate(stale string)
}

// Config carries the settings for a Subscriber.
type Config struct {
	// BrokerURL is the broker address, for example
	// "tcp://api.yosmart.com:8003". Required.
	BrokerURL string

	// Topic is the report topic filter, normally built with
	// CloudTopic or LocalTopic. Required.
	Topic string

	// OnMessage receives decoded reports. Required.
	OnMessage MessageHandler

	// OnStatus is notified of lifecycle transitions. Optional.
	OnStatus StatusHandler

	// OnError is notified when the subscriber gives up permanently,
	// which only happens once MaxReconnects consecutive attempts
	// fail. Optional.
	OnError func(err error)

	// Auth supplies the access token used to authenticate with the
	// broker. Required.
	Auth TokenSource

	// ClientID overrides the generated MQTT client identifier.
	ClientID string

	// MaxReconnects caps consecutive failed connection attempts
	// before the subscriber stops for good. Zero means retry
	// forever. The counter resets whenever a connection succeeds.
	MaxReconnects int

	// ReconnectInitialDelay is the first reconnect backoff interval.
	// Defaults to 1s.
	ReconnectInitialDelay time.Duration

	// ReconnectMaxDelay caps the reconnect backoff. Defaults to 60s.
	ReconnectMaxDelay time.Duration

	// ConnectTimeout bounds a single connect or subscribe attempt.
	// Defaults to 10s.
	ConnectTimeout time.Duration

	// StopTimeout bounds how long Stop waits for the run loop to
	// exit. Defaults to 5s.
	StopTimeout time.Duration

	// KeepAlive is the MQTT keepalive interval. Defaults to 600s,
	// matching the cloud broker's expectations.
	KeepAlive time.Duration

	// Logger receives connection lifecycle and drop diagnostics.
	// Defaults to logging.Default().
	Logger *logging.Logger
}

// Validate checks that required fields are present.
func (c Config) Validate() error {
	var missing []string
	if c.BrokerURL == "" {
		missing = append(missing, "broker URL")
	}
	if c.Topic == "" {
		missing = append(missing, "topic")
	}
	if c.OnMessage == nil {
		missing = append(missing, "message handler")
	}
	if c.Auth == nil {
		missing = append(missing, "token source")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = NewClientID()
	}
	if c.ReconnectInitialDelay <= 0 {
		c.ReconnectInitialDelay = defaultReconnectInitialDelay
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = defaultReconnectMaxDelay
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = defaultStopTimeout
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = defaultKeepAlive
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
}
