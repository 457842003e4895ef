// Package subscriber maintains the MQTT subscription that delivers
// YoLink device reports.
//
// The cloud publishes every device report for a home on the topic
// filter "yl-home/{homeID}/+/report"; local hubs use
// "ylsubnet/{netID}/+/report". The broker authenticates with the
// account access token as the MQTT username and an empty password, so
// connection attempts and token lifecycle are tied together.
//
// # Lifecycle
//
// A Subscriber runs a connect-subscribe-pump cycle:
//
//	Disconnected -> Connecting -> Subscribed -> Disconnected -> ...
//
// Each cycle builds a fresh MQTT client with a freshly-ensured token,
// subscribes unconditionally, then pumps messages until the connection
// drops or the context ends. Reconnect attempts back off exponentially
// and reset once a connection succeeds. Stop (or context cancellation)
// moves the subscriber to the terminal Stopped state; a stopped
// subscriber cannot be restarted.
//
// # Delivery
//
// Reports are decoded into model.Response and handed to the configured
// handler one at a time, in arrival order, from a single goroutine.
// Messages on unexpected topics and payloads that fail to decode are
// logged and dropped; they never tear down the subscription.
package subscriber
