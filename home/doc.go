// Package home ties the YoLink pieces together: it authenticates,
// enumerates the home's devices into handles, and keeps a report
// subscription running that routes events to a listener.
//
// # Setup and teardown
//
// Setup is fail-fast: it resolves the home ID (unless a topic override
// is configured, as local hubs use), enumerates devices, and only then
// starts the subscriber. If enumeration fails nothing is left running.
// Unload stops the subscriber and drops the device set; it is
// idempotent and a Manager can be set up again afterwards.
//
// # Event routing
//
// Reports arrive as (deviceID, envelope) pairs. The manager keeps only
// state-bearing kinds (Report, Alert, StatusChange, getState), looks
// the device up, passes the payload through the device type's resolver
// and hands the result to the listener. Reports for devices that were
// not enumerated are dropped.
//
// Thread Safety:
//   - All Manager methods are safe for concurrent use.
//   - The listener is invoked from a single goroutine, in broker
//     order; a slow listener delays delivery but never loses it.
package home
