// Package device provides per-device handles over the YoLink API.
//
// A Device binds one DeviceRecord from Home.getDeviceList to the
// request pipeline. Its operations compose the wire method from the
// device type ("Outlet" + "getState" -> "Outlet.getState") and stamp
// the device ID and device-scoped token into the envelope.
//
// # Catalog
//
// The catalog maps device types to their network class (battery Class
// A, powered Class C, long-range Class D, hubs) and the keepalive
// window derived from it, and flags the types that need a device token
// or carry calibration attributes in external data.
//
// # Registries
//
// Two process-wide registries adapt type-specific quirks:
//
//   - Builders construct requests for a (type, operation) pair from
//     loosely-typed arguments, which is what a CLI or rules engine
//     works with. Typed constructors like NewOutletStateRequest remain
//     the first choice for Go callers.
//   - Resolvers rewrite raw state and event payloads for types whose
//     firmware reports encoded values, such as the SmartRemoter button
//     mask or the WaterDepthSensor pressure reading.
//
// Both registries are populated for the known quirky types at init and
// accept additions during start-up, before devices begin serving calls.
package device
