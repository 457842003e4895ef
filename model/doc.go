// Package model defines the wire types exchanged with the YoLink cloud.
//
// Two envelopes cover every API interaction:
//
//   - Request (BSDP, Basic Service Data Packet): the JSON body POSTed to
//     the API gateway. It names a method, optionally a target device and
//     that device's scoped token, and a free-form params object.
//   - Response (BRDP, Basic Response Data Packet): the JSON body returned
//     by the gateway and also the payload published on MQTT report
//     topics. It carries a six-digit result code, a human-readable desc,
//     the echoed method (or an event name for pushed messages) and a
//     free-form data object.
//
// DeviceRecord mirrors one entry of the Home.getDeviceList response.
//
// Result codes other than CodeSuccess map to *DeviceError so callers can
// branch on the failure class with errors.As.
package model
