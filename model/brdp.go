package model

import "strings"

// Response is the BRDP envelope returned by the API gateway and carried
// in MQTT report payloads.
//
// Request/response exchanges populate Code, Desc and Method. Pushed
// event messages populate Event instead (e.g. "LeakSensor.Alert") and
// leave Code empty.
type Response struct {
	Code   string         `json:"code"`
	Desc   string         `json:"desc"`
	Method string         `json:"method"`
	Data   map[string]any `json:"data"`
	Event  string         `json:"event"`
}

// Success reports whether the gateway answered with CodeSuccess.
func (r *Response) Success() bool {
	return r.Code == CodeSuccess
}

// Check returns nil for a successful response and a *DeviceError
// carrying the gateway's code and description otherwise.
func (r *Response) Check() error {
	if r.Success() {
		return nil
	}
	return &DeviceError{Code: r.Code, Desc: r.Desc}
}

// EventKind returns the part of the event name after the device type,
// e.g. "Alert" for "LeakSensor.Alert". It returns the whole event name
// when there is no dot, and "" for non-event responses.
func (r *Response) EventKind() string {
	if r.Event == "" {
		return ""
	}
	if i := strings.LastIndex(r.Event, "."); i >= 0 {
		return r.Event[i+1:]
	}
	return r.Event
}
