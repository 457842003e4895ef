package model

import "strings"

// DeviceRecord is one entry of the Home.getDeviceList response.
type DeviceRecord struct {
	DeviceID       string `json:"deviceId"`
	Name           string `json:"name"`
	Token          string `json:"token"`
	Type           string `json:"type"`
	ModelName      string `json:"modelName"`
	ParentDeviceID string `json:"parentDeviceId"`
	ServiceZone    string `json:"serviceZone,omitempty"`
}

// PairedDeviceID returns the parent device ID, or "" when the device
// has none. The gateway encodes "no parent" as the literal string
// "null".
func (d DeviceRecord) PairedDeviceID() string {
	if d.ParentDeviceID == "" || d.ParentDeviceID == "null" {
		return ""
	}
	return d.ParentDeviceID
}

// EURegion reports whether the device is homed on the EU gateway.
// EU hardware carries an "-EC" model name suffix.
func (d DeviceRecord) EURegion() bool {
	return strings.HasSuffix(d.ModelName, "-EC")
}
