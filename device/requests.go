package device

import "fmt"

// Device states used by setState operations.
const (
	StateOpen  = "open"
	StateClose = "close"
	StateOn    = "on"
	StateOff   = "off"
)

// NewStateRequest builds a plain setState request, which most powered
// types (Switch, Siren, Manipulator) accept as-is.
func NewStateRequest(state string) ClientRequest {
	return ClientRequest{
		Op:     "setState",
		Params: map[string]any{"state": state},
	}
}

// NewOutletStateRequest builds a setState request for outlets. For a
// MultiOutlet, plugIndex selects the plug (0-based); the wire encodes
// it as the channel bitmask 1<<plugIndex. Pass a negative plugIndex for
// single outlets.
func NewOutletStateRequest(state string, plugIndex int) ClientRequest {
	params := map[string]any{"state": state}
	if plugIndex >= 0 {
		params["chs"] = 1 << plugIndex
	}
	return ClientRequest{Op: "setState", Params: params}
}

// ThermostatState is the settable slice of a thermostat's state. Nil
// fields are left untouched by the device.
type ThermostatState struct {
	LowTemp  *float64 `json:"lowTemp,omitempty"`
	HighTemp *float64 `json:"highTemp,omitempty"`
	Mode     *string  `json:"mode,omitempty"`
	Fan      *string  `json:"fan,omitempty"`
	Sche     *string  `json:"sche,omitempty"`
}

// NewThermostatStateRequest builds a setState request carrying only the
// fields set in st.
func NewThermostatStateRequest(st ThermostatState) ClientRequest {
	params := map[string]any{}
	if st.LowTemp != nil {
		params["lowTemp"] = *st.LowTemp
	}
	if st.HighTemp != nil {
		params["highTemp"] = *st.HighTemp
	}
	if st.Mode != nil {
		params["mode"] = *st.Mode
	}
	if st.Fan != nil {
		params["fan"] = *st.Fan
	}
	if st.Sche != nil {
		params["sche"] = *st.Sche
	}
	return ClientRequest{Op: "setState", Params: params}
}

// NewThermostatECORequest builds a setECO request toggling eco mode.
func NewThermostatECORequest(mode string) ClientRequest {
	return ClientRequest{
		Op:     "setECO",
		Params: map[string]any{"mode": mode},
	}
}

// Dynamic builders for the same requests, registered for CLI-style
// callers that work with string-keyed arguments.

func buildSetState(args map[string]any) (ClientRequest, error) {
	state, ok := args["state"].(string)
	if !ok || state == "" {
		return ClientRequest{}, fmt.Errorf("device: setState requires a state argument")
	}
	return NewStateRequest(state), nil
}

func buildOutletSetState(args map[string]any) (ClientRequest, error) {
	state, ok := args["state"].(string)
	if !ok || state == "" {
		return ClientRequest{}, fmt.Errorf("device: setState requires a state argument")
	}
	plugIndex := -1
	if v, ok := args["plugIndex"]; ok {
		idx, ok := toInt(v)
		if !ok || idx < 0 {
			return ClientRequest{}, fmt.Errorf("device: plugIndex must be a non-negative integer")
		}
		plugIndex = idx
	}
	return NewOutletStateRequest(state, plugIndex), nil
}

func buildThermostatSetState(args map[string]any) (ClientRequest, error) {
	var st ThermostatState
	if v, ok := args["lowTemp"]; ok {
		f, ok := toFloat(v)
		if !ok {
			return ClientRequest{}, fmt.Errorf("device: lowTemp must be a number")
		}
		st.LowTemp = &f
	}
	if v, ok := args["highTemp"]; ok {
		f, ok := toFloat(v)
		if !ok {
			return ClientRequest{}, fmt.Errorf("device: highTemp must be a number")
		}
		st.HighTemp = &f
	}
	if v, ok := args["mode"].(string); ok {
		st.Mode = &v
	}
	if v, ok := args["fan"].(string); ok {
		st.Fan = &v
	}
	if v, ok := args["sche"].(string); ok {
		st.Sche = &v
	}
	return NewThermostatStateRequest(st), nil
}

func buildThermostatSetECO(args map[string]any) (ClientRequest, error) {
	mode, ok := args["mode"].(string)
	if !ok || mode == "" {
		return ClientRequest{}, fmt.Errorf("device: setECO requires a mode argument")
	}
	return NewThermostatECORequest(mode), nil
}

func init() {
	mustRegisterBuilder(TypeOutlet, "setState", buildOutletSetState)
	mustRegisterBuilder(TypeMultiOutlet, "setState", buildOutletSetState)
	mustRegisterBuilder(TypeSwitch, "setState", buildSetState)
	mustRegisterBuilder(TypeSiren, "setState", buildSetState)
	mustRegisterBuilder(TypeManipulator, "setState", buildSetState)
	mustRegisterBuilder(TypeThermostat, "setState", buildThermostatSetState)
	mustRegisterBuilder(TypeThermostat, "setECO", buildThermostatSetECO)
}

func mustRegisterBuilder(deviceType, op string, fn BuilderFunc) {
	if err := RegisterBuilder(deviceType, op, fn); err != nil {
		panic(err)
	}
}
