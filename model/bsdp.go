package model

// Request is the BSDP envelope POSTed to the API gateway.
//
// Params is always serialised, even when empty, to match the wire shape
// the gateway expects. TargetDevice and Token are omitted entirely for
// home-level methods such as Home.getDeviceList.
type Request struct {
	Method       string         `json:"method"`
	TargetDevice string         `json:"targetDevice,omitempty"`
	Token        string         `json:"token,omitempty"`
	Params       map[string]any `json:"params"`
}

// NewRequest creates a Request for the given API method with an empty
// params object.
func NewRequest(method string) *Request {
	return &Request{
		Method: method,
		Params: map[string]any{},
	}
}

// WithTarget addresses the request at a single device. The token is the
// device-scoped token from the device record, not the account access
// token (that one travels in the Authorization header).
func (r *Request) WithTarget(deviceID, deviceToken string) *Request {
	r.TargetDevice = deviceID
	r.Token = deviceToken
	return r
}

// AddParams merges params into the request's params object, overwriting
// existing keys.
func (r *Request) AddParams(params map[string]any) *Request {
	if r.Params == nil {
		r.Params = map[string]any{}
	}
	for k, v := range params {
		r.Params[k] = v
	}
	return r
}
