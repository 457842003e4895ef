package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YoSmart-Inc/yolink-api/endpoint"
	"github.com/YoSmart-Inc/yolink-api/logging"
	"github.com/YoSmart-Inc/yolink-api/model"
)

// defaultStateTTL is how long FetchState serves a cached reply.
const defaultStateTTL = 30 * time.Second

// Caller is the slice of the request pipeline a Device needs.
// client.Client implements it.
type Caller interface {
	Call(ctx context.Context, apiURL string, req *model.Request) (*model.Response, error)
}

// Options adjust a Device beyond what its record prescribes.
type Options struct {
	// Endpoint overrides the cloud endpoint derived from the model
	// name. Local hub setups point every device at the hub.
	Endpoint *endpoint.Endpoint

	// StateTTL is how long FetchState serves a cached reply. Zero
	// means the 30 second default; negative disables caching.
	StateTTL time.Duration

	// Logger receives device activity. Defaults to a discard logger.
	Logger *logging.Logger
}

// Device is the handle for one enumerated device. It composes wire
// methods from the device type and stamps the device ID and token into
// every envelope.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Device struct {
	rec    model.DeviceRecord
	ep     endpoint.Endpoint
	caller Caller
	ttl    time.Duration
	log    *logging.Logger

	mu       sync.Mutex
	attrs    map[string]any
	cached   *model.Response
	cachedAt time.Time

	// now is replaced in tests.
	now func() time.Time
}

// New creates a handle for rec. The endpoint defaults to the cloud
// region the hardware model implies.
func New(rec model.DeviceRecord, caller Caller, opts Options) (*Device, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}

	ep := endpoint.ForModel(rec.ModelName)
	if opts.Endpoint != nil {
		ep = *opts.Endpoint
	}

	ttl := opts.StateTTL
	if ttl == 0 {
		ttl = defaultStateTTL
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Device{
		rec:    rec,
		ep:     ep,
		caller: caller,
		ttl:    ttl,
		log:    log.With("component", "device", "device_id", rec.DeviceID),
		now:    time.Now,
	}, nil
}

// ID returns the device ID.
func (d *Device) ID() string { return d.rec.DeviceID }

// Name returns the user-assigned device name.
func (d *Device) Name() string { return d.rec.Name }

// Type returns the device type, e.g. "LeakSensor".
func (d *Device) Type() string { return d.rec.Type }

// ModelName returns the hardware model name.
func (d *Device) ModelName() string { return d.rec.ModelName }

// PairedDeviceID returns the parent device ID, or "" when the device
// has none.
func (d *Device) PairedDeviceID() string { return d.rec.PairedDeviceID() }

// Record returns a copy of the underlying device record.
func (d *Device) Record() model.DeviceRecord { return d.rec }

// Endpoint returns the endpoint this device's requests go to.
func (d *Device) Endpoint() endpoint.Endpoint { return d.ep }

// Attrs returns the device's external-data attributes, or nil when none
// were loaded.
func (d *Device) Attrs() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attrs
}

// SetAttrs replaces the device's external-data attributes.
func (d *Device) SetAttrs(attrs map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attrs = attrs
}

// Invoke calls a device operation. The wire method is the device type
// joined with op ("Outlet" + "getState" -> "Outlet.getState").
func (d *Device) Invoke(ctx context.Context, op string, params map[string]any) (*model.Response, error) {
	if d.rec.Token == "" && RequiresDeviceToken(d.rec.Type) {
		return nil, fmt.Errorf("%w: %s %s", ErrTokenRequired, d.rec.Type, d.rec.DeviceID)
	}

	req := model.NewRequest(d.rec.Type + "." + op).WithTarget(d.rec.DeviceID, d.rec.Token)
	if len(params) > 0 {
		req.AddParams(params)
	}

	return d.caller.Call(ctx, d.ep.URL, req)
}

// Call invokes a built request against the device.
func (d *Device) Call(ctx context.Context, req ClientRequest) (*model.Response, error) {
	return d.Invoke(ctx, req.Op, req.Params)
}

// GetState requests the device's realtime state. Class A devices sleep
// between reports, so this can fail until the device wakes; FetchState
// is the cheap alternative.
func (d *Device) GetState(ctx context.Context) (*model.Response, error) {
	return d.Invoke(ctx, "getState", nil)
}

// FetchState returns the server-side cached state of the device. The
// reply is cached locally for the configured TTL, and state data passes
// through the type's resolver when one is registered.
//
// Callers must treat the returned envelope as read-only; within the TTL
// they share it.
func (d *Device) FetchState(ctx context.Context) (*model.Response, error) {
	d.mu.Lock()
	if d.cached != nil && d.ttl > 0 && d.now().Sub(d.cachedAt) < d.ttl {
		resp := d.cached
		d.mu.Unlock()
		return resp, nil
	}
	d.mu.Unlock()

	resp, err := d.Invoke(ctx, "fetchState", nil)
	if err != nil {
		return nil, err
	}

	if sub, ok := resp.Data["state"].(map[string]any); ok {
		resp.Data["state"] = Resolve(d.rec.Type, sub, d.Attrs())
	}

	d.mu.Lock()
	d.cached = resp
	d.cachedAt = d.now()
	d.mu.Unlock()

	return resp, nil
}

// GetExternalData requests the device's settings and calibration
// attributes.
func (d *Device) GetExternalData(ctx context.Context) (*model.Response, error) {
	return d.Invoke(ctx, "getExternalData", nil)
}

// LoadExternalData fetches external data and stores the extData
// attributes on the handle for resolvers to use. Types without external
// data return immediately.
func (d *Device) LoadExternalData(ctx context.Context) error {
	if !HasExternalData(d.rec.Type) {
		return nil
	}

	resp, err := d.GetExternalData(ctx)
	if err != nil {
		return err
	}

	if attrs, ok := resp.Data["extData"].(map[string]any); ok {
		d.SetAttrs(attrs)
	} else {
		d.log.Debug("external data response carried no extData")
	}
	return nil
}
