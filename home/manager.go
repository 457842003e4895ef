package home

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/YoSmart-Inc/yolink-api/client"
	"github.com/YoSmart-Inc/yolink-api/device"
	"github.com/YoSmart-Inc/yolink-api/endpoint"
	"github.com/YoSmart-Inc/yolink-api/logging"
	"github.com/YoSmart-Inc/yolink-api/model"
	"github.com/YoSmart-Inc/yolink-api/subscriber"
)

const (
	methodGetGeneralInfo = "Home.getGeneralInfo"
	methodGetDeviceList  = "Home.getDeviceList"
)

// dispatchKinds are the event kinds that carry device state and are
// routed to the listener. Everything else (setState acks, unknown
// kinds) is dropped.
var dispatchKinds = map[string]bool{
	"Report":       true,
	"Alert":        true,
	"StatusChange": true,
	"getState":     true,
}

// Listener receives resolved device events.
type Listener interface {
	OnMessage(dev *device.Device, data map[string]any)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(dev *device.Device, data map[string]any)

// OnMessage calls fn.
func (fn ListenerFunc) OnMessage(dev *device.Device, data map[string]any) {
	fn(dev, data)
}

// AuthManager is what the manager needs from an authentication
// manager: fresh tokens for the HTTP pipeline and the broker, and
// invalidation when either rejects one. auth.Manager satisfies it.
type AuthManager interface {
	EnsureFresh(ctx context.Context) (string, error)
	Invalidate(stale string)
}

// Caller is the slice of the request pipeline the manager needs.
// client.Client implements it.
type Caller interface {
	Call(ctx context.Context, apiURL string, req *model.Request) (*model.Response, error)
}

// Config carries the settings for a Manager.
type Config struct {
	// Auth supplies and refreshes the account access token. Required.
	Auth AuthManager

	// Caller overrides the request pipeline. Defaults to a
	// client.Client built over Auth.
	Caller Caller

	// Endpoint selects the API surface. Defaults to the US cloud.
	// When set explicitly (EU cloud or a local hub) every device
	// handle is pinned to it; when left nil devices pick their
	// region from the hardware model.
	Endpoint *endpoint.Endpoint

	// Topic overrides the report subscription. Local hubs set this
	// to subscriber.LocalTopic(netID); when empty the manager
	// resolves the home ID during Setup and subscribes to its cloud
	// topic.
	Topic string

	// StateTTL is handed to every device handle. Zero keeps the
	// handle default.
	StateTTL time.Duration

	// MaxReconnects, the reconnect delays, OnStatus and OnError pass
	// through to the subscriber.
	MaxReconnects         int
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	OnStatus              subscriber.StatusHandler
	OnError               func(err error)

	// Logger receives manager, pipeline and subscription activity.
	// Defaults to logging.Default().
	Logger *logging.Logger
}

// Manager is the home façade.
type Manager struct {
	cfg    Config
	caller Caller
	ep     endpoint.Endpoint
	log    *logging.Logger

	mu       sync.Mutex
	started  bool
	homeID   string
	devices  map[string]*device.Device
	order    []string
	sub      *subscriber.Subscriber
	listener Listener
}

// New creates a Manager from cfg. Nothing talks to the network until
// Setup.
func New(cfg Config) (*Manager, error) {
	if cfg.Auth == nil {
		return nil, ErrNilAuth
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	caller := cfg.Caller
	if caller == nil {
		c, err := client.New(client.Config{Auth: cfg.Auth, Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
		caller = c
	}

	ep := endpoint.US()
	if cfg.Endpoint != nil {
		ep = *cfg.Endpoint
	}

	return &Manager{
		cfg:    cfg,
		caller: caller,
		ep:     ep,
		log:    cfg.Logger.With("component", "home"),
	}, nil
}

// Setup authenticates, enumerates the home's devices and starts the
// report subscription bound to listener. The subscription runs until
// ctx is cancelled or Unload is called. Setup fails fast: any step
// failing leaves nothing running.
func (m *Manager) Setup(ctx context.Context, listener Listener) error {
	if listener == nil {
		return ErrNilListener
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadySetup
	}
	m.started = true
	m.mu.Unlock()

	if err := m.setup(ctx, listener); err != nil {
		m.mu.Lock()
		m.started = false
		m.listener = nil
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) setup(ctx context.Context, listener Listener) error {
	topic := m.cfg.Topic
	if topic == "" {
		if _, err := m.HomeInfo(ctx); err != nil {
			return fmt.Errorf("resolving home: %w", err)
		}
		homeID := m.HomeID()
		if homeID == "" {
			return ErrNoHomeID
		}
		topic = subscriber.CloudTopic(homeID)
	}

	devices, err := m.LoadDevices(ctx)
	if err != nil {
		return fmt.Errorf("enumerating devices: %w", err)
	}
	m.log.Info("home ready", "devices", len(devices), "recv_topic", topic)

	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	sub, err := subscriber.New(subscriber.Config{
		BrokerURL:             m.ep.BrokerAddr(),
		Topic:                 topic,
		OnMessage:             m.dispatch,
		OnStatus:              m.cfg.OnStatus,
		OnError:               m.cfg.OnError,
		Auth:                  m.cfg.Auth,
		MaxReconnects:         m.cfg.MaxReconnects,
		ReconnectInitialDelay: m.cfg.ReconnectInitialDelay,
		ReconnectMaxDelay:     m.cfg.ReconnectMaxDelay,
		Logger:                m.cfg.Logger,
	})
	if err != nil {
		return err
	}
	if err := sub.Start(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()
	return nil
}

// Unload stops the subscription and releases the device set. It is
// idempotent, and the manager can be set up again afterwards.
func (m *Manager) Unload() error {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.listener = nil
	m.devices = nil
	m.order = nil
	m.started = false
	m.mu.Unlock()

	if sub == nil {
		return nil
	}
	m.log.Info("home unloading")
	return sub.Stop()
}

// HomeID returns the home identifier resolved during Setup, or "" when
// it has not been fetched (topic overrides skip it).
func (m *Manager) HomeID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.homeID
}

// HomeInfo fetches the home's general information and caches the home
// ID from it.
func (m *Manager) HomeInfo(ctx context.Context) (*model.Response, error) {
	resp, err := m.caller.Call(ctx, m.ep.URL, model.NewRequest(methodGetGeneralInfo))
	if err != nil {
		return nil, err
	}
	if id, ok := resp.Data["id"].(string); ok && id != "" {
		m.mu.Lock()
		m.homeID = id
		m.mu.Unlock()
	}
	return resp, nil
}

// LoadDevices enumerates the home's devices and replaces the device
// set wholesale. Devices with external calibration data get it loaded
// best-effort; a device whose attributes cannot be fetched still
// appears in the set.
func (m *Manager) LoadDevices(ctx context.Context) ([]*device.Device, error) {
	resp, err := m.caller.Call(ctx, m.ep.URL, model.NewRequest(methodGetDeviceList))
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords(resp)
	if err != nil {
		return nil, err
	}

	opts := device.Options{
		Endpoint: m.cfg.Endpoint,
		StateTTL: m.cfg.StateTTL,
		Logger:   m.cfg.Logger,
	}

	devices := make(map[string]*device.Device, len(records))
	order := make([]string, 0, len(records))
	list := make([]*device.Device, 0, len(records))
	for _, rec := range records {
		dev, err := device.New(rec, m.caller, opts)
		if err != nil {
			return nil, err
		}
		if device.HasExternalData(rec.Type) {
			if err := dev.LoadExternalData(ctx); err != nil {
				m.log.Warn("loading device attributes failed",
					"device_id", rec.DeviceID,
					"device_type", rec.Type,
					"error", err)
			}
		}
		devices[rec.DeviceID] = dev
		order = append(order, rec.DeviceID)
		list = append(list, dev)
	}

	m.mu.Lock()
	m.devices = devices
	m.order = order
	m.mu.Unlock()

	m.log.Debug("device set replaced", "devices", len(list))
	return list, nil
}

// Device returns the handle for a device ID.
func (m *Manager) Device(deviceID string) (*device.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dev, ok := m.devices[deviceID]
	return dev, ok
}

// Devices returns the device handles in enumeration order.
func (m *Manager) Devices() []*device.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*device.Device, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.devices[id])
	}
	return out
}

// SubscriptionStatus reports the subscriber's lifecycle state, or
// Disconnected when no subscription exists.
func (m *Manager) SubscriptionStatus() subscriber.Status {
	m.mu.Lock()
	sub := m.sub
	m.mu.Unlock()
	if sub == nil {
		return subscriber.StatusDisconnected
	}
	return sub.Status()
}

// dispatch routes one report to the listener.
func (m *Manager) dispatch(deviceID string, report *model.Response) {
	if report.Event == "" {
		return
	}
	if !dispatchKinds[report.EventKind()] {
		m.log.Debug("ignoring event", "event", report.Event, "device_id", deviceID)
		return
	}

	m.mu.Lock()
	dev := m.devices[deviceID]
	listener := m.listener
	m.mu.Unlock()

	if dev == nil {
		m.log.Debug("report for unknown device", "device_id", deviceID)
		return
	}
	if listener == nil {
		return
	}

	listener.OnMessage(dev, device.Resolve(dev.Type(), report.Data, dev.Attrs()))
}

// decodeRecords pulls the device records out of a getDeviceList reply.
func decodeRecords(resp *model.Response) ([]model.DeviceRecord, error) {
	rawDevices, ok := resp.Data["devices"]
	if !ok {
		return nil, nil
	}
	raw, err := json.Marshal(rawDevices)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDeviceList, err)
	}
	var records []model.DeviceRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDeviceList, err)
	}
	return records, nil
}
