package subscriber

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YoSmart-Inc/yolink-api/logging"
	"github.com/YoSmart-Inc/yolink-api/model"
)

// ===== Test Helpers =====

type stubTokenSource struct {
	mu          sync.Mutex
	token       string
	err         error
	ensures     int
	invalidated []string
}

func (f *stubTokenSource) EnsureFresh(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensures++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *stubTokenSource) Invalidate(stale string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, stale)
}

func (f *stubTokenSource) ensureCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensures
}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *statusRecorder) record(st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, st)
}

func (r *statusRecorder) seen(st Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.statuses {
		if s == st {
			return true
		}
	}
	return false
}

type reportRecorder struct {
	mu      sync.Mutex
	devices []string
	reports []*model.Response
}

func (r *reportRecorder) handle(deviceID string, report *model.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, deviceID)
	r.reports = append(r.reports, report)
}

func (r *reportRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

func testConfig(auth TokenSource, onMessage MessageHandler) Config {
	if onMessage == nil {
		onMessage = func(string, *model.Response) {}
	}
	return Config{
		BrokerURL:             "tcp://127.0.0.1:1",
		Topic:                 CloudTopic("home-1"),
		OnMessage:             onMessage,
		Auth:                  auth,
		ReconnectInitialDelay: 5 * time.Millisecond,
		ReconnectMaxDelay:     20 * time.Millisecond,
		ConnectTimeout:        250 * time.Millisecond,
		Logger:                logging.Discard(),
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// ===== Topics =====

func TestCloudTopic(t *testing.T) {
	got := CloudTopic("3fa85f64")
	want := "yl-home/3fa85f64/+/report"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLocalTopic(t *testing.T) {
	got := LocalTopic("subnet9")
	want := "ylsubnet/subnet9/+/report"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseReportTopic(t *testing.T) {
	tests := []struct {
		name   string
		topic  string
		wantID string
		wantOK bool
	}{
		{
			name:   "cloud report topic",
			topic:  "yl-home/home-1/d88b4c0100123456/report",
			wantID: "d88b4c0100123456",
			wantOK: true,
		},
		{
			name:   "local report topic",
			topic:  "ylsubnet/net-1/dev-7/report",
			wantID: "dev-7",
			wantOK: true,
		},
		{
			name:   "wrong suffix",
			topic:  "yl-home/home-1/dev-7/status",
			wantOK: false,
		},
		{
			name:   "too few segments",
			topic:  "yl-home/home-1/report",
			wantOK: false,
		},
		{
			name:   "too many segments",
			topic:  "yl-home/home-1/dev-7/extra/report",
			wantOK: false,
		},
		{
			name:   "empty topic",
			topic:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseReportTopic(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("device ID = %q, want %q", id, tt.wantID)
			}
		})
	}
}

// ===== Client IDs =====

func TestNewClientIDShape(t *testing.T) {
	id := NewClientID()
	if len(id) != clientIDLength {
		t.Fatalf("length = %d, want %d", len(id), clientIDLength)
	}
	for i, r := range id {
		if !strings.ContainsRune(clientIDAlphabet, r) {
			t.Errorf("character %d (%q) outside base62 alphabet", i, r)
		}
	}
}

func TestNewClientIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := NewClientID()
		if seen[id] {
			t.Fatalf("duplicate client ID %q after %d generations", id, i)
		}
		seen[id] = true
	}
}

// ===== Configuration =====

func TestConfigValidate(t *testing.T) {
	valid := testConfig(&stubTokenSource{token: "tok"}, nil)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		wantMsg string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing broker URL",
			mutate:  func(c *Config) { c.BrokerURL = "" },
			wantErr: true,
			wantMsg: "broker URL",
		},
		{
			name:    "missing topic",
			mutate:  func(c *Config) { c.Topic = "" },
			wantErr: true,
			wantMsg: "topic",
		},
		{
			name:    "missing message handler",
			mutate:  func(c *Config) { c.OnMessage = nil },
			wantErr: true,
			wantMsg: "message handler",
		},
		{
			name:    "missing token source",
			mutate:  func(c *Config) { c.Auth = nil },
			wantErr: true,
			wantMsg: "token source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewGeneratesClientID(t *testing.T) {
	sub, err := New(testConfig(&stubTokenSource{token: "tok"}, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := len(sub.ClientID()); got != clientIDLength {
		t.Errorf("generated client ID length = %d, want %d", got, clientIDLength)
	}
}

func TestNewKeepsExplicitClientID(t *testing.T) {
	cfg := testConfig(&stubTokenSource{token: "tok"}, nil)
	cfg.ClientID = "fixed-client"
	sub, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := sub.ClientID(); got != "fixed-client" {
		t.Errorf("client ID = %q, want %q", got, "fixed-client")
	}
}

// ===== Message Handling =====

func TestHandleMessageDelivers(t *testing.T) {
	rec := &reportRecorder{}
	sub, err := New(testConfig(&stubTokenSource{token: "tok"}, rec.handle))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	payload := []byte(`{"event":"LeakSensor.Alert","data":{"state":"alert"}}`)
	sub.handleMessage("yl-home/home-1/dev-9/report", payload)

	if rec.count() != 1 {
		t.Fatalf("delivered %d reports, want 1", rec.count())
	}
	if rec.devices[0] != "dev-9" {
		t.Errorf("device ID = %q, want %q", rec.devices[0], "dev-9")
	}
	if rec.reports[0].Event != "LeakSensor.Alert" {
		t.Errorf("event = %q, want %q", rec.reports[0].Event, "LeakSensor.Alert")
	}
	if got := rec.reports[0].Data["state"]; got != "alert" {
		t.Errorf("data state = %v, want %q", got, "alert")
	}
}

func TestHandleMessageDropsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{
			name:    "unexpected topic shape",
			topic:   "yl-home/home-1/dev-9/status",
			payload: `{"event":"Hub.Report"}`,
		},
		{
			name:    "undecodable payload",
			topic:   "yl-home/home-1/dev-9/report",
			payload: `{not json`,
		},
		{
			name:    "non-object payload",
			topic:   "yl-home/home-1/dev-9/report",
			payload: `"hello"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &reportRecorder{}
			sub, err := New(testConfig(&stubTokenSource{token: "tok"}, rec.handle))
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			sub.handleMessage(tt.topic, []byte(tt.payload))
			if rec.count() != 0 {
				t.Errorf("delivered %d reports, want 0", rec.count())
			}
		})
	}
}

func TestHandleMessageKeepsOrderAroundDrops(t *testing.T) {
	rec := &reportRecorder{}
	sub, err := New(testConfig(&stubTokenSource{token: "tok"}, rec.handle))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sub.handleMessage("yl-home/home-1/dev-1/report", []byte(`{"event":"THSensor.Report"}`))
	sub.handleMessage("yl-home/home-1/dev-2/report", []byte(`not json at all`))
	sub.handleMessage("yl-home/home-1/dev-3/report", []byte(`{"event":"DoorSensor.Alert"}`))

	if rec.count() != 2 {
		t.Fatalf("delivered %d reports, want 2", rec.count())
	}
	if rec.devices[0] != "dev-1" || rec.devices[1] != "dev-3" {
		t.Errorf("delivery order = %v, want [dev-1 dev-3]", rec.devices)
	}
}

// ===== Lifecycle =====

func TestStopBeforeStart(t *testing.T) {
	sub, err := New(testConfig(&stubTokenSource{token: "tok"}, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := sub.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := sub.Status(); got != StatusStopped {
		t.Errorf("status = %q, want %q", got, StatusStopped)
	}
	if err := sub.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after Stop = %v, want ErrStopped", err)
	}
}

func TestStartTwiceFails(t *testing.T) {
	sub, err := New(testConfig(&stubTokenSource{token: "tok"}, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sub.Stop()

	if err := sub.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sub, err := New(testConfig(&stubTokenSource{token: "tok"}, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := sub.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := sub.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if got := sub.Status(); got != StatusStopped {
		t.Errorf("status = %q, want %q", got, StatusStopped)
	}
}

func TestRetriesWhileBrokerUnreachable(t *testing.T) {
	// Port 1 refuses connections immediately, so each cycle fails
	// fast and the loop keeps retrying with backoff.
	auth := &stubTokenSource{token: "tok"}
	rec := &statusRecorder{}
	cfg := testConfig(auth, nil)
	cfg.OnStatus = rec.record

	sub, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return auth.ensureCalls() >= 2 }) {
		t.Fatalf("expected repeated connect attempts, got %d", auth.ensureCalls())
	}
	if !rec.seen(StatusConnecting) {
		t.Error("never observed connecting status")
	}
	if !rec.seen(StatusDisconnected) {
		t.Error("never observed disconnected status between retries")
	}

	if err := sub.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := sub.Status(); got != StatusStopped {
		t.Errorf("status = %q, want %q", got, StatusStopped)
	}
}

func TestRetriesWhenTokenUnavailable(t *testing.T) {
	// Token failures are treated like any other connect failure: the
	// loop backs off and tries again rather than giving up.
	auth := &stubTokenSource{err: errors.New("oauth backend down")}
	sub, err := New(testConfig(auth, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return auth.ensureCalls() >= 3 }) {
		t.Fatalf("expected repeated token attempts, got %d", auth.ensureCalls())
	}
	if err := sub.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestReconnectCeilingStopsLoop(t *testing.T) {
	auth := &stubTokenSource{token: "tok"}

	var mu sync.Mutex
	var terminal error
	cfg := testConfig(auth, nil)
	cfg.MaxReconnects = 2
	cfg.OnError = func(err error) {
		mu.Lock()
		terminal = err
		mu.Unlock()
	}

	sub, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !waitFor(t, 5*time.Second, func() bool { return sub.Status() == StatusStopped }) {
		t.Fatalf("status = %q, want %q after exhausting retries", sub.Status(), StatusStopped)
	}
	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(terminal, ErrRetriesExhausted) {
		t.Errorf("terminal error = %v, want ErrRetriesExhausted", terminal)
	}
	if got := auth.ensureCalls(); got != 2 {
		t.Errorf("connect attempts = %d, want 2", got)
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	auth := &stubTokenSource{token: "tok"}
	sub, err := New(testConfig(auth, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := sub.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	if !waitFor(t, 3*time.Second, func() bool { return sub.Status() == StatusStopped }) {
		t.Fatalf("status = %q, want %q after context cancel", sub.Status(), StatusStopped)
	}
}
