package subscriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/goccy/go-json"

	"github.com/YoSmart-Inc/yolink-api/logging"
	"github.com/YoSmart-Inc/yolink-api/model"
)

// Subscriber owns one report subscription and the reconnect loop that
// keeps it alive.
type Subscriber struct {
	cfg Config
	log *logging.Logger

	mu      sync.Mutex
	status  Status
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// session holds the per-cycle connection state. A new one is built for
// every connect attempt so a stale client can never leak callbacks
// into the next cycle.
type session struct {
	client pahomqtt.Client
	msgs   chan pahomqtt.Message
	lost   chan error
	done   chan struct{}
}

// New validates cfg, fills in defaults and returns an idle Subscriber.
// Nothing connects until Start.
func New(cfg Config) (*Subscriber, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Subscriber{
		cfg:    cfg,
		log:    cfg.Logger.With("component", "subscriber"),
		status: StatusDisconnected,
	}, nil
}

// ClientID returns the MQTT client identifier this subscriber connects
// with.
func (s *Subscriber) ClientID() string {
	return s.cfg.ClientID
}

// Status returns the current lifecycle state.
func (s *Subscriber) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start launches the connect loop in a background goroutine. It
// returns ErrAlreadyStarted if the loop is already running and
// ErrStopped if the subscriber was stopped. Cancelling ctx shuts the
// loop down the same way Stop does.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusStopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.log.Info("subscriber starting",
		"broker", s.cfg.BrokerURL,
		"recv_topic", s.cfg.Topic,
		"client_id", s.cfg.ClientID)
	go s.run(runCtx, done)
	return nil
}

// Stop shuts the subscriber down and waits for the run loop to exit.
// It is idempotent; calling Stop before Start marks the subscriber
// stopped so it can never start later.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	if s.status == StatusStopped {
		s.mu.Unlock()
		return nil
	}
	if !s.running {
		s.status = StatusStopped
		s.mu.Unlock()
		s.notify(StatusStopped)
		return nil
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-time.After(s.cfg.StopTimeout):
		return ErrStopTimeout
	}
}

// run is the connect-subscribe-pump loop. It exits only when ctx ends.
func (s *Subscriber) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.setStatus(StatusStopped)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.ReconnectInitialDelay
	bo.MaxInterval = s.cfg.ReconnectMaxDelay
	bo.MaxElapsedTime = 0
	bo.Reset()

	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}
		s.setStatus(StatusConnecting)

		sess, err := s.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			if s.cfg.MaxReconnects > 0 && failures >= s.cfg.MaxReconnects {
				err := fmt.Errorf("%w: %d attempts, last: %w",
					ErrRetriesExhausted, failures, err)
				s.log.Error("giving up on broker connection", "error", err)
				if s.cfg.OnError != nil {
					s.cfg.OnError(err)
				}
				return
			}
			delay := bo.NextBackOff()
			s.log.Warn("broker connection failed",
				"error", err,
				"retry_in", delay.String())
			s.setStatus(StatusDisconnected)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		failures = 0
		bo.Reset()
		s.setStatus(StatusSubscribed)
		s.log.Info("subscribed to device reports", "recv_topic", s.cfg.Topic)

		s.pump(ctx, sess)

		close(sess.done)
		sess.client.Disconnect(disconnectQuiesce)
		s.setStatus(StatusDisconnected)

		if ctx.Err() != nil {
			return
		}
		s.log.Info("broker connection closed, reconnecting")
	}
}

// connect ensures a fresh access token, dials the broker and
// subscribes to the report topic. A broker refusal for bad credentials
// invalidates the token so the next cycle fetches a new one.
func (s *Subscriber) connect(ctx context.Context) (*session, error) {
	tok, err := s.cfg.Auth.EnsureFresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	sess := &session{
		msgs: make(chan pahomqtt.Message, 64),
		lost: make(chan error, 1),
		done: make(chan struct{}),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(s.cfg.BrokerURL).
		SetClientID(s.cfg.ClientID).
		SetUsername(tok).
		SetPassword("").
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetKeepAlive(s.cfg.KeepAlive).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetConnectionLostHandler(func(_ pahomqtt.Client, cause error) {
			select {
			case sess.lost <- cause:
			default:
			}
		})

	sess.client = pahomqtt.NewClient(opts)

	ct := sess.client.Connect()
	if !ct.WaitTimeout(s.cfg.ConnectTimeout) {
		sess.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %s", ErrConnectFailed, s.cfg.ConnectTimeout)
	}
	if err := ct.Error(); err != nil {
		if errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword) ||
			errors.Is(err, packets.ErrorRefusedNotAuthorised) {
			s.log.Warn("broker rejected access token", "error", err)
			s.cfg.Auth.Invalidate(tok)
		}
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	// The subscription is re-established on every connect. The broker
	// does not persist sessions for report consumers, so skipping it
	// after a reconnect would silently stop delivery.
	handler := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		select {
		case sess.msgs <- msg:
		case <-sess.done:
		}
	}
	st := sess.client.Subscribe(s.cfg.Topic, subscribeQoS, handler)
	if !st.WaitTimeout(s.cfg.ConnectTimeout) {
		close(sess.done)
		sess.client.Disconnect(disconnectQuiesce)
		return nil, fmt.Errorf("%w: timeout after %s", ErrSubscribeFailed, s.cfg.ConnectTimeout)
	}
	if err := st.Error(); err != nil {
		close(sess.done)
		sess.client.Disconnect(disconnectQuiesce)
		return nil, fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return sess, nil
}

// pump delivers messages until the connection drops or ctx ends.
func (s *Subscriber) pump(ctx context.Context, sess *session) {
	for {
		select {
		case <-ctx.Done():
			return
		case cause := <-sess.lost:
			s.log.Warn("broker connection lost", "error", cause)
			return
		case msg := <-sess.msgs:
			s.handleMessage(msg.Topic(), msg.Payload())
		}
	}
}

// handleMessage decodes one report and hands it to the configured
// handler. Malformed topics and payloads are dropped; one bad publish
// must not take the subscription down.
func (s *Subscriber) handleMessage(topic string, payload []byte) {
	deviceID, ok := ParseReportTopic(topic)
	if !ok {
		s.log.Debug("ignoring message on unexpected topic", "recv_topic", topic)
		return
	}
	var report model.Response
	if err := json.Unmarshal(payload, &report); err != nil {
		s.log.Warn("dropping undecodable report",
			"device_id", deviceID,
			"error", err)
		return
	}
	s.cfg.OnMessage(deviceID, &report)
}

func (s *Subscriber) setStatus(st Status) {
	s.mu.Lock()
	if s.status == StatusStopped && st != StatusStopped {
		s.mu.Unlock()
		return
	}
	changed := s.status != st
	s.status = st
	s.mu.Unlock()
	if changed {
		s.notify(st)
	}
}

func (s *Subscriber) notify(st Status) {
	if s.cfg.OnStatus != nil {
		s.cfg.OnStatus(st)
	}
}
