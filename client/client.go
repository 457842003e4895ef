package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/YoSmart-Inc/yolink-api/logging"
	"github.com/YoSmart-Inc/yolink-api/model"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultHTTPTimeout    = 10 * time.Second

	// maxErrorBodyLen bounds how much of a failure body lands in error
	// messages and logs.
	maxErrorBodyLen = 256
)

// TokenSource supplies access tokens for outgoing requests. auth.Manager
// implements it.
type TokenSource interface {
	// EnsureFresh returns a token valid for the near future, refreshing
	// if needed.
	EnsureFresh(ctx context.Context) (string, error)

	// Invalidate drops the token if it is still the current one, so the
	// next EnsureFresh performs a fresh exchange.
	Invalidate(stale string)
}

// Config holds the settings for a Client.
type Config struct {
	// Auth supplies and invalidates access tokens. Required.
	Auth TokenSource

	// HTTPClient performs the exchanges. Defaults to a client with a
	// 10 second timeout.
	HTTPClient *http.Client

	// MaxAttempts is the total attempt budget for transient failures,
	// including the first try. Defaults to 3.
	MaxAttempts uint64

	// InitialBackoff is the first retry delay. Defaults to 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the retry delay. Defaults to 5s.
	MaxBackoff time.Duration

	// Logger receives request activity. Defaults to a discard logger.
	Logger *logging.Logger
}

// Client posts BSDP envelopes to a YoLink API gateway and decodes the
// BRDP replies.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	auth        TokenSource
	http        *http.Client
	maxAttempts uint64
	initial     time.Duration
	max         time.Duration
	log         *logging.Logger
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Auth == nil {
		return nil, ErrNoAuth
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	return &Client{
		auth:        cfg.Auth,
		http:        cfg.HTTPClient,
		maxAttempts: cfg.MaxAttempts,
		initial:     cfg.InitialBackoff,
		max:         cfg.MaxBackoff,
		log:         cfg.Logger.With("component", "client"),
	}, nil
}

// Call sends req to the gateway at apiURL and returns the decoded
// reply.
//
// Transient failures are retried with exponential backoff within the
// attempt budget. A 401 triggers exactly one token refresh and rerun.
// API-level rejections come back as *model.DeviceError.
func (c *Client) Call(ctx context.Context, apiURL string, req *model.Request) (*model.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrRequestFailed, err)
	}

	c.log.Debug("api call", "method", req.Method, "target", req.TargetDevice)

	refreshed := false
	for {
		resp, err := c.callWithRetry(ctx, apiURL, req.Method, body)
		if err == nil {
			return resp, nil
		}

		if errors.Is(err, errTokenRejected) {
			if refreshed {
				return nil, fmt.Errorf("%w: method %s", ErrUnauthorized, req.Method)
			}
			// The rejected token is already invalidated; rerun with
			// whatever EnsureFresh obtains next.
			refreshed = true
			c.log.Debug("token rejected, retrying with fresh token", "method", req.Method)
			continue
		}

		return nil, err
	}
}

// callWithRetry runs single exchanges under the transient-failure
// backoff policy.
func (c *Client) callWithRetry(ctx context.Context, apiURL, method string, body []byte) (*model.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initial
	bo.MaxInterval = c.max
	bo.MaxElapsedTime = 0 // bounded by attempts and ctx

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxAttempts-1), ctx)

	notify := func(err error, delay time.Duration) {
		c.log.Warn("api call retrying", "method", method, "delay", delay, "error", err)
	}

	return backoff.RetryNotifyWithData(func() (*model.Response, error) {
		return c.once(ctx, apiURL, body)
	}, policy, notify)
}

// once performs a single authenticated exchange and classifies the
// outcome: a plain error means retryable, backoff.Permanent means
// terminal.
func (c *Client) once(ctx context.Context, apiURL string, body []byte) (*model.Response, error) {
	tok, err := c.auth.EnsureFresh(ctx)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrRequestFailed, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrRequestFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.auth.Invalidate(tok)
		return nil, backoff.Permanent(errTokenRejected)

	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, trimBody(raw))

	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, trimBody(raw)))
	}

	var envelope model.Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}

	if err := envelope.Check(); err != nil {
		return nil, backoff.Permanent(err)
	}

	return &envelope, nil
}

// trimBody makes a failure body safe for error messages.
func trimBody(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBodyLen {
		s = s[:maxErrorBodyLen] + "..."
	}
	return s
}
