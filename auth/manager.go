package auth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/YoSmart-Inc/yolink-api/logging"
)

const (
	// defaultRefreshMargin is how long before expiry a token is treated
	// as stale and refreshed.
	defaultRefreshMargin = 5 * time.Minute

	// defaultTokenLifetime applies when the token response omits
	// expires_in. The cloud issues two-hour tokens.
	defaultTokenLifetime = 7200 * time.Second

	// defaultHTTPTimeout bounds a token exchange when the caller's
	// context carries no deadline of its own.
	defaultHTTPTimeout = 10 * time.Second
)

// Config holds the settings for a Manager.
type Config struct {
	// ClientID and ClientSecret are the UAC credentials issued by the
	// YoLink app.
	ClientID     string
	ClientSecret string

	// TokenURL is the token endpoint. Defaults to the US cloud
	// endpoint; local hubs use endpoint.Local(host).TokenURL.
	TokenURL string

	// Scope is sent with the exchange when non-empty. The cloud wants
	// no scope; local hubs require "create".
	Scope string

	// RefreshMargin is how long before expiry EnsureFresh refreshes.
	// Defaults to 5 minutes.
	RefreshMargin time.Duration

	// HTTPClient performs the exchange. Defaults to a client with a
	// 10 second timeout.
	HTTPClient *http.Client

	// Logger receives refresh activity. Defaults to a discard logger.
	Logger *logging.Logger
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrNoCredentials
	}
	if c.TokenURL == "" {
		return ErrNoTokenURL
	}
	return nil
}

// Manager obtains access tokens via the client-credentials grant and
// keeps the current one in a Store.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Manager struct {
	cfg    Config
	store  *Store
	group  singleflight.Group
	client *http.Client
	log    *logging.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewManager creates a Manager from cfg. The TokenURL must be set by
// the caller (usually endpoint.US().TokenURL).
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RefreshMargin <= 0 {
		cfg.RefreshMargin = defaultRefreshMargin
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	return &Manager{
		cfg:    cfg,
		store:  &Store{},
		client: cfg.HTTPClient,
		log:    cfg.Logger.With("component", "auth"),
		now:    time.Now,
	}, nil
}

// Token returns the current access token without refreshing. It may be
// stale or empty; callers that need a guaranteed-fresh token use
// EnsureFresh.
func (m *Manager) Token() string {
	return m.store.Get().AccessToken
}

// AuthHeader returns the Authorization header value for the current
// token.
func (m *Manager) AuthHeader() string {
	return "Bearer " + m.Token()
}

// EnsureFresh returns an access token valid for at least the refresh
// margin, exchanging credentials for a new one when needed.
//
// Concurrent callers share a single exchange: whichever call starts it
// supplies the context, and every waiter receives the same token or the
// same error.
func (m *Manager) EnsureFresh(ctx context.Context) (string, error) {
	if tok := m.store.Get(); tok.Valid(m.now(), m.cfg.RefreshMargin) {
		return tok.AccessToken, nil
	}

	v, err, _ := m.group.Do("token", func() (any, error) {
		// A waiter queued behind a finished exchange re-checks before
		// starting another one.
		if tok := m.store.Get(); tok.Valid(m.now(), m.cfg.RefreshMargin) {
			return tok.AccessToken, nil
		}

		tok, err := m.exchange(ctx)
		if err != nil {
			m.log.Error("token exchange failed", "error", err)
			return "", err
		}

		m.store.Set(tok)
		m.log.Debug("access token refreshed", "expires_at", tok.ExpiresAt)
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the stored token if it still equals stale. A caller
// that got a 401 passes the exact token it sent, so overlapping
// rejections trigger at most one new exchange.
func (m *Manager) Invalidate(stale string) {
	m.store.Invalidate(stale)
}

// tokenResponse is the token endpoint's success body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// tokenError is the token endpoint's failure body.
type tokenError struct {
	Code string `json:"error"`
	Desc string `json:"error_description"`
}

func (m *Manager) exchange(ctx context.Context) (Token, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.cfg.ClientID},
		"client_secret": {m.cfg.ClientSecret},
	}
	if m.cfg.Scope != "" {
		form.Set("scope", m.cfg.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, &Error{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return Token{}, &Error{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, &Error{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 400 {
		var te tokenError
		// A non-JSON error body still yields a usable status code.
		_ = json.Unmarshal(body, &te)
		return Token{}, &Error{Status: resp.StatusCode, Code: te.Code, Desc: te.Desc}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, &Error{Status: resp.StatusCode, Err: err}
	}
	if tr.AccessToken == "" {
		return Token{}, &Error{Status: resp.StatusCode, Desc: "response missing access_token"}
	}

	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}

	return Token{
		AccessToken: tr.AccessToken,
		ExpiresAt:   m.now().Add(lifetime),
	}, nil
}
