// Package config loads the yolinkctl configuration. The library
// packages take explicit parameters; this file-based layer exists for
// the CLI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YoSmart-Inc/yolink-api/endpoint"
	"github.com/YoSmart-Inc/yolink-api/logging"
)

// Config is the root configuration structure for yolinkctl.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Credentials  CredentialsConfig  `yaml:"credentials"`
	Region       RegionConfig       `yaml:"region"`
	Hub          HubConfig          `yaml:"hub"`
	Auth         AuthConfig         `yaml:"auth"`
	HTTP         HTTPConfig         `yaml:"http"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Devices      DevicesConfig      `yaml:"devices"`
	Logging      logging.Config     `yaml:"logging"`
}

// CredentialsConfig contains the UAC credentials from the YoLink app
// (Settings -> Account -> Advanced Settings -> User Access Credentials).
type CredentialsConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// RegionConfig selects the cloud gateway.
type RegionConfig struct {
	Name string `yaml:"name"` // us, eu
}

// HubConfig points yolinkctl at a local hub instead of the cloud.
type HubConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	NetID   string `yaml:"net_id"`
}

// AuthConfig contains token refresh settings.
type AuthConfig struct {
	RefreshMargin int `yaml:"refresh_margin"` // seconds before expiry to renew
}

// HTTPConfig contains request pipeline settings.
type HTTPConfig struct {
	Timeout     int `yaml:"timeout"` // seconds
	MaxAttempts int `yaml:"max_attempts"`
}

// SubscriptionConfig contains report subscription settings.
type SubscriptionConfig struct {
	ReconnectInitialDelay int `yaml:"reconnect_initial_delay"` // seconds
	ReconnectMaxDelay     int `yaml:"reconnect_max_delay"`     // seconds
	MaxReconnects         int `yaml:"max_reconnects"`          // 0 = retry forever
}

// DevicesConfig contains device handle settings.
type DevicesConfig struct {
	StateTTL int `yaml:"state_ttl"` // seconds a fetched state is served from cache
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// An empty path skips the file step, so credentials can come from the
// environment alone.
//
// Environment variables follow the pattern: YOLINK_SECTION_KEY
// For example: YOLINK_CLIENT_ID, YOLINK_REGION, YOLINK_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Region: RegionConfig{
			Name: "us",
		},
		Auth: AuthConfig{
			RefreshMargin: 300,
		},
		HTTP: HTTPConfig{
			Timeout:     10,
			MaxAttempts: 3,
		},
		Subscription: SubscriptionConfig{
			ReconnectInitialDelay: 1,
			ReconnectMaxDelay:     60,
			MaxReconnects:         0,
		},
		Devices: DevicesConfig{
			StateTTL: 30,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern:
// YOLINK_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	// Credentials (IMPORTANT: prefer these over checked-in files)
	if v := os.Getenv("YOLINK_CLIENT_ID"); v != "" {
		cfg.Credentials.ClientID = v
	}
	if v := os.Getenv("YOLINK_CLIENT_SECRET"); v != "" {
		cfg.Credentials.ClientSecret = v
	}

	// Region
	if v := os.Getenv("YOLINK_REGION"); v != "" {
		cfg.Region.Name = v
	}

	// Local hub
	if v := os.Getenv("YOLINK_HUB_HOST"); v != "" {
		cfg.Hub.Enabled = true
		cfg.Hub.Host = v
	}
	if v := os.Getenv("YOLINK_HUB_NET_ID"); v != "" {
		cfg.Hub.NetID = v
	}

	// Logging
	if v := os.Getenv("YOLINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("YOLINK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Credentials.ClientID == "" {
		errs = append(errs, "credentials.client_id is required (set YOLINK_CLIENT_ID environment variable)")
	}
	if c.Credentials.ClientSecret == "" {
		errs = append(errs, "credentials.client_secret is required (set YOLINK_CLIENT_SECRET environment variable)")
	}

	switch strings.ToLower(c.Region.Name) {
	case "us", "eu":
	default:
		errs = append(errs, "region.name must be \"us\" or \"eu\"")
	}

	if c.Hub.Enabled {
		if c.Hub.Host == "" {
			errs = append(errs, "hub.host is required when hub.enabled is true")
		}
		if c.Hub.NetID == "" {
			errs = append(errs, "hub.net_id is required when hub.enabled is true")
		}
	}

	if c.HTTP.Timeout < 1 {
		errs = append(errs, "http.timeout must be at least 1 second")
	}
	if c.HTTP.MaxAttempts < 1 {
		errs = append(errs, "http.max_attempts must be at least 1")
	}

	if c.Subscription.ReconnectInitialDelay < 1 {
		errs = append(errs, "subscription.reconnect_initial_delay must be at least 1 second")
	}
	if c.Subscription.ReconnectMaxDelay < c.Subscription.ReconnectInitialDelay {
		errs = append(errs, "subscription.reconnect_max_delay must not be below the initial delay")
	}
	if c.Subscription.MaxReconnects < 0 {
		errs = append(errs, "subscription.max_reconnects must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Endpoint returns the API endpoint the configuration selects: the
// local hub when enabled, otherwise the regional cloud gateway.
func (c *Config) Endpoint() endpoint.Endpoint {
	if c.Hub.Enabled {
		return endpoint.Local(c.Hub.Host)
	}
	if strings.EqualFold(c.Region.Name, "eu") {
		return endpoint.EU()
	}
	return endpoint.US()
}

// GetRefreshMargin returns the token refresh margin as a Duration.
func (c *Config) GetRefreshMargin() time.Duration {
	return time.Duration(c.Auth.RefreshMargin) * time.Second
}

// GetRequestTimeout returns the HTTP request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeout) * time.Second
}

// GetReconnectInitialDelay returns the first reconnect delay as a
// Duration.
func (c *Config) GetReconnectInitialDelay() time.Duration {
	return time.Duration(c.Subscription.ReconnectInitialDelay) * time.Second
}

// GetReconnectMaxDelay returns the reconnect delay cap as a Duration.
func (c *Config) GetReconnectMaxDelay() time.Duration {
	return time.Duration(c.Subscription.ReconnectMaxDelay) * time.Second
}

// GetStateTTL returns the device state cache TTL as a Duration.
func (c *Config) GetStateTTL() time.Duration {
	return time.Duration(c.Devices.StateTTL) * time.Second
}
