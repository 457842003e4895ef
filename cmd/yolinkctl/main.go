// yolinkctl - YoLink command line client
//
// yolinkctl drives a YoLink home from the terminal: it lists the
// devices paired to the account, reads and controls their state and
// streams their device reports. It talks to the cloud gateways by
// default and to a local hub when one is configured.
//
// Credentials come from a YAML config file or the YOLINK_CLIENT_ID /
// YOLINK_CLIENT_SECRET environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/YoSmart-Inc/yolink-api/auth"
	"github.com/YoSmart-Inc/yolink-api/client"
	"github.com/YoSmart-Inc/yolink-api/config"
	"github.com/YoSmart-Inc/yolink-api/device"
	"github.com/YoSmart-Inc/yolink-api/endpoint"
	"github.com/YoSmart-Inc/yolink-api/home"
	"github.com/YoSmart-Inc/yolink-api/logging"
	"github.com/YoSmart-Inc/yolink-api/subscriber"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path, used when it exists and no override
// is given.
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments, without the program name
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("yolinkctl", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the configuration file (overrides YOLINK_CONFIG)")
	showVersion := fs.Bool("version", false, "print version information and exit")
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Printf("yolinkctl %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	if fs.NArg() < 1 {
		printUsage(fs)
		return errors.New("no command given")
	}

	path := *configPath
	if path == "" {
		path = getConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)

	mgr, err := newManager(cfg, log)
	if err != nil {
		return err
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "info":
		return runInfo(ctx, mgr)
	case "devices":
		return runDevices(ctx, mgr)
	case "state":
		return runState(ctx, mgr, rest)
	case "control":
		return runControl(ctx, mgr, rest)
	case "listen":
		return runListen(ctx, mgr, log)
	default:
		printUsage(fs)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// newManager wires the token pipeline, the request client and the home
// façade from the loaded configuration.
//
// Parameters:
//   - cfg: Loaded and validated configuration
//   - log: Logger instance
//
// Returns:
//   - *home.Manager: Ready manager; nothing has touched the network yet
//   - error: If a component rejects its configuration
func newManager(cfg *config.Config, log *logging.Logger) (*home.Manager, error) {
	ep := cfg.Endpoint()

	// Local hubs require the "create" scope on the token exchange; the
	// cloud wants none.
	scope := ""
	if cfg.Hub.Enabled {
		scope = "create"
	}

	authMgr, err := auth.NewManager(auth.Config{
		ClientID:      cfg.Credentials.ClientID,
		ClientSecret:  cfg.Credentials.ClientSecret,
		TokenURL:      ep.TokenURL,
		Scope:         scope,
		RefreshMargin: cfg.GetRefreshMargin(),
		HTTPClient:    &http.Client{Timeout: cfg.GetRequestTimeout()},
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating auth manager: %w", err)
	}

	caller, err := client.New(client.Config{
		Auth:        authMgr,
		HTTPClient:  &http.Client{Timeout: cfg.GetRequestTimeout()},
		MaxAttempts: uint64(cfg.HTTP.MaxAttempts),
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	// The default US region leaves the endpoint unpinned so devices
	// homed on the EU cloud keep their own gateway. An explicit region
	// or a local hub pins every call to it.
	var epOverride *endpoint.Endpoint
	if cfg.Hub.Enabled || strings.EqualFold(cfg.Region.Name, "eu") {
		epOverride = &ep
	}

	topic := ""
	if cfg.Hub.Enabled {
		topic = subscriber.LocalTopic(cfg.Hub.NetID)
	}

	mgr, err := home.New(home.Config{
		Auth:                  authMgr,
		Caller:                caller,
		Endpoint:              epOverride,
		Topic:                 topic,
		StateTTL:              cfg.GetStateTTL(),
		MaxReconnects:         cfg.Subscription.MaxReconnects,
		ReconnectInitialDelay: cfg.GetReconnectInitialDelay(),
		ReconnectMaxDelay:     cfg.GetReconnectMaxDelay(),
		OnStatus: func(st subscriber.Status) {
			log.Info("subscription status", "status", string(st))
		},
		OnError: func(err error) {
			log.Error("subscription failed", "error", err)
		},
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating home manager: %w", err)
	}
	return mgr, nil
}

// runInfo prints the home identifier.
func runInfo(ctx context.Context, mgr *home.Manager) error {
	if _, err := mgr.HomeInfo(ctx); err != nil {
		return fmt.Errorf("fetching home info: %w", err)
	}
	fmt.Println(mgr.HomeID())
	return nil
}

// runDevices enumerates the home and prints one line per device.
func runDevices(ctx context.Context, mgr *home.Manager) error {
	devices, err := mgr.LoadDevices(ctx)
	if err != nil {
		return fmt.Errorf("enumerating devices: %w", err)
	}

	for _, dev := range devices {
		fmt.Printf("%-34s %-16s %-14s %s\n", dev.ID(), dev.Type(), dev.ModelName(), dev.Name())
	}
	return nil
}

// runState fetches and prints a device's current state as JSON.
func runState(ctx context.Context, mgr *home.Manager, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: yolinkctl state <device-id>")
	}

	dev, err := lookupDevice(ctx, mgr, args[0])
	if err != nil {
		return err
	}

	resp, err := dev.FetchState(ctx)
	if err != nil {
		return fmt.Errorf("fetching state: %w", err)
	}
	return printJSON(resp.Data)
}

// runControl invokes a control operation on a device. Arguments after
// the operation name are key=value pairs handed to the request builder
// registered for the device type, e.g.
//
//	yolinkctl control d88500 setState state=on
//	yolinkctl control d88501 setState state=open plugIndex=1
func runControl(ctx context.Context, mgr *home.Manager, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: yolinkctl control <device-id> <operation> [key=value ...]")
	}

	dev, err := lookupDevice(ctx, mgr, args[0])
	if err != nil {
		return err
	}

	params, err := parseParams(args[2:])
	if err != nil {
		return err
	}

	req, err := device.Build(dev.Type(), args[1], params)
	if err != nil {
		return err
	}

	resp, err := dev.Call(ctx, req)
	if err != nil {
		return fmt.Errorf("controlling device: %w", err)
	}
	if len(resp.Data) == 0 {
		fmt.Println("ok")
		return nil
	}
	return printJSON(resp.Data)
}

// runListen subscribes to the home's report stream and prints one line
// per event until the context is cancelled.
func runListen(ctx context.Context, mgr *home.Manager, log *logging.Logger) error {
	listener := home.ListenerFunc(func(dev *device.Device, data map[string]any) {
		out, err := json.Marshal(data)
		if err != nil {
			log.Warn("encoding event", "device", dev.ID(), "error", err)
			return
		}
		fmt.Printf("%s %s %s %s\n", time.Now().Format(time.RFC3339), dev.ID(), dev.Type(), out)
	})

	if err := mgr.Setup(ctx, listener); err != nil {
		return fmt.Errorf("starting subscription: %w", err)
	}
	log.Info("listening for device reports", "devices", len(mgr.Devices()))

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	if err := mgr.Unload(); err != nil {
		return fmt.Errorf("stopping subscription: %w", err)
	}
	return nil
}

// lookupDevice enumerates the home and returns the handle for deviceID.
func lookupDevice(ctx context.Context, mgr *home.Manager, deviceID string) (*device.Device, error) {
	if _, err := mgr.LoadDevices(ctx); err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	dev, ok := mgr.Device(deviceID)
	if !ok {
		return nil, fmt.Errorf("unknown device %q", deviceID)
	}
	return dev, nil
}

// parseParams converts key=value command arguments into the loosely
// typed map the request builders accept. Values that parse as integers
// or floats are passed as numbers, anything else stays a string.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}
		if n, err := strconv.Atoi(value); err == nil {
			params[key] = n
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = f
		} else {
			params[key] = value
		}
	}
	return params, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// getConfigPath returns the configuration file path. Uses the
// YOLINK_CONFIG environment variable if set, then the default path when
// the file exists. An empty path means built-in defaults plus
// environment variables.
func getConfigPath() string {
	if path := os.Getenv("YOLINK_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), `yolinkctl talks to a YoLink home from the command line.

Usage:
  yolinkctl [flags] <command> [args]

Commands:
  info                                   print the home identifier
  devices                                list the devices paired to the home
  state <device-id>                      fetch a device's current state
  control <device-id> <op> [key=value]   invoke a control operation
  listen                                 stream device reports until interrupted

Flags:
`)
	fs.PrintDefaults()
}
