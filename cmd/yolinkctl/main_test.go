package main

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks the environment the config loader reads so tests are
// not affected by the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"YOLINK_CONFIG",
		"YOLINK_CLIENT_ID",
		"YOLINK_CLIENT_SECRET",
		"YOLINK_REGION",
		"YOLINK_HUB_HOST",
		"YOLINK_HUB_NET_ID",
	} {
		t.Setenv(key, "")
	}
}

// TestRun_NoCommand verifies run fails when no command is given.
func TestRun_NoCommand(t *testing.T) {
	clearEnv(t)

	err := run(context.Background(), nil)
	if err == nil {
		t.Fatal("run() should fail without a command")
	}
	if !strings.Contains(err.Error(), "no command") {
		t.Errorf("run() error = %v, want mention of missing command", err)
	}
}

// TestRun_VersionFlag verifies -version exits cleanly without config.
func TestRun_VersionFlag(t *testing.T) {
	clearEnv(t)

	if err := run(context.Background(), []string{"-version"}); err != nil {
		t.Errorf("run(-version) error = %v, want nil", err)
	}
}

// TestRun_InvalidConfigPath verifies run fails with a missing config file.
func TestRun_InvalidConfigPath(t *testing.T) {
	clearEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, []string{"-config", "/nonexistent/path/config.yaml", "devices"})
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingCredentials verifies run fails validation when no
// credentials are configured anywhere.
func TestRun_MissingCredentials(t *testing.T) {
	clearEnv(t)

	err := run(context.Background(), []string{"devices"})
	if err == nil {
		t.Fatal("run() should fail without credentials")
	}
	if !strings.Contains(err.Error(), "credentials") {
		t.Errorf("run() error = %v, want credentials failure", err)
	}
}

// TestRun_UnknownCommand verifies the command dispatch rejects unknown
// commands after configuration succeeds.
func TestRun_UnknownCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOLINK_CLIENT_ID", "ua_test")
	t.Setenv("YOLINK_CLIENT_SECRET", "sec_test")

	err := run(context.Background(), []string{"frobnicate"})
	if err == nil {
		t.Fatal("run() should fail for an unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("run() error = %v, want unknown command failure", err)
	}
}

// TestRun_StateRequiresDeviceID verifies argument validation happens
// before any network activity.
func TestRun_StateRequiresDeviceID(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOLINK_CLIENT_ID", "ua_test")
	t.Setenv("YOLINK_CLIENT_SECRET", "sec_test")

	err := run(context.Background(), []string{"state"})
	if err == nil {
		t.Fatal("run() should fail without a device id")
	}
	if !strings.Contains(err.Error(), "usage") {
		t.Errorf("run() error = %v, want usage failure", err)
	}
}

// TestGetConfigPath_Default verifies the fallback when nothing is set
// and no default file exists.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("YOLINK_CONFIG", "")

	if path := getConfigPath(); path != "" {
		t.Errorf("getConfigPath() = %q, want empty", path)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("YOLINK_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:  "string value",
			pairs: []string{"state=on"},
			want:  map[string]any{"state": "on"},
		},
		{
			name:  "integer value",
			pairs: []string{"state=open", "plugIndex=1"},
			want:  map[string]any{"state": "open", "plugIndex": 1},
		},
		{
			name:  "float value",
			pairs: []string{"lowTemp=19.5"},
			want:  map[string]any{"lowTemp": 19.5},
		},
		{
			name:  "empty list",
			pairs: nil,
			want:  map[string]any{},
		},
		{
			name:    "missing separator",
			pairs:   []string{"state"},
			wantErr: true,
		},
		{
			name:    "empty key",
			pairs:   []string{"=on"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseParams() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
