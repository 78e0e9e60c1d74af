package definitions

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestManagerConfigWithDefaults(t *testing.T) {
	// Test case 1: nil config
	var nilCfg *ManagerConfig
	got := nilCfg.WithDefaults()
	if got.Port != DefaultPort || got.Host != DefaultHost {
		t.Errorf("Expected defaults, got: %+v", got)
	}
	if got.ShellTimeout != 5*time.Second {
		t.Errorf("Expected 5s shell timeout, got: %v", got.ShellTimeout)
	}

	// Test case 2: partial override keeps the rest
	cfg := &ManagerConfig{Port: 23456, PollInterval: 10 * time.Millisecond}
	got = cfg.WithDefaults()
	if got.Port != 23456 {
		t.Errorf("Expected port 23456, got: %d", got.Port)
	}
	if got.PollInterval != 10*time.Millisecond {
		t.Errorf("Expected poll interval 10ms, got: %v", got.PollInterval)
	}
	if got.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("Expected default connect timeout, got: %v", got.ConnectTimeout)
	}
	if cfg.ConnectTimeout != 0 {
		t.Errorf("WithDefaults must not modify the receiver")
	}
}

func TestManagerConfigNegativeWarmUp(t *testing.T) {
	got := (&ManagerConfig{WarmUp: -1}).WithDefaults()
	if got.WarmUp >= 0 {
		t.Errorf("Expected negative warm-up to be kept, got: %v", got.WarmUp)
	}
	if got := (&ManagerConfig{}).WithDefaults(); got.WarmUp != DefaultWarmUp {
		t.Errorf("Expected zero warm-up to take the default, got: %v", got.WarmUp)
	}
}

func TestLoadManagerConfigFromReader(t *testing.T) {
	cfg, err := LoadManagerConfigFromReader(strings.NewReader(`
port: 23456
connect_timeout: 45s
poll_interval: 250ms
adb_path: /opt/android/platform-tools/adb
`))
	if err != nil {
		t.Fatalf("LoadManagerConfigFromReader failed: %v", err)
	}
	if cfg.Port != 23456 || cfg.ConnectTimeout != 45*time.Second || cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.ADBPath != "/opt/android/platform-tools/adb" {
		t.Errorf("Unexpected adb path: %q", cfg.ADBPath)
	}
	if got := cfg.WithDefaults(); got.Host != DefaultHost || got.WarmUp != DefaultWarmUp {
		t.Errorf("Expected unset fields to take defaults, got: %+v", got)
	}

	// Test case: empty document
	cfg, err = LoadManagerConfigFromReader(strings.NewReader(""))
	if err != nil || cfg.Port != 0 {
		t.Errorf("Expected empty config, got: %+v, %v", cfg, err)
	}

	// Test case: unknown field and bad port
	if _, err := LoadManagerConfigFromReader(strings.NewReader("prot: 1\n")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for unknown field, got: %v", err)
	}
	if _, err := LoadManagerConfigFromReader(strings.NewReader("port: 70000\n")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for bad port, got: %v", err)
	}
}

func TestCommandError(t *testing.T) {
	err := &CommandError{Kind: ErrRemoteRejected, Verb: "getvar", Command: "getvar build.device", Remote: "ERROR:unknown var"}
	if !errors.Is(err, ErrRemoteRejected) {
		t.Errorf("Expected errors.Is ErrRemoteRejected")
	}
	if !strings.Contains(err.Error(), "getvar build.device") || !strings.Contains(err.Error(), "unknown var") {
		t.Errorf("Expected command and remote text in message, got: %s", err.Error())
	}

	wrapped := &CommandError{Kind: ErrTransportFailure, Verb: "wake", Command: "wake", Err: io.EOF}
	if !errors.Is(wrapped, io.EOF) || !errors.Is(wrapped, ErrTransportFailure) {
		t.Errorf("Expected both kind and cause to match, got: %v", wrapped)
	}
}

func TestPhysicalButtonKeyName(t *testing.T) {
	if Enter.KeyName() != "enter" || DPadCenter.KeyName() != "DPAD_CENTER" {
		t.Errorf("Unexpected key names: %s %s", Enter.KeyName(), DPadCenter.KeyName())
	}
}
