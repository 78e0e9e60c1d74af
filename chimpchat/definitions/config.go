package definitions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 12345
	DefaultConnectTimeout = 30 * time.Second
	DefaultPollInterval   = time.Second
	DefaultWarmUp         = time.Second
	DefaultProbeTimeout   = time.Second
	// DefaultShellTimeout matches the ddmlib default for shell commands.
	DefaultShellTimeout = 5000 * time.Millisecond
	DefaultADBPath      = "adb"
)

// ManagerConfig controls how the monkey service is started and reached.
// Zero fields fall back to the package defaults (see WithDefaults).
type ManagerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	PollInterval   time.Duration `json:"poll_interval" yaml:"poll_interval"`
	// WarmUp is the pause between starting the service and the first poll.
	// Zero means DefaultWarmUp; a negative value skips the pause.
	WarmUp         time.Duration `json:"warm_up" yaml:"warm_up"`
	ProbeTimeout   time.Duration `json:"probe_timeout" yaml:"probe_timeout"`

	ShellTimeout time.Duration `json:"shell_timeout" yaml:"shell_timeout"`
	ADBPath      string        `json:"adb_path" yaml:"adb_path"`
}

func DefaultManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		Host:           DefaultHost,
		Port:           DefaultPort,
		ConnectTimeout: DefaultConnectTimeout,
		PollInterval:   DefaultPollInterval,
		WarmUp:         DefaultWarmUp,
		ProbeTimeout:   DefaultProbeTimeout,
		ShellTimeout:   DefaultShellTimeout,
		ADBPath:        DefaultADBPath,
	}
}

// WithDefaults returns a copy with every zero field replaced by its default.
func (c *ManagerConfig) WithDefaults() *ManagerConfig {
	out := DefaultManagerConfig()
	if c == nil {
		return out
	}
	if c.Host != "" {
		out.Host = c.Host
	}
	if c.Port > 0 {
		out.Port = c.Port
	}
	if c.ConnectTimeout > 0 {
		out.ConnectTimeout = c.ConnectTimeout
	}
	if c.PollInterval > 0 {
		out.PollInterval = c.PollInterval
	}
	if c.WarmUp != 0 {
		out.WarmUp = c.WarmUp
	}
	if c.ProbeTimeout > 0 {
		out.ProbeTimeout = c.ProbeTimeout
	}
	if c.ShellTimeout > 0 {
		out.ShellTimeout = c.ShellTimeout
	}
	if c.ADBPath != "" {
		out.ADBPath = c.ADBPath
	}
	return out
}

// LoadManagerConfig reads a YAML config file. Durations are written as "30s", "500ms".
func LoadManagerConfig(path string) (*ManagerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file %q: %w", path, err)
	}
	defer f.Close()
	return LoadManagerConfigFromReader(f)
}

func LoadManagerConfigFromReader(r io.Reader) (*ManagerConfig, error) {
	var cfg ManagerConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode config: %w", ErrInvalidArgument, err)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidArgument, cfg.Port)
	}
	return &cfg, nil
}
