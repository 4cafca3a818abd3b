package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager loads and watches the daemon's configuration file.
type Manager struct {
	viper       *viper.Viper
	environment string
	configPath  string
}

// Config is the complete daemon configuration (SPEC_FULL.md §3's
// process-wide state has its own defaults here; this is what seeds
// them at startup).
type Config struct {
	Environment string        `mapstructure:"environment"`
	PIDFile     string        `mapstructure:"pid_file"`
	Logging     LoggingConfig `mapstructure:"logging"`
	IPC         IPCConfig     `mapstructure:"ipc"`
	Debug       DebugConfig   `mapstructure:"debug"`
	Layout      LayoutConfig  `mapstructure:"layout"`
	WM          WMConfig      `mapstructure:"wm"`
}

// LoggingConfig controls the logrus setup (Format/Level), the same two
// knobs the teacher daemon's initLogger exposes.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// IPCConfig controls the two Unix-domain sockets and the command rate
// limit (internal/ipc.Config).
type IPCConfig struct {
	CommandSocketPath string  `mapstructure:"command_socket"`
	EventSocketPath   string  `mapstructure:"event_socket"`
	CommandRatePerSec float64 `mapstructure:"command_rate_per_sec"`
	CommandBurst      int     `mapstructure:"command_burst"`
}

// DebugConfig controls the optional loopback-only debug HTTP surface
// (internal/ipc.DebugConfig).
type DebugConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LayoutConfig seeds internal/layout.Manager's engine search path and
// the process-wide default layout name.
type LayoutConfig struct {
	ExecPath      []string `mapstructure:"exec_path"`
	DefaultLayout string   `mapstructure:"default_layout"`
}

// WMConfig seeds the tiling/focus knobs in wm.State (§3's "cursor-warp
// mode" and "outer-gap").
type WMConfig struct {
	OuterGap   GapConfig `mapstructure:"outer_gap"`
	CursorWarp string    `mapstructure:"cursor_warp"` // "disabled"|"on-output-change"|"on-focus-change"
}

// GapConfig is a CSS-style four-sided gap.
type GapConfig struct {
	Top    int `mapstructure:"top"`
	Right  int `mapstructure:"right"`
	Bottom int `mapstructure:"bottom"`
	Left   int `mapstructure:"left"`
}

func defaults() Config {
	return Config{
		Environment: "development",
		PIDFile:     "/tmp/yashikid.pid",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		IPC: IPCConfig{
			CommandSocketPath: "/tmp/yashikid-command.sock",
			EventSocketPath:   "/tmp/yashikid-event.sock",
			CommandRatePerSec: 50,
			CommandBurst:      10,
		},
		Debug: DebugConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8787",
		},
		Layout: LayoutConfig{
			DefaultLayout: "bsp",
		},
		WM: WMConfig{
			CursorWarp: "disabled",
		},
	}
}

// NewManager creates a configuration manager for environment, reading
// from configPath (or the default search path if empty).
func NewManager(environment, configPath string) *Manager {
	v := viper.New()
	return &Manager{
		viper:       v,
		environment: environment,
		configPath:  configPath,
	}
}

// Load reads the configuration file (if present; its absence is not an
// error, since every field has a usable default) and environment
// variables (prefix YASHIKID), overlaying them on defaults().
func (m *Manager) Load() (*Config, error) {
	config := defaults()
	config.Environment = m.environment

	if m.configPath == "" {
		m.configPath = "configs"
	}

	configFile := fmt.Sprintf("%s.yaml", m.environment)
	m.viper.SetConfigName(strings.TrimSuffix(configFile, filepath.Ext(configFile)))
	m.viper.SetConfigType("yaml")
	m.viper.AddConfigPath(m.configPath)
	m.viper.AddConfigPath(".")
	m.viper.AddConfigPath("./configs")
	m.viper.AddConfigPath("/etc/yashikid")
	m.viper.AddConfigPath("$HOME/.yashikid")

	m.viper.AutomaticEnv()
	m.viper.SetEnvPrefix("YASHIKID")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := m.validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func (m *Manager) validate(config *Config) error {
	if config.IPC.CommandSocketPath == "" {
		return fmt.Errorf("ipc.command_socket is required")
	}
	if config.IPC.EventSocketPath == "" {
		return fmt.Errorf("ipc.event_socket is required")
	}
	if config.IPC.CommandSocketPath == config.IPC.EventSocketPath {
		return fmt.Errorf("ipc.command_socket and ipc.event_socket must differ")
	}
	switch config.WM.CursorWarp {
	case "", "disabled", "on-output-change", "on-focus-change":
	default:
		return fmt.Errorf("invalid wm.cursor_warp: %s", config.WM.CursorWarp)
	}
	return nil
}

// WatchConfig invokes callback whenever the config file changes on disk.
// Most of this daemon's settings are only read at startup (sockets are
// already bound, engines already spawned), so callback is expected to
// log that a restart is required rather than attempt a live reload.
func (m *Manager) WatchConfig(callback func()) {
	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})
}

// GetEnvironment returns the configured environment name.
func (m *Manager) GetEnvironment() string { return m.environment }

// GetString, GetInt, GetBool, IsSet expose the underlying viper instance
// for callers that need a raw lookup outside the typed Config struct.
func (m *Manager) GetString(key string) string { return m.viper.GetString(key) }
func (m *Manager) GetInt(key string) int       { return m.viper.GetInt(key) }
func (m *Manager) GetBool(key string) bool     { return m.viper.GetBool(key) }
func (m *Manager) IsSet(key string) bool       { return m.viper.IsSet(key) }
