package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/m96-chan/Keysmith/internal/consts"
)

//go:embed config.toml
var defaultConfig []byte

// Config holds the application configuration.
type Config struct {
	KeymapPath string `toml:"keymap_path"`
	Mouse      bool   `toml:"mouse"`

	History History `toml:"history"`
	Device  Device  `toml:"device"`
	Build   Build   `toml:"build"`
	UI      UI      `toml:"ui"`

	Keybinds Keybinds `toml:"keybinds"`
	Theme    Theme    `toml:"theme"`
}

// History bounds the undo stack.
type History struct {
	Limit int `toml:"limit"`
}

// Device configures the device bridge and the session timers.
type Device struct {
	BridgeURL          string   `toml:"bridge_url"`
	AutoConnect        bool     `toml:"auto_connect"`
	ScanInterval       Duration `toml:"scan_interval"`
	PollInterval       Duration `toml:"poll_interval"`
	UnlockPollInterval Duration `toml:"unlock_poll_interval"`
	UnlockAttempts     int      `toml:"unlock_attempts"`
	CommandTimeout     Duration `toml:"command_timeout"`
	LiveSyncTimeout    Duration `toml:"live_sync_timeout"`
	// AdoptLiveKeymap replaces the document's layers with the device's
	// resolved keymap once behaviors are ready.
	AdoptLiveKeymap bool `toml:"adopt_live_keymap"`
}

// Build configures the firmware build command.
type Build struct {
	Command    []string `toml:"command"`
	RootMarker string   `toml:"root_marker"`
	Notify     bool     `toml:"notify"`
}

// UI holds display settings.
type UI struct {
	SyntaxTheme   string   `toml:"syntax_theme"`
	ToastDuration Duration `toml:"toast_duration"`
}

// Duration is a time.Duration written as a string ("4s", "500ms") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// DefaultKeymapPath returns the keymap path used when keymap_path is unset.
func DefaultKeymapPath() string {
	return filepath.Join(configDir(), "keymap.toml")
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, consts.Name)
}

// Load reads the config from the given path. If the file does not exist,
// it writes the default config and loads that. Config loading is two-phase:
// embedded defaults are applied first, then the user file overlays on top.
// A theme preset named in the user file replaces the default theme before
// the file's own style overrides are applied.
func Load(path string) (*Config, error) {
	// Phase 1: unmarshal embedded defaults.
	cfg := Config{Theme: BuiltinTheme("default")}
	if err := toml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}

	// Write default config if file does not exist.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, defaultConfig, 0o600); err != nil {
			return nil, err
		}
	}

	// Phase 2: overlay user file on top of defaults.
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if preset := cfg.Theme.Preset; preset != "" && preset != "default" {
		cfg.Theme = BuiltinTheme(preset)
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// applyDefaults resolves computed defaults that can't be expressed in TOML.
func applyDefaults(cfg *Config) {
	if cfg.KeymapPath == "" {
		cfg.KeymapPath = DefaultKeymapPath()
	}
	if rest, ok := strings.CutPrefix(cfg.KeymapPath, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.KeymapPath = filepath.Join(home, rest)
		}
	}
	if cfg.Build.RootMarker == "" {
		cfg.Build.RootMarker = "flake.nix"
	}
}

// validate checks that config values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.History.Limit < 1 || cfg.History.Limit > 1000 {
		return fmt.Errorf("history.limit must be between 1 and 1000, got %d", cfg.History.Limit)
	}
	if cfg.Device.UnlockAttempts < 1 {
		return fmt.Errorf("device.unlock_attempts must be >= 1, got %d", cfg.Device.UnlockAttempts)
	}
	for name, d := range map[string]Duration{
		"device.scan_interval":        cfg.Device.ScanInterval,
		"device.poll_interval":        cfg.Device.PollInterval,
		"device.unlock_poll_interval": cfg.Device.UnlockPollInterval,
		"device.command_timeout":      cfg.Device.CommandTimeout,
		"device.live_sync_timeout":    cfg.Device.LiveSyncTimeout,
		"ui.toast_duration":           cfg.UI.ToastDuration,
	} {
		if d.Duration <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d.Duration)
		}
	}
	u, err := url.Parse(cfg.Device.BridgeURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("device.bridge_url must be a ws:// or wss:// URL, got %q", cfg.Device.BridgeURL)
	}
	if len(cfg.Build.Command) == 0 || cfg.Build.Command[0] == "" {
		return fmt.Errorf("build.command must not be empty")
	}
	return nil
}
