// Package config loads rayhunter-go's TOML configuration file (spec §6) and
// supplies the defaults used when no file is present. Decode/encode use
// pelletier/go-toml/v2, the same codec internal/store uses for
// manifest.toml (see SPEC_FULL.md's domain-stack table).
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Device enumerates the consumer hotspot models rayhunter-go's display and
// key-input drivers know how to address (spec §6 "device"). The drivers
// themselves are external collaborators (spec §1); this package only
// carries the selector through to the components that branch on it.
type Device string

const (
	DeviceOrbic     Device = "orbic"
	DeviceTplink    Device = "tplink"
	DeviceTmobile   Device = "tmobile"
	DeviceWingtech  Device = "wingtech"
	DevicePinephone Device = "pinephone"
	DeviceUz801     Device = "uz801"
)

// UILevel selects how much the on-device status indicator shows (spec §6
// "ui_level").
type UILevel int

const (
	UILevelInvisible UILevel = 0
	UILevelLine      UILevel = 1
	UILevelAnimated  UILevel = 2
	UILevelLogo      UILevel = 3
	UILevelThemed    UILevel = 128
)

// NotificationKind is one of the notification categories the
// enabled_notifications set can name (spec §6).
type NotificationKind string

const (
	NotificationWarning    NotificationKind = "Warning"
	NotificationLowBattery NotificationKind = "LowBattery"
)

// Config is the decoded shape of rayhunter_config.toml (spec §6).
type Config struct {
	QmdlStorePath        string             `toml:"qmdl_store_path" json:"qmdl_store_path"`
	Port                 int                `toml:"port" json:"port"`
	DebugMode            bool               `toml:"debug_mode" json:"debug_mode"`
	Device               Device             `toml:"device" json:"device"`
	UILevel              UILevel            `toml:"ui_level" json:"ui_level"`
	ColorblindMode       bool               `toml:"colorblind_mode" json:"colorblind_mode"`
	KeyInputMode         int                `toml:"key_input_mode" json:"key_input_mode"`
	NtfyURL              string             `toml:"ntfy_url" json:"ntfy_url"`
	EnabledNotifications []NotificationKind `toml:"enabled_notifications" json:"enabled_notifications"`
	Analyzers            map[string]bool    `toml:"analyzers" json:"analyzers"`
	ReadOnlyMode         bool               `toml:"read_only_mode" json:"read_only_mode"`
}

// Default returns rayhunter-go's built-in defaults, used both as the
// starting point for Load and as the fallback when the config file is
// unreadable or malformed (spec §7 "ConfigError ... default config is
// substituted and a warning is logged").
func Default() *Config {
	return &Config{
		QmdlStorePath: "./qmdl",
		Port:          constants.DefaultHTTPPort,
		DebugMode:     false,
		Device:        DeviceOrbic,
		UILevel:       UILevelAnimated,
		KeyInputMode:  0,
		Analyzers:     map[string]bool{},
	}
}

// Load reads and decodes the TOML file at path, merging onto Default().
// A missing file is not an error: Default() alone is returned. A malformed
// file is a ConfigError; callers should log it and fall back to Default()
// per spec §7, which Load does for them.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Default(), rherr.Wrap(op, rherr.CodeConfigError, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return Default(), rherr.Wrap(op, rherr.CodeConfigError, err)
	}
	return cfg, nil
}

// Save encodes cfg as TOML and writes it to path, used by PUT /api/config.
func Save(path string, cfg *Config) error {
	const op = "config.Save"
	data, err := toml.Marshal(cfg)
	if err != nil {
		return rherr.Wrap(op, rherr.CodeConfigError, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return nil
}

// NotificationEnabled reports whether kind is present in
// EnabledNotifications.
func (c *Config) NotificationEnabled(kind NotificationKind) bool {
	for _, k := range c.EnabledNotifications {
		if k == kind {
			return true
		}
	}
	return false
}
