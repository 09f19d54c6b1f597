// Package config provides configuration loading and defaults for the
// fortpresence daemon.
//
// Configuration is loaded from a TOML file in the user's data directory.
// The package covers Discord presence settings, display-line selection,
// map privacy controls, lookup credentials, and daemon behavior with
// sensible defaults.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/fortwatch/fortpresence/internal/atomicfile"
	"github.com/fortwatch/fortpresence/internal/migrate"
	"github.com/fortwatch/fortpresence/internal/paths"
)

// DefaultDiscordAppID is the fortpresence Discord application ID.
const DefaultDiscordAppID = "429389143756374017"

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version"`
	// Discord holds Discord connection settings.
	Discord DiscordConfig `toml:"discord"`
	// Display holds presence display settings.
	Display DisplayConfig `toml:"display"`
	// Privacy holds map-hiding settings.
	Privacy PrivacyConfig `toml:"privacy"`
	// Behavior holds polling and cache behavior settings.
	Behavior BehaviorConfig `toml:"behavior"`
	// Network holds lookup service settings.
	Network NetworkConfig `toml:"network"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	// AppID is the Discord application ID for Rich Presence.
	AppID string `toml:"app_id"`
}

// DisplayConfig holds presence display settings.
type DisplayConfig struct {
	// TopLine selects what the details line shows while in game. One of
	// "player_count", "kills", "time_on_map", "class", or "blank".
	TopLine string `toml:"top_line"`
	// BottomLine selects what the state line shows while in game. Same
	// tokens as TopLine.
	BottomLine string `toml:"bottom_line"`
	// HideQueuedGamemode replaces the queued gamemode with generic text.
	HideQueuedGamemode bool `toml:"hide_queued_gamemode"`
	// Timestamps controls the elapsed timer: "elapsed" counts from the
	// game's launch, "map" from the last map change, "none" hides it.
	Timestamps string `toml:"timestamps"`
}

// lineTokens is the set of accepted display line selections.
var lineTokens = map[string]bool{
	"player_count": true, "kills": true, "time_on_map": true,
	"class": true, "blank": true,
}

// WantsServerData reports whether either display line needs a live server
// query, which keeps the query lazy when neither does.
func (d DisplayConfig) WantsServerData() bool {
	return d.TopLine == "player_count" || d.BottomLine == "player_count"
}

// PrivacyConfig holds map privacy settings.
type PrivacyConfig struct {
	// HideMapPatterns lists glob patterns (doublestar syntax) for map
	// names that must not be published.
	HideMapPatterns []string `toml:"hide_map_patterns"`
	// HiddenMapText replaces a hidden map's name in presence text.
	HiddenMapText string `toml:"hidden_map_text"`
}

// MapHidden reports whether mapName matches any hide pattern. Invalid
// patterns are treated as non-matching and logged once per call site.
func (p PrivacyConfig) MapHidden(mapName string) bool {
	for _, pattern := range p.HideMapPatterns {
		ok, err := doublestar.Match(pattern, mapName)
		if err != nil {
			slog.Warn("invalid hide_map_patterns entry", "pattern", pattern, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// BehaviorConfig holds polling and cache behavior settings.
type BehaviorConfig struct {
	// WaitTimeSeconds is the sleep between ticks while everything runs.
	WaitTimeSeconds int `toml:"wait_time_seconds"`
	// WaitTimeSlowSeconds is the sleep while a required process is missing.
	WaitTimeSlowSeconds int `toml:"wait_time_slow_seconds"`
	// RequestTimeoutSeconds bounds each remote gamemode lookup.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
	// MapInvalidationHours is the custom map cache TTL.
	MapInvalidationHours int `toml:"map_invalidation_hours"`
	// ServerQuerySeconds is the minimum spacing between server queries.
	ServerQuerySeconds int `toml:"server_query_seconds"`
	// CheckUpdates enables the release manifest check at startup.
	CheckUpdates bool `toml:"check_updates"`
}

// WaitTime returns the normal inter-tick sleep.
func (b BehaviorConfig) WaitTime() time.Duration {
	return time.Duration(b.WaitTimeSeconds) * time.Second
}

// WaitTimeSlow returns the inter-tick sleep used while waiting for a
// required process.
func (b BehaviorConfig) WaitTimeSlow() time.Duration {
	return time.Duration(b.WaitTimeSlowSeconds) * time.Second
}

// RequestTimeout returns the remote lookup timeout.
func (b BehaviorConfig) RequestTimeout() time.Duration {
	return time.Duration(b.RequestTimeoutSeconds) * time.Second
}

// MapTTL returns the custom map cache TTL.
func (b BehaviorConfig) MapTTL() time.Duration {
	return time.Duration(b.MapInvalidationHours) * time.Hour
}

// ServerQueryInterval returns the minimum spacing between server queries.
func (b BehaviorConfig) ServerQueryInterval() time.Duration {
	return time.Duration(b.ServerQuerySeconds) * time.Second
}

// NetworkConfig holds lookup service settings.
type NetworkConfig struct {
	// TeamworkAPIKey authenticates map-stats lookups against teamwork.tf.
	TeamworkAPIKey string `toml:"teamwork_api_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: migrate.Config.CurrentVersion,
		Discord: DiscordConfig{
			AppID: DefaultDiscordAppID,
		},
		Display: DisplayConfig{
			TopLine:            "player_count",
			BottomLine:         "time_on_map",
			HideQueuedGamemode: false,
			Timestamps:         "elapsed",
		},
		Privacy: PrivacyConfig{
			HideMapPatterns: []string{},
			HiddenMapText:   "a hidden map",
		},
		Behavior: BehaviorConfig{
			WaitTimeSeconds:       2,
			WaitTimeSlowSeconds:   5,
			RequestTimeoutSeconds: 5,
			MapInvalidationHours:  24,
			ServerQuerySeconds:    10,
			CheckUpdates:          true,
		},
		Network: NetworkConfig{
			TeamworkAPIKey: "",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ExampleConfig returns a Config suitable for generating
// config.default.toml. A placeholder API key documents where a real one
// goes without shipping a credential.
func ExampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Network.TeamworkAPIKey = "your-teamwork-tf-api-key"
	return cfg
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil {
		return 1
	}
	if v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// A missing file yields DefaultConfig. Older schema versions are backed up
// and migrated, then re-saved.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	version := PeekVersion(data)

	shouldMigrate := version != migrate.Config.CurrentVersion
	if shouldMigrate {
		if backupErr := os.WriteFile(path+".bak", data, 0o644); backupErr != nil {
			slog.Warn("failed to write config backup", "error", backupErr)
		}
		var migrateErr error
		data, _, migrateErr = migrate.Config.Run(data, version)
		if migrateErr != nil {
			return nil, fmt.Errorf("migrate config: %w", migrateErr)
		}
	}

	if migrate.Config.HasDev() {
		var devErr error
		data, devErr = migrate.Config.RunDev(data)
		if devErr != nil {
			return nil, fmt.Errorf("apply dev transforms: %w", devErr)
		}
		shouldMigrate = true
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Version = migrate.Config.CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if shouldMigrate {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "error", err)
		}
	}

	return cfg, nil
}

// Save writes the config to disk as TOML using an atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	"fail": true,
}

// Validate checks that all configuration values are within acceptable
// ranges.
func (c *Config) Validate() error {
	if !lineTokens[c.Display.TopLine] {
		return fmt.Errorf("invalid display.top_line %q: must be player_count, kills, time_on_map, class, or blank", c.Display.TopLine)
	}
	if !lineTokens[c.Display.BottomLine] {
		return fmt.Errorf("invalid display.bottom_line %q: must be player_count, kills, time_on_map, class, or blank", c.Display.BottomLine)
	}

	switch c.Display.Timestamps {
	case "elapsed", "map", "none":
	default:
		return fmt.Errorf("invalid display.timestamps %q: must be elapsed, map, or none", c.Display.Timestamps)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, error, or fail", c.Log.Level)
	}

	if c.Behavior.WaitTimeSeconds <= 0 {
		return fmt.Errorf("wait_time_seconds must be > 0, got %d", c.Behavior.WaitTimeSeconds)
	}
	if c.Behavior.WaitTimeSlowSeconds < c.Behavior.WaitTimeSeconds {
		return fmt.Errorf("wait_time_slow_seconds must be >= wait_time_seconds, got %d < %d",
			c.Behavior.WaitTimeSlowSeconds, c.Behavior.WaitTimeSeconds)
	}
	if c.Behavior.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be > 0, got %d", c.Behavior.RequestTimeoutSeconds)
	}
	if c.Behavior.MapInvalidationHours <= 0 {
		return fmt.Errorf("map_invalidation_hours must be > 0, got %d", c.Behavior.MapInvalidationHours)
	}
	if c.Behavior.ServerQuerySeconds <= 0 {
		return fmt.Errorf("server_query_seconds must be > 0, got %d", c.Behavior.ServerQuerySeconds)
	}

	for _, pattern := range c.Privacy.HideMapPatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid hide_map_patterns entry %q", pattern)
		}
	}

	return nil
}
