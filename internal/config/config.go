// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for taskchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.taskchat/config.toml
//   - ~/.taskchat/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/taskdesk/taskchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete taskchat configuration.
type Config struct {
	// Version of the config schema, for future migrations.
	Version string `toml:"version" json:"version"`

	// Server holds the backend HTTP endpoints.
	Server ServerConfig `toml:"server" json:"server"`

	// Channel holds realtime channel tuning.
	Channel ChannelConfig `toml:"channel" json:"channel"`

	// Upload holds file sharing limits.
	Upload UploadConfig `toml:"upload" json:"upload"`

	// Export holds chat export destinations.
	Export ExportConfig `toml:"export" json:"export"`

	// General holds general chat room settings.
	General GeneralConfig `toml:"general" json:"general"`

	// Identity holds the persisted login record location.
	Identity IdentityConfig `toml:"identity" json:"identity"`

	// UI configuration.
	UI UIConfig `toml:"ui" json:"ui"`
}

// ServerConfig contains backend HTTP configuration.
type ServerConfig struct {
	// BaseURL is the root of the backend REST API.
	BaseURL string `toml:"base_url" json:"base_url"`
	// SocketURL is the realtime channel endpoint. Empty derives it from
	// BaseURL by swapping the scheme to ws/wss.
	SocketURL string `toml:"socket_url" json:"socket_url"`
	// RequestTimeoutSecs bounds each REST round trip.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes int64 `toml:"max_response_bytes" json:"max_response_bytes"`
}

// ChannelConfig contains realtime channel configuration.
type ChannelConfig struct {
	// ReconnectAttempts is how many times a dropped connection is retried
	// before giving up.
	ReconnectAttempts int `toml:"reconnect_attempts" json:"reconnect_attempts"`
	// ReconnectDelayMS is the fixed pause between reconnect attempts.
	ReconnectDelayMS int `toml:"reconnect_delay_ms" json:"reconnect_delay_ms"`
	// PingIntervalSecs is how often keepalive pings are sent. 0 disables.
	PingIntervalSecs int `toml:"ping_interval_secs" json:"ping_interval_secs"`
	// WriteTimeoutSecs bounds each outbound frame write.
	WriteTimeoutSecs int `toml:"write_timeout_secs" json:"write_timeout_secs"`
}

// UploadConfig contains file sharing configuration.
type UploadConfig struct {
	// MaxBytes is the largest file the client will upload. 0 = unlimited.
	MaxBytes int64 `toml:"max_bytes" json:"max_bytes"`
}

// ExportConfig contains chat export configuration.
type ExportConfig struct {
	// Dir is where exported transcripts land. Empty = current directory.
	Dir string `toml:"dir" json:"dir"`
}

// GeneralConfig contains general chat room configuration.
type GeneralConfig struct {
	// RoomKey is the shared room every worker may join without validation.
	RoomKey string `toml:"room_key" json:"room_key"`
	// ResendCooldownMS is the minimum gap between consecutive sends.
	ResendCooldownMS int `toml:"resend_cooldown_ms" json:"resend_cooldown_ms"`
}

// IdentityConfig contains identity persistence configuration.
type IdentityConfig struct {
	// Path overrides the identity file location (default ~/.taskchat/identity.json).
	Path string `toml:"path" json:"path"`
	// Watch enables reloading the identity file when another process edits it.
	Watch bool `toml:"watch" json:"watch"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ShowTimestamps renders the clock next to each message
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			BaseURL:            "http://127.0.0.1:5000",
			SocketURL:          "", // derived from BaseURL
			RequestTimeoutSecs: 30,
			MaxResponseBytes:   10 * 1024 * 1024,
		},

		Channel: ChannelConfig{
			ReconnectAttempts: 5,
			ReconnectDelayMS:  1000,
			PingIntervalSecs:  30,
			WriteTimeoutSecs:  10,
		},

		Upload: UploadConfig{
			MaxBytes: 25 * 1024 * 1024,
		},

		Export: ExportConfig{
			Dir: "",
		},

		General: GeneralConfig{
			RoomKey:          "general",
			ResendCooldownMS: 500,
		},

		Identity: IdentityConfig{
			Path:  "",
			Watch: true,
		},

		UI: UIConfig{
			Theme:          "dark",
			CompactMode:    false,
			ShowTimestamps: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the taskchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".taskchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finalize(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finalize(cfg)
			}
		}
	}

	// Defaults, plus whatever load error occurred for informational purposes.
	out, err := finalize(cfg)
	if err != nil {
		return nil, err
	}
	return out, loadErr
}

// finalize applies env overrides, defaults, and validation in order.
func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finalize(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = defaults.Server.BaseURL
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = defaults.Server.RequestTimeoutSecs
	}
	if cfg.Server.MaxResponseBytes == 0 {
		cfg.Server.MaxResponseBytes = defaults.Server.MaxResponseBytes
	}
	if cfg.Channel.ReconnectAttempts == 0 {
		cfg.Channel.ReconnectAttempts = defaults.Channel.ReconnectAttempts
	}
	if cfg.Channel.ReconnectDelayMS == 0 {
		cfg.Channel.ReconnectDelayMS = defaults.Channel.ReconnectDelayMS
	}
	if cfg.Channel.WriteTimeoutSecs == 0 {
		cfg.Channel.WriteTimeoutSecs = defaults.Channel.WriteTimeoutSecs
	}
	if cfg.General.RoomKey == "" {
		cfg.General.RoomKey = defaults.General.RoomKey
	}
	if cfg.General.ResendCooldownMS == 0 {
		cfg.General.ResendCooldownMS = defaults.General.ResendCooldownMS
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	fmt.Fprintln(file, "# taskchat configuration file")
	fmt.Fprintln(file, "# Generated by taskchat - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, err := url.Parse(c.Server.BaseURL); err != nil || c.Server.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: "must be a valid URL",
		})
	}
	if c.Server.SocketURL != "" {
		u, err := url.Parse(c.Server.SocketURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			errs = append(errs, ValidationError{
				Field:   "server.socket_url",
				Message: "must be a ws:// or wss:// URL",
			})
		}
	}
	if c.Server.RequestTimeoutSecs < 1 || c.Server.RequestTimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout_secs",
			Message: "must be between 1 and 600",
		})
	}
	if c.Channel.ReconnectAttempts < 0 || c.Channel.ReconnectAttempts > 100 {
		errs = append(errs, ValidationError{
			Field:   "channel.reconnect_attempts",
			Message: "must be between 0 and 100",
		})
	}
	if c.Channel.ReconnectDelayMS < 0 {
		errs = append(errs, ValidationError{
			Field:   "channel.reconnect_delay_ms",
			Message: "must not be negative",
		})
	}
	if c.Upload.MaxBytes < 0 {
		errs = append(errs, ValidationError{
			Field:   "upload.max_bytes",
			Message: "must not be negative",
		})
	}
	if c.General.ResendCooldownMS < 0 {
		errs = append(errs, ValidationError{
			Field:   "general.resend_cooldown_ms",
			Message: "must not be negative",
		})
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: `must be one of "dark", "light", "auto"`,
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults clamps or repairs values that are technically parseable but
// unusable, leaving validation to reject only genuinely bad input.
func (c *Config) SetDefaults() {
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = Default().Server.RequestTimeoutSecs
	}
	if c.Server.SocketURL == "" {
		c.Server.SocketURL = DeriveSocketURL(c.Server.BaseURL)
	}
}

// DeriveSocketURL converts an http(s) base URL into the matching ws(s)
// endpoint. Malformed input comes back unchanged and is caught by Validate.
func DeriveSocketURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	return u.String()
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies TASKCHAT_* environment variables over the
// loaded configuration. Environment always wins over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TASKCHAT_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("TASKCHAT_SOCKET_URL"); v != "" {
		c.Server.SocketURL = v
	}
	if v := os.Getenv("TASKCHAT_REQUEST_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.RequestTimeoutSecs = n
		}
	}
	if v := os.Getenv("TASKCHAT_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Channel.ReconnectAttempts = n
		}
	}
	if v := os.Getenv("TASKCHAT_RECONNECT_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Channel.ReconnectDelayMS = n
		}
	}
	if v := os.Getenv("TASKCHAT_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("TASKCHAT_IDENTITY_PATH"); v != "" {
		c.Identity.Path = v
	}
	if v := os.Getenv("TASKCHAT_GENERAL_ROOM"); v != "" {
		c.General.RoomKey = v
	}
	if v := os.Getenv("TASKCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	// Use sync.Once to ensure initialization happens exactly once
	globalConfigOnce.Do(func() {
		globalConfigMu.Lock()
		defer globalConfigMu.Unlock()
		if globalConfig != nil {
			// Already injected via SetGlobal.
			return
		}
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.SetDefaults()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
