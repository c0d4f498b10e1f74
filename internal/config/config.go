package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	StatusAPI     StatusAPIConfig    `toml:"status_api"`
	Polling       PollingConfig      `toml:"polling"`
	Rotation      RotationConfig     `toml:"rotation"`
	Reporter      ReporterConfig     `toml:"reporter"`
	Receiver      ReceiverConfig     `toml:"receiver"`
	Display       DisplayConfig      `toml:"display"`
	Storage       StorageConfig      `toml:"storage"`
	Notifications NotificationConfig `toml:"notifications"`
}

type StatusAPIConfig struct {
	BaseURL               string `toml:"base_url"`
	Token                 string `toml:"token"`
	TokenEnv              string `toml:"token_env"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// ResolvedToken returns the bearer token, preferring the literal token over
// the environment variable named by TokenEnv.
func (c StatusAPIConfig) ResolvedToken() string {
	if c.Token != "" {
		return c.Token
	}
	if c.TokenEnv != "" {
		return os.Getenv(c.TokenEnv)
	}
	return ""
}

func (c StatusAPIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

type PollingConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

type RotationConfig struct {
	CriticalSeconds int `toml:"critical_seconds"`
	WarningSeconds  int `toml:"warning_seconds"`
	NormalSeconds   int `toml:"normal_seconds"`
}

type ReporterConfig struct {
	DefaultTimeoutSeconds int `toml:"default_timeout_seconds"`
}

type ReceiverConfig struct {
	Enabled  bool   `toml:"enabled"`
	GRPCPort int    `toml:"grpc_port"`
	HTTPPort int    `toml:"http_port"`
	Bind     string `toml:"bind"`
}

type DisplayConfig struct {
	EventBufferSize int    `toml:"event_buffer_size"`
	RefreshRateMS   int    `toml:"refresh_rate_ms"`
	TimeFormat      string `toml:"time_format"`
}

type StorageConfig struct {
	DBPath        string `toml:"db_path"`
	RetentionDays int    `toml:"retention_days"`
}

type NotificationConfig struct {
	SystemNotify bool `toml:"system_notify"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

var knownTopLevel = map[string]bool{
	"status_api":    true,
	"polling":       true,
	"rotation":      true,
	"reporter":      true,
	"receiver":      true,
	"display":       true,
	"storage":       true,
	"notifications": true,
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mission-control", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultConfigPath())
}

func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	result, err := decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := validate(&result.Config); err != nil {
		return nil, err
	}
	return result, nil
}

func LoadFromString(data string) (*LoadResult, error) {
	if data == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	result, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validate(&result.Config); err != nil {
		return nil, err
	}
	return result, nil
}

// decode applies only the keys present in data on top of the defaults and
// reports unknown top-level keys as warnings.
func decode(data string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, err
	}
	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, err
	}

	mergeFromRaw(&result.Config, &tf, raw)
	return result, nil
}

type tomlFile struct {
	StatusAPI     *StatusAPIConfig    `toml:"status_api"`
	Polling       *PollingConfig      `toml:"polling"`
	Rotation      *RotationConfig     `toml:"rotation"`
	Reporter      *ReporterConfig     `toml:"reporter"`
	Receiver      *ReceiverConfig     `toml:"receiver"`
	Display       *DisplayConfig      `toml:"display"`
	Storage       *StorageConfig      `toml:"storage"`
	Notifications *NotificationConfig `toml:"notifications"`
}

func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.StatusAPI != nil {
		if section, ok := rawSection(raw, "status_api"); ok {
			if _, exists := section["base_url"]; exists {
				cfg.StatusAPI.BaseURL = tf.StatusAPI.BaseURL
			}
			if _, exists := section["token"]; exists {
				cfg.StatusAPI.Token = tf.StatusAPI.Token
			}
			if _, exists := section["token_env"]; exists {
				cfg.StatusAPI.TokenEnv = tf.StatusAPI.TokenEnv
			}
			if _, exists := section["request_timeout_seconds"]; exists {
				cfg.StatusAPI.RequestTimeoutSeconds = tf.StatusAPI.RequestTimeoutSeconds
			}
		}
	}
	if tf.Polling != nil {
		if section, ok := rawSection(raw, "polling"); ok {
			if _, exists := section["interval_seconds"]; exists {
				cfg.Polling.IntervalSeconds = tf.Polling.IntervalSeconds
			}
		}
	}
	if tf.Rotation != nil {
		if section, ok := rawSection(raw, "rotation"); ok {
			if _, exists := section["critical_seconds"]; exists {
				cfg.Rotation.CriticalSeconds = tf.Rotation.CriticalSeconds
			}
			if _, exists := section["warning_seconds"]; exists {
				cfg.Rotation.WarningSeconds = tf.Rotation.WarningSeconds
			}
			if _, exists := section["normal_seconds"]; exists {
				cfg.Rotation.NormalSeconds = tf.Rotation.NormalSeconds
			}
		}
	}
	if tf.Reporter != nil {
		if section, ok := rawSection(raw, "reporter"); ok {
			if _, exists := section["default_timeout_seconds"]; exists {
				cfg.Reporter.DefaultTimeoutSeconds = tf.Reporter.DefaultTimeoutSeconds
			}
		}
	}
	if tf.Receiver != nil {
		if section, ok := rawSection(raw, "receiver"); ok {
			if _, exists := section["enabled"]; exists {
				cfg.Receiver.Enabled = tf.Receiver.Enabled
			}
			if _, exists := section["grpc_port"]; exists {
				cfg.Receiver.GRPCPort = tf.Receiver.GRPCPort
			}
			if _, exists := section["http_port"]; exists {
				cfg.Receiver.HTTPPort = tf.Receiver.HTTPPort
			}
			if _, exists := section["bind"]; exists {
				cfg.Receiver.Bind = tf.Receiver.Bind
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["event_buffer_size"]; exists {
				cfg.Display.EventBufferSize = tf.Display.EventBufferSize
			}
			if _, exists := section["refresh_rate_ms"]; exists {
				cfg.Display.RefreshRateMS = tf.Display.RefreshRateMS
			}
			if _, exists := section["time_format"]; exists {
				cfg.Display.TimeFormat = tf.Display.TimeFormat
			}
		}
	}
	if tf.Storage != nil {
		if section, ok := rawSection(raw, "storage"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.Storage.DBPath = tf.Storage.DBPath
			}
			if _, exists := section["retention_days"]; exists {
				cfg.Storage.RetentionDays = tf.Storage.RetentionDays
			}
		}
	}
	if tf.Notifications != nil {
		if section, ok := rawSection(raw, "notifications"); ok {
			if _, exists := section["system_notify"]; exists {
				cfg.Notifications.SystemNotify = tf.Notifications.SystemNotify
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.StatusAPI.BaseURL == "" {
		errs = append(errs, "status_api base_url must not be empty")
	} else if u, err := url.Parse(cfg.StatusAPI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("status_api base_url must be an absolute URL, got %q", cfg.StatusAPI.BaseURL))
	}
	if cfg.StatusAPI.RequestTimeoutSeconds < 1 {
		errs = append(errs, fmt.Sprintf("status_api request_timeout_seconds must be positive, got %d", cfg.StatusAPI.RequestTimeoutSeconds))
	}

	if cfg.Polling.IntervalSeconds < 1 {
		errs = append(errs, fmt.Sprintf("polling interval_seconds must be positive, got %d", cfg.Polling.IntervalSeconds))
	}
	if cfg.Polling.IntervalSeconds > 0 && cfg.StatusAPI.RequestTimeoutSeconds > cfg.Polling.IntervalSeconds {
		errs = append(errs, fmt.Sprintf("status_api request_timeout_seconds (%d) must not exceed polling interval_seconds (%d)",
			cfg.StatusAPI.RequestTimeoutSeconds, cfg.Polling.IntervalSeconds))
	}

	if cfg.Rotation.CriticalSeconds < 1 {
		errs = append(errs, fmt.Sprintf("rotation critical_seconds must be positive, got %d", cfg.Rotation.CriticalSeconds))
	}
	if cfg.Rotation.WarningSeconds < 1 {
		errs = append(errs, fmt.Sprintf("rotation warning_seconds must be positive, got %d", cfg.Rotation.WarningSeconds))
	}
	if cfg.Rotation.NormalSeconds < 1 {
		errs = append(errs, fmt.Sprintf("rotation normal_seconds must be positive, got %d", cfg.Rotation.NormalSeconds))
	}

	if cfg.Reporter.DefaultTimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("reporter default_timeout_seconds must not be negative, got %d", cfg.Reporter.DefaultTimeoutSeconds))
	}

	if cfg.Receiver.GRPCPort < 1 || cfg.Receiver.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("grpc_port must be 1-65535, got %d", cfg.Receiver.GRPCPort))
	}
	if cfg.Receiver.HTTPPort < 1 || cfg.Receiver.HTTPPort > 65535 {
		errs = append(errs, fmt.Sprintf("http_port must be 1-65535, got %d", cfg.Receiver.HTTPPort))
	}
	if cfg.Receiver.GRPCPort == cfg.Receiver.HTTPPort {
		errs = append(errs, fmt.Sprintf("grpc_port and http_port must differ, both are %d", cfg.Receiver.GRPCPort))
	}

	if cfg.Display.EventBufferSize < 1 {
		errs = append(errs, fmt.Sprintf("event_buffer_size must be positive, got %d", cfg.Display.EventBufferSize))
	}
	if cfg.Display.RefreshRateMS < 1 {
		errs = append(errs, fmt.Sprintf("refresh_rate_ms must be positive, got %d", cfg.Display.RefreshRateMS))
	}
	if strings.TrimSpace(cfg.Display.TimeFormat) == "" {
		errs = append(errs, "display time_format must not be empty")
	}

	if cfg.Storage.RetentionDays <= 0 {
		errs = append(errs, fmt.Sprintf("storage retention_days must be positive, got %d", cfg.Storage.RetentionDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}
