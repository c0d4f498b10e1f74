package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

func DefaultConfig() Config {
	return Config{
		StatusAPI: StatusAPIConfig{
			BaseURL:               "http://127.0.0.1:5000",
			TokenEnv:              "MISSION_CONTROL_TOKEN",
			RequestTimeoutSeconds: 10,
		},
		Polling: PollingConfig{
			IntervalSeconds: 60,
		},
		Rotation: RotationConfig{
			CriticalSeconds: 10,
			WarningSeconds:  7,
			NormalSeconds:   4,
		},
		Reporter: ReporterConfig{
			DefaultTimeoutSeconds: 3600,
		},
		Receiver: ReceiverConfig{
			Enabled:  true,
			GRPCPort: 4317,
			HTTPPort: 4318,
			Bind:     "127.0.0.1",
		},
		Display: DisplayConfig{
			EventBufferSize: 500,
			RefreshRateMS:   250,
			TimeFormat:      "15:04:05",
		},
		Storage: StorageConfig{
			DBPath:        "~/.local/share/mission-control/journal.db",
			RetentionDays: 30,
		},
		Notifications: NotificationConfig{
			SystemNotify: true,
		},
	}
}

// WriteDefault writes the default configuration to path. An existing file
// is left alone and reported as an error.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(DefaultConfig()); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
