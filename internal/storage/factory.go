package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nixlim/mission-control/internal/config"
)

// NewJournal opens the SQLite journal configured in cfg. An empty DBPath
// selects the in-memory journal. If SQLite cannot be opened the failure is
// logged and the in-memory journal is returned; the bool reports whether
// the returned journal persists across runs.
func NewJournal(cfg config.StorageConfig, log zerolog.Logger) (Journal, bool, error) {
	if cfg.DBPath == "" {
		return NewMemoryJournal(), false, nil
	}

	dbPath := expandTilde(cfg.DBPath)

	j, err := NewSQLiteJournal(dbPath, cfg.RetentionDays, WithLogger(log))
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("sqlite journal unavailable, falling back to in-memory journal")
		return NewMemoryJournal(), false, nil
	}

	return j, true, nil
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
