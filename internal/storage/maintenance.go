package storage

import (
	"context"
	"fmt"
	"time"
)

const (
	maintenanceInterval = 1 * time.Hour
	vacuumInterval      = 7 * 24 * time.Hour
)

func (s *SQLiteJournal) startMaintenance(ctx context.Context, retentionDays int) {
	go s.maintenanceLoop(ctx, retentionDays)
}

func (s *SQLiteJournal) maintenanceLoop(ctx context.Context, retentionDays int) {
	defer close(s.maintenanceDone)

	lastVacuum := time.Now()
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runMaintenanceCycle(time.Now(), retentionDays); err != nil {
				s.log.Error().Err(err).Msg("maintenance cycle failed")
			}

			if time.Since(lastVacuum) >= vacuumInterval {
				if _, err := s.db.Exec("VACUUM"); err != nil {
					s.log.Error().Err(err).Msg("VACUUM failed")
				} else {
					lastVacuum = time.Now()
				}
			}
		}
	}
}

// runMaintenanceCycle rolls up polls that are about to age out and then
// prunes everything older than the retention window.
func (s *SQLiteJournal) runMaintenanceCycle(now time.Time, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := formatTS(now.AddDate(0, 0, -retentionDays))

	if err := s.aggregateBefore(cutoff); err != nil {
		return fmt.Errorf("aggregating old polls: %w", err)
	}

	if _, err := s.db.Exec("DELETE FROM poll_log WHERE polled_at < ?", cutoff); err != nil {
		return fmt.Errorf("pruning old polls: %w", err)
	}

	if _, err := s.db.Exec("DELETE FROM reports WHERE reported_at < ?", cutoff); err != nil {
		return fmt.Errorf("pruning old reports: %w", err)
	}

	if _, err := s.db.Exec("DELETE FROM alert_observations WHERE last_seen < ?", cutoff); err != nil {
		return fmt.Errorf("pruning old observations: %w", err)
	}

	return nil
}
