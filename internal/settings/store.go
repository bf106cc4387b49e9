package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
)

// SettingsStore provides database access for the single-row user
// settings record.
type SettingsStore struct {
	db *sql.DB
}

// NewSettingsStore creates a new SettingsStore backed by the given database.
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the stored settings, or the defaults when no row exists yet.
func (s *SettingsStore) Get(ctx context.Context) (hydration.Settings, error) {
	var out hydration.Settings
	var chime int
	err := s.db.QueryRowContext(ctx, `
		SELECT daily_goal_ml, reminder_interval_minutes, default_sip_ml,
			chime_enabled, sleep_start_hour, sleep_end_hour, snooze_duration_minutes
		FROM user_settings WHERE id = 1`,
	).Scan(
		&out.DailyGoalML, &out.ReminderIntervalMin, &out.DefaultSipML,
		&chime, &out.SleepStartHour, &out.SleepEndHour, &out.SnoozeMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return hydration.DefaultSettings(), nil
	}
	if err != nil {
		return out, fmt.Errorf("get settings: %w", err)
	}
	out.ChimeEnabled = chime != 0
	return out, nil
}

// Save persists the settings, replacing any previous row.
func (s *SettingsStore) Save(ctx context.Context, in hydration.Settings) error {
	chime := 0
	if in.ChimeEnabled {
		chime = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_settings (
			id, daily_goal_ml, reminder_interval_minutes, default_sip_ml,
			chime_enabled, sleep_start_hour, sleep_end_hour,
			snooze_duration_minutes, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.DailyGoalML, in.ReminderIntervalMin, in.DefaultSipML,
		chime, in.SleepStartHour, in.SleepEndHour, in.SnoozeMinutes,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Reset removes the stored row, reverting Get to the defaults.
func (s *SettingsStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_settings WHERE id = 1`); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	return nil
}
