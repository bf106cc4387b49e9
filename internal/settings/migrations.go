package settings

import (
	"database/sql"

	"github.com/hydraping/hydraping/pkg/plugin"
)

// migrations returns the settings module's database migrations.
// user_settings is a single-row table; the id CHECK pins the row.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create user settings table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS user_settings (
						id                        INTEGER PRIMARY KEY CHECK (id = 1),
						daily_goal_ml             INTEGER NOT NULL,
						reminder_interval_minutes INTEGER NOT NULL,
						default_sip_ml            INTEGER NOT NULL,
						chime_enabled             INTEGER NOT NULL,
						sleep_start_hour          INTEGER NOT NULL,
						sleep_end_hour            INTEGER NOT NULL,
						snooze_duration_minutes   INTEGER NOT NULL,
						updated_at                DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`)
				return err
			},
		},
	}
}
