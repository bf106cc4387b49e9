package tracker

import (
	"database/sql"

	"github.com/hydraping/hydraping/pkg/plugin"
)

// migrations returns the tracker module's database migrations.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create hydration log table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS hydration_logs (
						id         TEXT PRIMARY KEY,
						amount_ml  INTEGER NOT NULL,
						timestamp  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_hydration_logs_timestamp ON hydration_logs(timestamp)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
