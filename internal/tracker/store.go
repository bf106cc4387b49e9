package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
)

// TrackerStore provides database access for the intake tracker module.
type TrackerStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTrackerStore creates a new TrackerStore backed by the given database.
func NewTrackerStore(db *sql.DB) *TrackerStore {
	return &TrackerStore{db: db, now: time.Now}
}

// InsertIntake records a drink event.
func (s *TrackerStore) InsertIntake(ctx context.Context, ev *hydration.IntakeEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hydration_logs (id, amount_ml, timestamp)
		VALUES (?, ?, ?)`,
		ev.ID, ev.AmountML, ev.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert intake: %w", err)
	}
	return nil
}

// GetIntake returns a single event by ID, or sql.ErrNoRows if missing.
func (s *TrackerStore) GetIntake(ctx context.Context, id string) (*hydration.IntakeEvent, error) {
	var ev hydration.IntakeEvent
	err := s.db.QueryRowContext(ctx, `
		SELECT id, amount_ml, timestamp FROM hydration_logs WHERE id = ?`,
		id,
	).Scan(&ev.ID, &ev.AmountML, &ev.Timestamp)
	if err != nil {
		return nil, err
	}
	ev.Timestamp = ev.Timestamp.Local()
	return &ev, nil
}

// RecentIntake returns events from the last N days, oldest first.
func (s *TrackerStore) RecentIntake(ctx context.Context, days int) ([]hydration.IntakeEvent, error) {
	if days <= 0 {
		days = 7
	}
	since := s.now().AddDate(0, 0, -days).UTC()
	return s.intakeSince(ctx, since)
}

// IntakeToday returns events since local midnight, oldest first.
func (s *TrackerStore) IntakeToday(ctx context.Context) ([]hydration.IntakeEvent, error) {
	return s.intakeSince(ctx, localMidnight(s.now()).UTC())
}

func (s *TrackerStore) intakeSince(ctx context.Context, since time.Time) ([]hydration.IntakeEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount_ml, timestamp FROM hydration_logs
		WHERE timestamp >= ? ORDER BY timestamp ASC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query intake: %w", err)
	}
	defer rows.Close()

	var events []hydration.IntakeEvent
	for rows.Next() {
		var ev hydration.IntakeEvent
		if err := rows.Scan(&ev.ID, &ev.AmountML, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan intake row: %w", err)
		}
		ev.Timestamp = ev.Timestamp.Local()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// TodayTotal returns the total milliliters logged since local midnight.
func (s *TrackerStore) TodayTotal(ctx context.Context) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(amount_ml) FROM hydration_logs WHERE timestamp >= ?`,
		localMidnight(s.now()).UTC(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("today total: %w", err)
	}
	return int(total.Int64), nil
}

// DailyTotals returns per-day intake totals for the last N days, oldest first.
// Days with no events are omitted.
func (s *TrackerStore) DailyTotals(ctx context.Context, days int) ([]hydration.DailyTotal, error) {
	if days <= 0 {
		days = 7
	}
	events, err := s.RecentIntake(ctx, days)
	if err != nil {
		return nil, err
	}

	// Bucket in Go so day boundaries follow the local timezone rather
	// than SQLite's date() on stored UTC values.
	totals := make(map[string]int)
	var order []string
	for _, ev := range events {
		day := ev.Timestamp.Format("2006-01-02")
		if _, seen := totals[day]; !seen {
			order = append(order, day)
		}
		totals[day] += ev.AmountML
	}

	out := make([]hydration.DailyTotal, 0, len(order))
	for _, day := range order {
		out = append(out, hydration.DailyTotal{Date: day, TotalML: totals[day]})
	}
	return out, nil
}

// HourlyTotals returns intake grouped by local hour of day over the last
// N days. All 24 hours are present, zero-filled.
func (s *TrackerStore) HourlyTotals(ctx context.Context, days int) ([]hydration.HourlyTotal, error) {
	events, err := s.RecentIntake(ctx, days)
	if err != nil {
		return nil, err
	}

	out := make([]hydration.HourlyTotal, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, ev := range events {
		h := ev.Timestamp.Hour()
		out[h].TotalML += ev.AmountML
		out[h].Drinks++
	}
	return out, nil
}

// ResetToday deletes all events since local midnight and returns the
// number of rows removed.
func (s *TrackerStore) ResetToday(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM hydration_logs WHERE timestamp >= ?`,
		localMidnight(s.now()).UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("reset today: %w", err)
	}
	return res.RowsAffected()
}

// DeleteIntake removes a single event by ID. Returns sql.ErrNoRows when
// no row matched.
func (s *TrackerStore) DeleteIntake(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hydration_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete intake: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteBefore removes events older than the cutoff. Used by log rotation.
func (s *TrackerStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM hydration_logs WHERE timestamp < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete before: %w", err)
	}
	return res.RowsAffected()
}

// localMidnight returns the start of the day containing t, in t's location.
func localMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
