package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/internal/utils"
)

func (s *Store) readSnapshot(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{}

	habitRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, color, icon, created_at, week_start_date, is_active, reminder_time
		FROM habits ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("failed to query habits: %w", err)
	}
	defer habitRows.Close()

	for habitRows.Next() {
		var h models.Habit
		var createdAt string
		var reminder sql.NullString
		if err := habitRows.Scan(&h.ID, &h.Name, &h.Description, &h.Color, &h.Icon, &createdAt, &h.WeekStartDate, &h.IsActive, &reminder); err != nil {
			return snap, fmt.Errorf("failed to scan habit: %w", err)
		}
		if h.CreatedAt, err = parseTime(createdAt); err != nil {
			return snap, storage.Corrupt("habit %s: %v", h.ID, err)
		}
		h.ReminderTime = nullString(reminder)
		snap.Habits = append(snap.Habits, h)
	}
	if err := habitRows.Err(); err != nil {
		return snap, err
	}

	logRows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, logged_at, completed_value, notes
		FROM habit_logs ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("failed to query habit logs: %w", err)
	}
	defer logRows.Close()

	for logRows.Next() {
		var l models.HabitLog
		var loggedAt string
		var notes sql.NullString
		if err := logRows.Scan(&l.ID, &l.HabitID, &loggedAt, &l.CompletedValue, &notes); err != nil {
			return snap, fmt.Errorf("failed to scan habit log: %w", err)
		}
		if l.Date, err = parseTime(loggedAt); err != nil {
			return snap, storage.Corrupt("habit log %s: %v", l.ID, err)
		}
		l.Notes = nullString(notes)
		snap.HabitLogs = append(snap.HabitLogs, l)
	}
	if err := logRows.Err(); err != nil {
		return snap, err
	}

	sessionRows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, start_time, end_time, duration, is_active
		FROM timer_sessions ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("failed to query timer sessions: %w", err)
	}
	defer sessionRows.Close()

	for sessionRows.Next() {
		var ts models.TimerSession
		var start string
		var end sql.NullString
		if err := sessionRows.Scan(&ts.ID, &ts.HabitID, &start, &end, &ts.Duration, &ts.IsActive); err != nil {
			return snap, fmt.Errorf("failed to scan timer session: %w", err)
		}
		if ts.StartTime, err = parseTime(start); err != nil {
			return snap, storage.Corrupt("timer session %s: %v", ts.ID, err)
		}
		if end.Valid {
			endTime, err := parseTime(end.String)
			if err != nil {
				return snap, storage.Corrupt("timer session %s: %v", ts.ID, err)
			}
			ts.EndTime = &endTime
		}
		snap.TimerSessions = append(snap.TimerSessions, ts)
	}
	return snap, sessionRows.Err()
}

// writeSnapshot replaces every row inside one transaction
func (s *Store) writeSnapshot(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"timer_sessions", "habit_logs", "habits"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	habitStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO habits (id, position, name, description, color, icon, created_at, week_start_date, is_active, reminder_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer habitStmt.Close()
	for i, h := range snap.Habits {
		if _, err := habitStmt.ExecContext(ctx, h.ID, i, h.Name, h.Description, h.Color, h.Icon,
			formatTime(h.CreatedAt), h.WeekStartDate, h.IsActive, h.ReminderTime); err != nil {
			return fmt.Errorf("failed to insert habit %s: %w", h.ID, err)
		}
	}

	logStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO habit_logs (id, position, habit_id, day, logged_at, completed_value, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer logStmt.Close()
	for i, l := range snap.HabitLogs {
		if _, err := logStmt.ExecContext(ctx, l.ID, i, l.HabitID, utils.DayKey(l.Date, s.loc),
			formatTime(l.Date), l.CompletedValue, l.Notes); err != nil {
			return fmt.Errorf("failed to insert habit log %s: %w", l.ID, err)
		}
	}

	sessionStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO timer_sessions (id, position, habit_id, start_time, end_time, duration, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer sessionStmt.Close()
	for i, ts := range snap.TimerSessions {
		var end *string
		if ts.EndTime != nil {
			v := formatTime(*ts.EndTime)
			end = &v
		}
		if _, err := sessionStmt.ExecContext(ctx, ts.ID, i, ts.HabitID, formatTime(ts.StartTime),
			end, ts.Duration, ts.IsActive); err != nil {
			return fmt.Errorf("failed to insert timer session %s: %w", ts.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
