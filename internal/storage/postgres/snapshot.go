package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
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
		var weekStart time.Time
		var reminder sql.NullString
		if err := habitRows.Scan(&h.ID, &h.Name, &h.Description, &h.Color, &h.Icon, &h.CreatedAt, &weekStart, &h.IsActive, &reminder); err != nil {
			return snap, fmt.Errorf("failed to scan habit: %w", err)
		}
		h.WeekStartDate = weekStart.Format(constants.DateFormat)
		if reminder.Valid {
			v := reminder.String
			h.ReminderTime = &v
		}
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
		var notes sql.NullString
		if err := logRows.Scan(&l.ID, &l.HabitID, &l.Date, &l.CompletedValue, &notes); err != nil {
			return snap, fmt.Errorf("failed to scan habit log: %w", err)
		}
		if notes.Valid {
			v := notes.String
			l.Notes = &v
		}
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
		var end sql.NullTime
		if err := sessionRows.Scan(&ts.ID, &ts.HabitID, &ts.StartTime, &end, &ts.Duration, &ts.IsActive); err != nil {
			return snap, fmt.Errorf("failed to scan timer session: %w", err)
		}
		if end.Valid {
			v := end.Time
			ts.EndTime = &v
		}
		snap.TimerSessions = append(snap.TimerSessions, ts)
	}
	return snap, sessionRows.Err()
}

// writeSnapshot replaces every row inside one transaction, bulk loading with COPY
func (s *Store) writeSnapshot(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "TRUNCATE timer_sessions, habit_logs, habits"); err != nil {
		return fmt.Errorf("failed to clear tables: %w", err)
	}

	habitRows := make([][]any, 0, len(snap.Habits))
	for i, h := range snap.Habits {
		habitRows = append(habitRows, []any{
			h.ID, i, h.Name, h.Description, h.Color, h.Icon, h.CreatedAt.UTC(),
			h.WeekStartDate, h.IsActive, nullable(h.ReminderTime),
		})
	}
	if err := copyRows(ctx, tx, "habits", []string{
		"id", "position", "name", "description", "color", "icon", "created_at",
		"week_start_date", "is_active", "reminder_time",
	}, habitRows); err != nil {
		return err
	}

	logRows := make([][]any, 0, len(snap.HabitLogs))
	for i, l := range snap.HabitLogs {
		logRows = append(logRows, []any{
			l.ID, i, l.HabitID, utils.DayKey(l.Date, s.loc), l.Date.UTC(), l.CompletedValue, nullable(l.Notes),
		})
	}
	if err := copyRows(ctx, tx, "habit_logs", []string{
		"id", "position", "habit_id", "day", "logged_at", "completed_value", "notes",
	}, logRows); err != nil {
		return err
	}

	sessionRows := make([][]any, 0, len(snap.TimerSessions))
	for i, ts := range snap.TimerSessions {
		var end any
		if ts.EndTime != nil {
			end = ts.EndTime.UTC()
		}
		sessionRows = append(sessionRows, []any{
			ts.ID, i, ts.HabitID, ts.StartTime.UTC(), end, ts.Duration, ts.IsActive,
		})
	}
	if err := copyRows(ctx, tx, "timer_sessions", []string{
		"id", "position", "habit_id", "start_time", "end_time", "duration", "is_active",
	}, sessionRows); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to copy row into %s: %w", table, err)
		}
	}
	// flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to copy into %s: %w", table, err)
	}
	return nil
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
