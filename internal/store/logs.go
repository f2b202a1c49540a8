package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/roach88/healthsync/internal/domain"
)

// LogTable stores one activity log kind. Rows are append-only; there is
// no update path.
type LogTable[L any] struct {
	store   *Store
	table   string
	columns []string // after id, in insert/select order
	values  func(L) []any
	scan    func(scanner) (L, error)
}

// Create inserts the log with a fresh id and returns the id. The row is
// committed when Create returns.
func (t *LogTable[L]) Create(ctx context.Context, l L) (string, error) {
	id := t.store.ids.NewID()
	args := append([]any{id}, t.values(l)...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")

	_, err := t.store.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, %s) VALUES (%s)", t.table, strings.Join(t.columns, ", "), placeholders),
		args...,
	)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", t.table, err)
	}
	return id, nil
}

// GetByDate returns the day's logs ordered by creation time.
// Returns an empty slice (not nil) if there are none.
func (t *LogTable[L]) GetByDate(ctx context.Context, userID string, date civil.Date) ([]L, error) {
	return t.query(ctx, "WHERE user_id = ? AND log_date = ? ORDER BY created_at ASC, id ASC",
		userID, date.String())
}

// GetRange returns logs dated within [start, end] inclusive, ordered by
// date then creation time.
func (t *LogTable[L]) GetRange(ctx context.Context, userID string, start, end civil.Date) ([]L, error) {
	return t.query(ctx, "WHERE user_id = ? AND log_date >= ? AND log_date <= ? ORDER BY log_date ASC, created_at ASC, id ASC",
		userID, start.String(), end.String())
}

func (t *LogTable[L]) query(ctx context.Context, where string, args ...any) ([]L, error) {
	rows, err := t.store.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, %s FROM %s %s", strings.Join(t.columns, ", "), t.table, where),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.table, err)
	}
	defer rows.Close()

	logs := []L{}
	for rows.Next() {
		l, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.table, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.table, err)
	}
	return logs, nil
}

// Meals returns the meal log table.
func (s *Store) Meals() *LogTable[domain.MealLog] {
	return &LogTable[domain.MealLog]{
		store:   s,
		table:   "meal_logs",
		columns: []string{"user_id", "log_date", "meal_id", "servings", "created_at"},
		values: func(l domain.MealLog) []any {
			return []any{l.UserID, l.Date.String(), l.MealID, formatDecimal(l.Servings), formatTime(l.CreatedAt)}
		},
		scan: func(sc scanner) (domain.MealLog, error) {
			var (
				l                domain.MealLog
				logDate, created string
				servings         sql.NullString
			)
			if err := sc.Scan(&l.ID, &l.UserID, &logDate, &l.MealID, &servings, &created); err != nil {
				return l, err
			}
			l.Servings = parseDecimal(servings)
			return l, decodeCommon(logDate, created, &l.Date, &l.CreatedAt)
		},
	}
}

// Exercises returns the exercise log table.
func (s *Store) Exercises() *LogTable[domain.ExerciseLog] {
	return &LogTable[domain.ExerciseLog]{
		store:   s,
		table:   "exercise_logs",
		columns: []string{"user_id", "log_date", "exercise_id", "duration_minutes", "calories_burned", "created_at"},
		values: func(l domain.ExerciseLog) []any {
			return []any{l.UserID, l.Date.String(), l.ExerciseID, formatDecimal(l.DurationMinutes), l.CaloriesBurned, formatTime(l.CreatedAt)}
		},
		scan: func(sc scanner) (domain.ExerciseLog, error) {
			var (
				l                domain.ExerciseLog
				logDate, created string
				duration         sql.NullString
			)
			if err := sc.Scan(&l.ID, &l.UserID, &logDate, &l.ExerciseID, &duration, &l.CaloriesBurned, &created); err != nil {
				return l, err
			}
			l.DurationMinutes = parseDecimal(duration)
			return l, decodeCommon(logDate, created, &l.Date, &l.CreatedAt)
		},
	}
}

// Sleep returns the sleep log table.
func (s *Store) Sleep() *LogTable[domain.SleepLog] {
	return &LogTable[domain.SleepLog]{
		store:   s,
		table:   "sleep_logs",
		columns: []string{"user_id", "log_date", "duration_hours", "quality", "notes", "created_at"},
		values: func(l domain.SleepLog) []any {
			return []any{l.UserID, l.Date.String(), formatDecimal(l.DurationHours), l.Quality, l.Notes, formatTime(l.CreatedAt)}
		},
		scan: func(sc scanner) (domain.SleepLog, error) {
			var (
				l                domain.SleepLog
				logDate, created string
				duration         sql.NullString
			)
			if err := sc.Scan(&l.ID, &l.UserID, &logDate, &duration, &l.Quality, &l.Notes, &created); err != nil {
				return l, err
			}
			l.DurationHours = parseDecimal(duration)
			return l, decodeCommon(logDate, created, &l.Date, &l.CreatedAt)
		},
	}
}

// Water returns the water log table.
func (s *Store) Water() *LogTable[domain.WaterLog] {
	return &LogTable[domain.WaterLog]{
		store:   s,
		table:   "water_logs",
		columns: []string{"user_id", "log_date", "amount_ml", "created_at"},
		values: func(l domain.WaterLog) []any {
			return []any{l.UserID, l.Date.String(), l.AmountML, formatTime(l.CreatedAt)}
		},
		scan: func(sc scanner) (domain.WaterLog, error) {
			var (
				l                domain.WaterLog
				logDate, created string
			)
			if err := sc.Scan(&l.ID, &l.UserID, &logDate, &l.AmountML, &created); err != nil {
				return l, err
			}
			return l, decodeCommon(logDate, created, &l.Date, &l.CreatedAt)
		},
	}
}

func decodeCommon(logDate, created string, date *civil.Date, createdAt *time.Time) error {
	var err error
	if *date, err = parseDate(logDate); err != nil {
		return err
	}
	if *createdAt, err = parseTime(created); err != nil {
		return err
	}
	return nil
}
