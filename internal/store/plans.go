package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/roach88/healthsync/internal/domain"
)

const planColumns = `id, user_id, plan_date, time_of_day, activity_type, reference_id,
	title, description, completed, completed_at, created_at`

// CreatePlanItem inserts a pending plan item and returns its id. An id
// already set on item is kept.
func (s *Store) CreatePlanItem(ctx context.Context, item domain.PlanItem) (string, error) {
	if item.ID == "" {
		item.ID = s.ids.NewID()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_items
		(id, user_id, plan_date, time_of_day, activity_type, reference_id, title, description, completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)
	`,
		item.ID,
		item.UserID,
		item.Date.String(),
		item.Time.String(),
		string(item.Type),
		item.ReferenceID,
		item.Title,
		item.Description,
		formatTime(item.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("create plan item: %w", err)
	}
	return item.ID, nil
}

// GetPlanItem retrieves one plan item owned by userID.
// Returns a domain not-found error if it does not exist for that user.
func (s *Store) GetPlanItem(ctx context.Context, userID, id string) (domain.PlanItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+planColumns+`
		FROM plan_items
		WHERE user_id = ? AND id = ?
	`, userID, id)

	item, err := scanPlanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlanItem{}, domain.NewNotFoundError(userID, id, "plan item")
	}
	if err != nil {
		return domain.PlanItem{}, fmt.Errorf("get plan item: %w", err)
	}
	return item, nil
}

// GetPlanByDate returns every plan item for the date, completed or not.
// Returns an empty slice (not nil) if there are none.
func (s *Store) GetPlanByDate(ctx context.Context, userID string, date civil.Date) ([]domain.PlanItem, error) {
	return s.queryPlanItems(ctx, `
		SELECT `+planColumns+`
		FROM plan_items
		WHERE user_id = ? AND plan_date = ?
		ORDER BY time_of_day ASC, created_at ASC, id ASC
	`, userID, date.String())
}

// FindPending returns the pending plan items for (user, date, type).
func (s *Store) FindPending(ctx context.Context, userID string, date civil.Date, t domain.ActivityType) ([]domain.PlanItem, error) {
	return s.queryPlanItems(ctx, `
		SELECT `+planColumns+`
		FROM plan_items
		WHERE user_id = ? AND plan_date = ? AND activity_type = ? AND completed = 0
		ORDER BY time_of_day ASC, created_at ASC, id ASC
	`, userID, date.String(), string(t))
}

// MarkCompleted transitions the listed items from pending to completed.
//
// The completed = 0 predicate makes this an apply-if-still-pending update:
// items already complete keep their original completed_at, and of two
// concurrent calls naming the same item only one counts it.
func (s *Store) MarkCompleted(ctx context.Context, userID string, ids []string, completedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids)+2)
	args = append(args, formatTime(completedAt), userID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE plan_items
		SET completed = 1, completed_at = ?
		WHERE user_id = ? AND completed = 0 AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("mark completed: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark completed: rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) queryPlanItems(ctx context.Context, query string, args ...any) ([]domain.PlanItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plan items: %w", err)
	}
	defer rows.Close()

	items := []domain.PlanItem{}
	for rows.Next() {
		item, err := scanPlanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan items: %w", err)
	}
	return items, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlanItem(sc scanner) (domain.PlanItem, error) {
	var (
		item                      domain.PlanItem
		planDate, timeOfDay, kind string
		completed                 int
		completedAt               sql.NullString
		createdAt                 string
	)
	err := sc.Scan(
		&item.ID,
		&item.UserID,
		&planDate,
		&timeOfDay,
		&kind,
		&item.ReferenceID,
		&item.Title,
		&item.Description,
		&completed,
		&completedAt,
		&createdAt,
	)
	if err != nil {
		return domain.PlanItem{}, err
	}

	if item.Date, err = parseDate(planDate); err != nil {
		return domain.PlanItem{}, err
	}
	if item.Time, err = civil.ParseTime(timeOfDay); err != nil {
		return domain.PlanItem{}, fmt.Errorf("parse time of day %q: %w", timeOfDay, err)
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.PlanItem{}, err
	}
	item.Type = domain.ActivityType(kind)
	item.Completed = completed == 1
	if completedAt.Valid {
		at, err := parseTime(completedAt.String)
		if err != nil {
			return domain.PlanItem{}, err
		}
		item.CompletedAt = &at
	}
	return item, nil
}
