package engine

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/roach88/healthsync/internal/domain"
)

// PlanRepository is the storage port for plan items. Every method is
// scoped to a single user.
type PlanRepository interface {
	CreatePlanItem(ctx context.Context, item domain.PlanItem) (string, error)

	// GetPlanItem returns a domain not-found error when the id does not
	// exist for userID.
	GetPlanItem(ctx context.Context, userID, id string) (domain.PlanItem, error)

	GetPlanByDate(ctx context.Context, userID string, date civil.Date) ([]domain.PlanItem, error)

	// FindPending returns items with completed == false for the exact
	// (user, date, type).
	FindPending(ctx context.Context, userID string, date civil.Date, t domain.ActivityType) ([]domain.PlanItem, error)

	// MarkCompleted completes the given items that are still pending and
	// returns how many rows changed. Items already complete are untouched.
	MarkCompleted(ctx context.Context, userID string, ids []string, completedAt time.Time) (int64, error)
}

// LogRepository is the storage port for one activity log kind.
type LogRepository[L any] interface {
	Create(ctx context.Context, log L) (string, error)

	// GetByDate returns the day's logs ordered by creation time.
	GetByDate(ctx context.Context, userID string, date civil.Date) ([]L, error)

	// GetRange returns logs dated within [start, end] inclusive.
	GetRange(ctx context.Context, userID string, start, end civil.Date) ([]L, error)
}

// Repositories bundles the ports the engine consumes.
type Repositories struct {
	Plans     PlanRepository
	Meals     LogRepository[domain.MealLog]
	Exercises LogRepository[domain.ExerciseLog]
	Sleep     LogRepository[domain.SleepLog]
	Water     LogRepository[domain.WaterLog]
}
