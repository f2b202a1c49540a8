package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"cloud.google.com/go/civil"

	"github.com/roach88/healthsync/internal/domain"
)

// Reconciler completes pending plan items that a logged activity
// satisfies.
//
// The pending -> completed transition is one-way. FindPending only ever
// returns completed == false items and MarkCompleted re-checks that
// precondition in storage, so replaying a log or racing two logs against
// the same item completes it at most once.
type Reconciler struct {
	plans  PlanRepository
	logger *slog.Logger
}

// NewReconciler creates a Reconciler. A nil logger means slog.Default().
func NewReconciler(plans PlanRepository, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{plans: plans, logger: logger}
}

// Matches reports whether a pending plan item is satisfied by ev.
//
// Dates compare on the stored calendar date only. Reference-less types
// (sleep, water) match on user, date and type. Meal and exercise items
// need the same non-empty reference id on both sides.
func Matches(item domain.PlanItem, ev domain.ActivityEvent) bool {
	if item.Completed || item.UserID != ev.UserID || item.Date != ev.Date || item.Type != ev.Type {
		return false
	}
	if ev.Type.ReferenceLess() {
		return true
	}
	if ev.Type == domain.ActivityOther {
		return false
	}
	return item.ReferenceID != "" && item.ReferenceID == ev.ReferenceID
}

// OnActivityLogged runs reconciliation for one just-persisted log.
//
// Every matching pending item is completed with CompletedAt = ev.LoggedAt
// in a single conditional update. No match is not an error. Storage
// failures come back as domain reconciliation failures.
func (r *Reconciler) OnActivityLogged(ctx context.Context, ev domain.ActivityEvent) (domain.CompletionResult, error) {
	result := domain.CompletionResult{Matched: []string{}}

	pending, err := r.plans.FindPending(ctx, ev.UserID, ev.Date, ev.Type)
	if err != nil {
		return result, domain.NewReconciliationFailure(ev.UserID, err)
	}

	for _, item := range pending {
		if Matches(item, ev) {
			result.Matched = append(result.Matched, item.ID)
		}
	}
	if len(result.Matched) == 0 {
		r.logger.Debug("no pending plan items matched",
			"user", ev.UserID, "date", ev.Date.String(), "type", ev.Type, "ref", ev.ReferenceID)
		return result, nil
	}

	n, err := r.plans.MarkCompleted(ctx, ev.UserID, result.Matched, ev.LoggedAt)
	if err != nil {
		return result, domain.NewReconciliationFailure(ev.UserID, err)
	}
	result.Completed = n
	result.CompletedAt = ev.LoggedAt

	r.logger.Info("plan items completed",
		"user", ev.UserID, "date", ev.Date.String(), "type", ev.Type,
		"matched", len(result.Matched), "completed", n)
	return result, nil
}

// Recheck re-derives completions for one user and date from the day's
// logs. It is the lazy consistency path for a reconciliation that failed
// after its log committed.
//
// Each matched item is completed at the earliest matching log's
// timestamp. One pending query is issued per activity type present.
func (r *Reconciler) Recheck(ctx context.Context, userID string, date civil.Date, events []domain.ActivityEvent) (domain.CompletionResult, error) {
	result := domain.CompletionResult{Matched: []string{}}

	byType := make(map[domain.ActivityType][]domain.ActivityEvent)
	var types []domain.ActivityType
	for _, ev := range events {
		if ev.UserID != userID || ev.Date != date {
			continue
		}
		if _, seen := byType[ev.Type]; !seen {
			types = append(types, ev.Type)
		}
		byType[ev.Type] = append(byType[ev.Type], ev)
	}

	// completedAt (unix nanos) -> item ids
	groups := make(map[int64][]string)
	stampOf := make(map[int64]time.Time)
	for _, t := range types {
		pending, err := r.plans.FindPending(ctx, userID, date, t)
		if err != nil {
			return result, domain.NewReconciliationFailure(userID, err)
		}
		for _, item := range pending {
			at, ok := earliestMatch(item, byType[t])
			if !ok {
				continue
			}
			result.Matched = append(result.Matched, item.ID)
			key := at.UnixNano()
			groups[key] = append(groups[key], item.ID)
			stampOf[key] = at
		}
	}

	keys := make([]int64, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		at := stampOf[key]
		n, err := r.plans.MarkCompleted(ctx, userID, groups[key], at)
		if err != nil {
			return result, domain.NewReconciliationFailure(userID, err)
		}
		result.Completed += n
		if result.CompletedAt.IsZero() {
			result.CompletedAt = at
		}
	}

	if result.Completed > 0 {
		r.logger.Info("recheck completed stale plan items",
			"user", userID, "date", date.String(), "completed", result.Completed)
	}
	return result, nil
}

func earliestMatch(item domain.PlanItem, events []domain.ActivityEvent) (time.Time, bool) {
	var at time.Time
	found := false
	for _, ev := range events {
		if !Matches(item, ev) {
			continue
		}
		if !found || ev.LoggedAt.Before(at) {
			at = ev.LoggedAt
			found = true
		}
	}
	return at, found
}
