package engine

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"

	"github.com/roach88/healthsync/internal/domain"
)

// StaleWarning is reported when a log committed but its reconciliation
// did not.
const StaleWarning = "activity logged; plan status may be stale"

// Tracker is the request-level entry point: it validates input, writes
// logs, runs reconciliation in the same call, and serves the read views.
//
// Every method takes the user id explicitly; a Tracker holds no session
// state and is safe for concurrent use if its repositories are.
type Tracker struct {
	repos           Repositories
	clock           Clock
	reconciler      *Reconciler
	daily           *DailyViewBuilder
	weekly          *WeeklyAggregator
	reconcileOnRead bool
	logger          *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the logger used by the tracker and its components.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithReconcileOnRead toggles the lazy recheck before each daily view.
// Default: enabled.
func WithReconcileOnRead(enabled bool) TrackerOption {
	return func(t *Tracker) {
		t.reconcileOnRead = enabled
	}
}

// NewTracker wires the engine components over repos.
func NewTracker(repos Repositories, clock Clock, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		repos:           repos,
		clock:           clock,
		reconcileOnRead: true,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.reconciler = NewReconciler(repos.Plans, t.logger)
	t.daily = NewDailyViewBuilder(repos)
	t.weekly = NewWeeklyAggregator(repos.Sleep, repos.Exercises, t.logger)
	return t
}

// Today returns the canonical current date.
func (t *Tracker) Today() civil.Date {
	return t.clock.Today()
}

// LogResult is returned by every Log* call. The log is always durable
// when err is nil; Warning is set when reconciliation failed after it.
type LogResult[L any] struct {
	LogID      string                  `json:"log_id"`
	Log        L                       `json:"log"`
	Completion domain.CompletionResult `json:"completion"`
	Warning    string                  `json:"warning,omitempty"`
}

// LogMeal records a meal and completes matching meal plan items.
func (t *Tracker) LogMeal(ctx context.Context, l domain.MealLog) (LogResult[domain.MealLog], error) {
	if err := domain.ValidateMealLog(&l); err != nil {
		return LogResult[domain.MealLog]{}, err
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = t.clock.Now()
	}
	return record(ctx, t, t.repos.Meals, l, func(l *domain.MealLog, id string) { l.ID = id })
}

// LogExercise records an exercise session and completes matching items.
func (t *Tracker) LogExercise(ctx context.Context, l domain.ExerciseLog) (LogResult[domain.ExerciseLog], error) {
	if err := domain.ValidateExerciseLog(&l); err != nil {
		return LogResult[domain.ExerciseLog]{}, err
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = t.clock.Now()
	}
	return record(ctx, t, t.repos.Exercises, l, func(l *domain.ExerciseLog, id string) { l.ID = id })
}

// LogSleep records sleep and completes the date's pending sleep items.
func (t *Tracker) LogSleep(ctx context.Context, l domain.SleepLog) (LogResult[domain.SleepLog], error) {
	if err := domain.ValidateSleepLog(&l); err != nil {
		return LogResult[domain.SleepLog]{}, err
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = t.clock.Now()
	}
	return record(ctx, t, t.repos.Sleep, l, func(l *domain.SleepLog, id string) { l.ID = id })
}

// LogWater records water intake and completes the date's pending water
// items.
func (t *Tracker) LogWater(ctx context.Context, l domain.WaterLog) (LogResult[domain.WaterLog], error) {
	if err := domain.ValidateWaterLog(&l); err != nil {
		return LogResult[domain.WaterLog]{}, err
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = t.clock.Now()
	}
	return record(ctx, t, t.repos.Water, l, func(l *domain.WaterLog, id string) { l.ID = id })
}

// record writes the log, then reconciles. The write must succeed before
// the matching query runs; a reconciliation failure after that point is
// downgraded to a warning.
func record[L interface{ Event() domain.ActivityEvent }](
	ctx context.Context,
	t *Tracker,
	repo LogRepository[L],
	l L,
	setID func(*L, string),
) (LogResult[L], error) {
	id, err := repo.Create(ctx, l)
	if err != nil {
		return LogResult[L]{}, fmt.Errorf("write log: %w", err)
	}
	setID(&l, id)

	res := LogResult[L]{LogID: id, Log: l}
	ev := l.Event()
	res.Completion, err = t.reconciler.OnActivityLogged(ctx, ev)
	if err != nil {
		t.logger.Warn("reconciliation failed after log committed",
			"user", ev.UserID, "log", id, "type", ev.Type, "date", ev.Date.String(), "error", err)
		res.Warning = StaleWarning
	}
	return res, nil
}

// CreatePlanItem validates and stores a new pending plan item.
func (t *Tracker) CreatePlanItem(ctx context.Context, item domain.PlanItem) (domain.PlanItem, error) {
	if err := domain.ValidatePlanItem(&item); err != nil {
		return domain.PlanItem{}, err
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = t.clock.Now()
	}
	id, err := t.repos.Plans.CreatePlanItem(ctx, item)
	if err != nil {
		return domain.PlanItem{}, fmt.Errorf("create plan item: %w", err)
	}
	item.ID = id
	return item, nil
}

// ImportPlan stores a batch of plan items. Every item is validated before
// the first write so a bad entry rejects the whole batch.
func (t *Tracker) ImportPlan(ctx context.Context, items []domain.PlanItem) ([]domain.PlanItem, error) {
	for i := range items {
		if err := domain.ValidatePlanItem(&items[i]); err != nil {
			return nil, fmt.Errorf("plan item %d: %w", i, err)
		}
	}

	created := make([]domain.PlanItem, 0, len(items))
	for _, item := range items {
		c, err := t.CreatePlanItem(ctx, item)
		if err != nil {
			return created, err
		}
		created = append(created, c)
	}
	return created, nil
}

// PlanStatus distinguishes a missing item from a pending or completed one.
// A missing item is not an error: the status is PlanNotFound and the item
// is nil.
func (t *Tracker) PlanStatus(ctx context.Context, userID, id string) (domain.PlanStatus, *domain.PlanItem, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return "", nil, err
	}
	item, err := t.repos.Plans.GetPlanItem(ctx, userID, id)
	if domain.IsNotFound(err) {
		return domain.PlanNotFound, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("plan status: %w", err)
	}
	return item.Status(), &item, nil
}

// CompletePlanItem is the explicit user completion path. Completing an
// already completed item leaves CompletedAt unchanged.
func (t *Tracker) CompletePlanItem(ctx context.Context, userID, id string) (domain.PlanItem, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return domain.PlanItem{}, err
	}
	item, err := t.repos.Plans.GetPlanItem(ctx, userID, id)
	if err != nil {
		return domain.PlanItem{}, err
	}
	if item.Completed {
		return item, nil
	}

	if _, err := t.repos.Plans.MarkCompleted(ctx, userID, []string{id}, t.clock.Now()); err != nil {
		return domain.PlanItem{}, fmt.Errorf("complete plan item: %w", err)
	}
	return t.repos.Plans.GetPlanItem(ctx, userID, id)
}

// ListPlan returns the plan items for a date.
func (t *Tracker) ListPlan(ctx context.Context, userID string, date civil.Date) ([]domain.PlanItem, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	items, err := t.repos.Plans.GetPlanByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list plan: %w", err)
	}
	return nonNil(items), nil
}

// GetDailyView builds the day's view. With reconcile-on-read enabled,
// plan items that a committed log should have completed are completed
// first; a failure there is logged and the view is still returned.
func (t *Tracker) GetDailyView(ctx context.Context, userID string, date civil.Date) (domain.DailyView, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return domain.DailyView{}, err
	}
	day, err := t.daily.load(ctx, userID, date)
	if err != nil {
		return domain.DailyView{}, fmt.Errorf("daily view: %w", err)
	}
	view := day.view
	if !t.reconcileOnRead {
		return view, nil
	}

	res, err := t.recheckDay(ctx, userID, day)
	if err != nil {
		t.logger.Warn("lazy recheck failed", "user", userID, "date", date.String(), "error", err)
		return view, nil
	}
	if res.Completed > 0 {
		plan, err := t.repos.Plans.GetPlanByDate(ctx, userID, date)
		if err != nil {
			return domain.DailyView{}, fmt.Errorf("daily view: reload plan: %w", err)
		}
		view.Plan = nonNil(plan)
	}
	return view, nil
}

// Reconcile re-derives completions for one date on demand.
func (t *Tracker) Reconcile(ctx context.Context, userID string, date civil.Date) (domain.CompletionResult, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return domain.CompletionResult{}, err
	}
	day, err := t.daily.load(ctx, userID, date)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("reconcile: %w", err)
	}
	return t.recheckDay(ctx, userID, day)
}

func (t *Tracker) recheckDay(ctx context.Context, userID string, day dayLogs) (domain.CompletionResult, error) {
	pending := false
	for _, item := range day.view.Plan {
		if !item.Completed {
			pending = true
			break
		}
	}
	if !pending {
		return domain.CompletionResult{Matched: []string{}}, nil
	}
	return t.reconciler.Recheck(ctx, userID, day.view.Date, day.events())
}

// GetWeeklySummary returns the sleep summary for the 7 days ending on
// end, or on today when end is the zero date.
func (t *Tracker) GetWeeklySummary(ctx context.Context, userID string, end civil.Date) (domain.WeeklySummary, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return domain.WeeklySummary{}, err
	}
	if end.IsZero() {
		end = t.clock.Today()
	}
	return t.weekly.GetWeeklySummary(ctx, userID, end)
}

// GetExerciseSummary is GetWeeklySummary for exercise minutes.
func (t *Tracker) GetExerciseSummary(ctx context.Context, userID string, end civil.Date) (domain.WeeklySummary, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return domain.WeeklySummary{}, err
	}
	if end.IsZero() {
		end = t.clock.Today()
	}
	return t.weekly.GetExerciseSummary(ctx, userID, end)
}
