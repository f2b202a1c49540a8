package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/healthsync/internal/domain"
	"github.com/roach88/healthsync/internal/engine"
	"github.com/roach88/healthsync/internal/store"
	"github.com/roach88/healthsync/internal/testutil"
)

// Harness holds the per-run state of one scenario.
type Harness struct {
	store   *store.Store
	tracker *engine.Tracker
	clock   *testutil.FixedClock
	user    string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Create the store, frozen clock and tracker
//  2. Seed plan items and raw logs
//  3. Execute flow steps, checking expect clauses
//  4. Evaluate assertions against the final state
//
// A returned error means the scenario could not run at all; expectation
// failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequenceIDs("log")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	now := DefaultNow
	if scenario.Now != "" {
		if now, err = time.Parse(time.RFC3339, scenario.Now); err != nil {
			return nil, fmt.Errorf("now: %w", err)
		}
	}
	user := scenario.User
	if user == "" {
		user = DefaultUser
	}
	onRead := scenario.ReconcileOnRead == nil || *scenario.ReconcileOnRead

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in runs
	clock := testutil.NewFixedClock(now)
	h := &Harness{
		store: st,
		tracker: engine.NewTracker(st.Repositories(), clock,
			engine.WithLogger(logger),
			engine.WithReconcileOnRead(onRead),
		),
		clock: clock,
		user:  user,
	}

	ctx := context.Background()
	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		h.executeStep(ctx, i, step, result)
	}

	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeSetup(ctx context.Context, setup Setup) error {
	for i, p := range setup.Plan {
		item, err := p.toPlanItem(h.user)
		if err != nil {
			return fmt.Errorf("plan[%d]: %w", i, err)
		}
		if _, err := h.tracker.CreatePlanItem(ctx, item); err != nil {
			return fmt.Errorf("plan[%d]: %w", i, err)
		}
	}

	for i, l := range setup.Logs {
		if err := h.seedLog(ctx, l); err != nil {
			return fmt.Errorf("logs[%d]: %w", i, err)
		}
	}
	return nil
}

func (p PlanSeed) toPlanItem(defaultUser string) (domain.PlanItem, error) {
	date, err := domain.ParseDate(p.Date)
	if err != nil {
		return domain.PlanItem{}, err
	}
	tod, err := domain.ParseTimeOfDay(p.Time)
	if err != nil {
		return domain.PlanItem{}, err
	}
	kind, err := domain.ParseActivityType(p.Type)
	if err != nil {
		return domain.PlanItem{}, err
	}
	user := p.User
	if user == "" {
		user = defaultUser
	}
	return domain.PlanItem{
		ID:          p.Key,
		UserID:      user,
		Date:        date,
		Time:        tod,
		Type:        kind,
		ReferenceID: p.ReferenceID,
		Title:       p.Title,
	}, nil
}

// seedLog writes a log directly to its table, skipping validation and
// reconciliation. Unparseable amounts are stored as NULL.
func (h *Harness) seedLog(ctx context.Context, l LogSeed) error {
	date, err := domain.ParseDate(l.Date)
	if err != nil {
		return err
	}
	at := h.clock.Now()
	amount, _, _ := apd.NewFromString(l.Amount)

	switch domain.ActivityType(l.Kind) {
	case domain.ActivityMeal:
		_, err = h.store.Meals().Create(ctx, domain.MealLog{UserID: h.user, Date: date, MealID: l.Ref, Servings: amount, CreatedAt: at})
	case domain.ActivityExercise:
		_, err = h.store.Exercises().Create(ctx, domain.ExerciseLog{UserID: h.user, Date: date, ExerciseID: l.Ref, DurationMinutes: amount, CreatedAt: at})
	case domain.ActivitySleep:
		_, err = h.store.Sleep().Create(ctx, domain.SleepLog{UserID: h.user, Date: date, DurationHours: amount, CreatedAt: at})
	case domain.ActivityWater:
		ml, _ := strconv.Atoi(l.Amount)
		_, err = h.store.Water().Create(ctx, domain.WaterLog{UserID: h.user, Date: date, AmountML: ml, CreatedAt: at})
	default:
		err = fmt.Errorf("unknown kind %q", l.Kind)
	}
	return err
}

// executeStep runs one flow step, appends its trace event and records
// any expect mismatch on result.
func (h *Harness) executeStep(ctx context.Context, index int, step FlowStep, result *Result) {
	if step.Advance != "" {
		d, _ := time.ParseDuration(step.Advance) // checked by validateScenario
		h.clock.Advance(d)
	}

	event := TraceEvent{Seq: index + 1, Action: step.Action}
	err := h.dispatch(ctx, step, &event)
	if err != nil {
		event.Error = string(domain.CodeOf(err))
		if event.Error == "" {
			event.Error = err.Error()
		}
	}
	result.Trace = append(result.Trace, event)

	prefix := fmt.Sprintf("flow[%d] %s", index, step.Action)
	if step.Expect == nil || step.Expect.Error == "" {
		if err != nil {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
			return
		}
	}
	if step.Expect == nil {
		return
	}
	for _, msg := range checkExpect(step.Expect, event) {
		result.AddError(prefix + ": " + msg)
	}
}

func (h *Harness) dispatch(ctx context.Context, step FlowStep, event *TraceEvent) error {
	date := h.clock.Today()
	if step.Date != "" {
		d, err := domain.ParseDate(step.Date)
		if err != nil {
			return err
		}
		date = d
	}
	event.Date = date.String()

	switch step.Action {
	case ActionLogMeal:
		servings, err := optionalDecimal("servings", step.Amount)
		if err != nil {
			return err
		}
		res, err := h.tracker.LogMeal(ctx, domain.MealLog{UserID: h.user, Date: date, MealID: step.Ref, Servings: servings})
		if err != nil {
			return err
		}
		traceLog(event, res.LogID, res.Completion, res.Warning)

	case ActionLogExercise:
		minutes, err := optionalDecimal("duration", step.Amount)
		if err != nil {
			return err
		}
		res, err := h.tracker.LogExercise(ctx, domain.ExerciseLog{UserID: h.user, Date: date, ExerciseID: step.Ref, DurationMinutes: minutes})
		if err != nil {
			return err
		}
		traceLog(event, res.LogID, res.Completion, res.Warning)

	case ActionLogSleep:
		hours, err := optionalDecimal("duration", step.Amount)
		if err != nil {
			return err
		}
		res, err := h.tracker.LogSleep(ctx, domain.SleepLog{UserID: h.user, Date: date, DurationHours: hours})
		if err != nil {
			return err
		}
		traceLog(event, res.LogID, res.Completion, res.Warning)

	case ActionLogWater:
		ml, err := strconv.Atoi(step.Amount)
		if err != nil {
			return domain.NewValidationError("amount_ml", fmt.Sprintf("malformed amount %q", step.Amount))
		}
		res, err := h.tracker.LogWater(ctx, domain.WaterLog{UserID: h.user, Date: date, AmountML: ml})
		if err != nil {
			return err
		}
		traceLog(event, res.LogID, res.Completion, res.Warning)

	case ActionComplete:
		event.Date = ""
		before, _, err := h.tracker.PlanStatus(ctx, h.user, step.Item)
		if err != nil {
			return err
		}
		item, err := h.tracker.CompletePlanItem(ctx, h.user, step.Item)
		if err != nil {
			return err
		}
		if before == domain.PlanPending && item.Completed {
			event.Completed = 1
		}
		event.Plan = map[string]string{item.ID: string(item.Status())}

	case ActionReconcile:
		res, err := h.tracker.Reconcile(ctx, h.user, date)
		if err != nil {
			return err
		}
		traceLog(event, "", res, "")

	case ActionDay:
		view, err := h.tracker.GetDailyView(ctx, h.user, date)
		if err != nil {
			return err
		}
		event.Plan = make(map[string]string, len(view.Plan))
		for _, item := range view.Plan {
			event.Plan[item.ID] = string(item.Status())
		}

	case ActionWeek:
		summary, err := h.weekly(ctx, step.Kind, step.Date)
		if err != nil {
			return err
		}
		event.Date = ""
		event.Summary = snapshot(summary)
	}
	return nil
}

func (h *Harness) weekly(ctx context.Context, kind, end string) (domain.WeeklySummary, error) {
	var endDate civil.Date
	if end != "" {
		d, err := domain.ParseDate(end)
		if err != nil {
			return domain.WeeklySummary{}, err
		}
		endDate = d
	}
	if domain.SummaryKind(kind) == domain.SummaryExercise {
		return h.tracker.GetExerciseSummary(ctx, h.user, endDate)
	}
	return h.tracker.GetWeeklySummary(ctx, h.user, endDate)
}

func traceLog(event *TraceEvent, logID string, res domain.CompletionResult, warning string) {
	event.LogID = logID
	event.Matched = sortedCopy(res.Matched)
	event.Completed = res.Completed
	event.Warning = warning
}

func snapshot(s domain.WeeklySummary) *WeekSnapshot {
	return &WeekSnapshot{
		Kind:         string(s.Kind),
		Start:        s.Start.String(),
		End:          s.End.String(),
		DaysWithData: s.DaysWithData,
		Total:        s.TotalDuration.Text('f'),
		Average:      s.AvgDuration.Text('f'),
		Skipped:      len(s.Skipped),
	}
}

func optionalDecimal(field, s string) (*apd.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, domain.NewValidationError(field, fmt.Sprintf("malformed number %q", s))
	}
	return d, nil
}

func sortedCopy(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
