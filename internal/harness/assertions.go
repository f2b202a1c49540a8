package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/roach88/healthsync/internal/domain"
)

// checkExpect compares one step's trace event against its expect clause.
func checkExpect(e *Expect, event TraceEvent) []string {
	var msgs []string
	if e.Error != "" && event.Error != e.Error {
		msgs = append(msgs, fmt.Sprintf("error = %q, want %q", event.Error, e.Error))
	}
	if e.Completed != nil && event.Completed != *e.Completed {
		msgs = append(msgs, fmt.Sprintf("completed = %d, want %d", event.Completed, *e.Completed))
	}
	if e.Matched != nil {
		want := append([]string(nil), e.Matched...)
		sort.Strings(want)
		if strings.Join(want, ",") != strings.Join(event.Matched, ",") {
			msgs = append(msgs, fmt.Sprintf("matched = %v, want %v", event.Matched, want))
		}
	}
	return msgs
}

// evaluateAssertions checks every assertion against the final state and
// returns one message per failure.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion) []string {
	var msgs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertPlanStatus:
			err = h.assertPlanStatus(ctx, a)
		case AssertWeekly:
			err = h.assertWeekly(ctx, a)
		case AssertLogCount:
			err = h.assertLogCount(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d] %s: %v", i, a.Type, err))
		}
	}
	return msgs
}

func (h *Harness) assertPlanStatus(ctx context.Context, a Assertion) error {
	status, _, err := h.tracker.PlanStatus(ctx, h.user, a.Item)
	if err != nil {
		return err
	}
	if string(status) != a.Status {
		return fmt.Errorf("item %s status = %s, want %s", a.Item, status, a.Status)
	}
	return nil
}

func (h *Harness) assertWeekly(ctx context.Context, a Assertion) error {
	summary, err := h.weekly(ctx, a.Kind, a.End)
	if err != nil {
		return err
	}
	got := snapshot(summary)

	var diffs []string
	if a.DaysWithData != nil && got.DaysWithData != *a.DaysWithData {
		diffs = append(diffs, fmt.Sprintf("days_with_data = %d, want %d", got.DaysWithData, *a.DaysWithData))
	}
	if a.Total != "" && got.Total != a.Total {
		diffs = append(diffs, fmt.Sprintf("total = %s, want %s", got.Total, a.Total))
	}
	if a.Average != "" && got.Average != a.Average {
		diffs = append(diffs, fmt.Sprintf("average = %s, want %s", got.Average, a.Average))
	}
	if a.Skipped != nil && got.Skipped != *a.Skipped {
		diffs = append(diffs, fmt.Sprintf("skipped = %d, want %d", got.Skipped, *a.Skipped))
	}
	if len(diffs) > 0 {
		return fmt.Errorf("%s", strings.Join(diffs, "; "))
	}
	return nil
}

func (h *Harness) assertLogCount(ctx context.Context, a Assertion) error {
	date := h.clock.Today()
	if a.Date != "" {
		d, err := domain.ParseDate(a.Date)
		if err != nil {
			return err
		}
		date = d
	}

	n, err := h.countLogs(ctx, domain.ActivityType(a.Kind), date)
	if err != nil {
		return err
	}
	if n != *a.Count {
		return fmt.Errorf("%s logs on %s = %d, want %d", a.Kind, date, n, *a.Count)
	}
	return nil
}

func (h *Harness) countLogs(ctx context.Context, kind domain.ActivityType, date civil.Date) (int, error) {
	switch kind {
	case domain.ActivityMeal:
		logs, err := h.store.Meals().GetByDate(ctx, h.user, date)
		return len(logs), err
	case domain.ActivityExercise:
		logs, err := h.store.Exercises().GetByDate(ctx, h.user, date)
		return len(logs), err
	case domain.ActivitySleep:
		logs, err := h.store.Sleep().GetByDate(ctx, h.user, date)
		return len(logs), err
	case domain.ActivityWater:
		logs, err := h.store.Water().GetByDate(ctx, h.user, date)
		return len(logs), err
	default:
		return 0, fmt.Errorf("unknown log kind %q", kind)
	}
}
