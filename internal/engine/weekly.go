package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/healthsync/internal/domain"
)

// WindowDays is the length of a weekly summary window.
const WindowDays = 7

// AverageScale is the number of decimal places kept in averages.
const AverageScale = 1

// maxEntryDuration bounds a single stored duration. Larger values are
// skipped so that sums and the quantized average stay within decimalCtx
// precision.
var maxEntryDuration = apd.New(1, 9)

// decimalCtx carries full precision through sums and the division; only
// the final average is quantized.
var decimalCtx = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

// WindowStart returns the first date of the 7-day window ending on end.
func WindowStart(end civil.Date) civil.Date {
	return end.AddDays(-(WindowDays - 1))
}

// WeeklyAggregator computes 7-day duration statistics.
type WeeklyAggregator struct {
	sleep     LogRepository[domain.SleepLog]
	exercises LogRepository[domain.ExerciseLog]
	logger    *slog.Logger
}

// NewWeeklyAggregator creates an aggregator. A nil logger means
// slog.Default().
func NewWeeklyAggregator(sleep LogRepository[domain.SleepLog], exercises LogRepository[domain.ExerciseLog], logger *slog.Logger) *WeeklyAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyAggregator{sleep: sleep, exercises: exercises, logger: logger}
}

// durationEntry is the kind-independent view of one stored log.
type durationEntry struct {
	logID     string
	date      civil.Date
	duration  *apd.Decimal
	createdAt time.Time
}

// dayReducer decides how several usable logs on one date combine.
type dayReducer int

const (
	// reduceLatest keeps the most recently created log (sleep).
	reduceLatest dayReducer = iota
	// reduceSum adds the logs together (exercise).
	reduceSum
)

// GetWeeklySummary aggregates sleep hours over [end-6, end].
func (a *WeeklyAggregator) GetWeeklySummary(ctx context.Context, userID string, end civil.Date) (domain.WeeklySummary, error) {
	start := WindowStart(end)
	logs, err := a.sleep.GetRange(ctx, userID, start, end)
	if err != nil {
		return domain.WeeklySummary{}, fmt.Errorf("weekly sleep summary: %w", err)
	}

	entries := make([]durationEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, durationEntry{logID: l.ID, date: l.Date, duration: l.DurationHours, createdAt: l.CreatedAt})
	}
	return a.summarize(domain.SummarySleep, start, end, entries, reduceLatest)
}

// GetExerciseSummary aggregates exercise minutes over [end-6, end].
func (a *WeeklyAggregator) GetExerciseSummary(ctx context.Context, userID string, end civil.Date) (domain.WeeklySummary, error) {
	start := WindowStart(end)
	logs, err := a.exercises.GetRange(ctx, userID, start, end)
	if err != nil {
		return domain.WeeklySummary{}, fmt.Errorf("weekly exercise summary: %w", err)
	}

	entries := make([]durationEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, durationEntry{logID: l.ID, date: l.Date, duration: l.DurationMinutes, createdAt: l.CreatedAt})
	}
	return a.summarize(domain.SummaryExercise, start, end, entries, reduceSum)
}

func (a *WeeklyAggregator) summarize(kind domain.SummaryKind, start, end civil.Date, entries []durationEntry, reduce dayReducer) (domain.WeeklySummary, error) {
	summary := domain.WeeklySummary{
		Kind:  kind,
		Start: start,
		End:   end,
		Days:  make([]domain.DaySlot, WindowDays),
	}

	index := make(map[civil.Date]int, WindowDays)
	for i := range summary.Days {
		d := start.AddDays(i)
		summary.Days[i].Date = d
		index[d] = i
	}

	skip := func(e durationEntry, reason string) {
		skipErr := domain.NewAggregationInputError(e.logID, reason)
		a.logger.Warn("excluding log from weekly summary",
			"kind", kind, "log", e.logID, "date", e.date.String(), "error", skipErr)
		summary.Skipped = append(summary.Skipped, domain.SkippedEntry{
			LogID:  e.logID,
			Date:   e.date,
			Reason: skipErr.Message,
		})
	}

	latest := make([]time.Time, WindowDays)
	for _, e := range entries {
		i, inWindow := index[e.date]
		if !inWindow {
			continue
		}
		if reason := durationProblem(e.duration); reason != "" {
			skip(e, reason)
			continue
		}

		slot := &summary.Days[i]
		switch {
		case slot.Duration == nil:
			slot.Duration = new(apd.Decimal).Set(e.duration)
			latest[i] = e.createdAt
		case reduce == reduceLatest:
			if !e.createdAt.Before(latest[i]) {
				slot.Duration = new(apd.Decimal).Set(e.duration)
				latest[i] = e.createdAt
			}
		case reduce == reduceSum:
			sum := new(apd.Decimal)
			if _, err := decimalCtx.Add(sum, slot.Duration, e.duration); err != nil {
				skip(e, fmt.Sprintf("cannot add duration: %v", err))
				continue
			}
			slot.Duration = sum
		}
	}

	total := apd.New(0, 0)
	for _, slot := range summary.Days {
		if slot.Duration == nil {
			continue
		}
		summary.DaysWithData++
		next := new(apd.Decimal)
		if _, err := decimalCtx.Add(next, total, slot.Duration); err != nil {
			return domain.WeeklySummary{}, fmt.Errorf("sum window: %w", err)
		}
		total = next
	}
	summary.TotalDuration = total

	avg, err := Average(total, summary.DaysWithData)
	if err != nil {
		return domain.WeeklySummary{}, err
	}
	summary.AvgDuration = avg
	return summary, nil
}

// Average returns total / n rounded half-up to AverageScale places, or
// exactly 0 when n is 0.
func Average(total *apd.Decimal, n int) (*apd.Decimal, error) {
	if n == 0 {
		return apd.New(0, 0), nil
	}
	quo := new(apd.Decimal)
	if _, err := decimalCtx.Quo(quo, total, apd.New(int64(n), 0)); err != nil {
		return nil, fmt.Errorf("average: %w", err)
	}
	avg := new(apd.Decimal)
	if _, err := decimalCtx.Quantize(avg, quo, -AverageScale); err != nil {
		return nil, fmt.Errorf("average: %w", err)
	}
	return avg, nil
}

// durationProblem returns why d cannot be aggregated, or "" when it can.
func durationProblem(d *apd.Decimal) string {
	switch {
	case d == nil || d.Form != apd.Finite || d.Sign() <= 0:
		return "missing or corrupt duration"
	case d.Cmp(maxEntryDuration) > 0:
		return "duration out of range"
	}
	return ""
}
