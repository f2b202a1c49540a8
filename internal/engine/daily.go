package engine

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/healthsync/internal/domain"
)

// DailyViewBuilder assembles one user's day from the repositories. It
// only reads.
type DailyViewBuilder struct {
	repos Repositories
}

// NewDailyViewBuilder creates a builder over repos.
func NewDailyViewBuilder(repos Repositories) *DailyViewBuilder {
	return &DailyViewBuilder{repos: repos}
}

// GetDailyView returns the day's meals, exercises, water, sleep and plan.
// Collections are never nil. Sleep is nil when nothing was logged; with
// several sleep logs the most recently created one wins.
func (b *DailyViewBuilder) GetDailyView(ctx context.Context, userID string, date civil.Date) (domain.DailyView, error) {
	day, err := b.load(ctx, userID, date)
	if err != nil {
		return domain.DailyView{}, err
	}
	return day.view, nil
}

// dayLogs is a built view plus every sleep log of the date; the view
// itself only shows the latest one.
type dayLogs struct {
	view  domain.DailyView
	sleep []domain.SleepLog
}

func (b *DailyViewBuilder) load(ctx context.Context, userID string, date civil.Date) (dayLogs, error) {
	view := domain.DailyView{Date: date}
	var sleep []domain.SleepLog

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.Meals, err = b.repos.Meals.GetByDate(gctx, userID, date)
		return wrapRead("meals", err)
	})
	g.Go(func() (err error) {
		view.Exercises, err = b.repos.Exercises.GetByDate(gctx, userID, date)
		return wrapRead("exercises", err)
	})
	g.Go(func() (err error) {
		view.Water, err = b.repos.Water.GetByDate(gctx, userID, date)
		return wrapRead("water", err)
	})
	g.Go(func() (err error) {
		sleep, err = b.repos.Sleep.GetByDate(gctx, userID, date)
		return wrapRead("sleep", err)
	})
	g.Go(func() (err error) {
		view.Plan, err = b.repos.Plans.GetPlanByDate(gctx, userID, date)
		return wrapRead("plan", err)
	})
	if err := g.Wait(); err != nil {
		return dayLogs{}, err
	}

	view.Sleep = latestSleep(sleep)
	view.Meals = nonNil(view.Meals)
	view.Exercises = nonNil(view.Exercises)
	view.Water = nonNil(view.Water)
	view.Plan = nonNil(view.Plan)
	return dayLogs{view: view, sleep: sleep}, nil
}

// events returns the reconciliation inputs for every log of the day.
func (d dayLogs) events() []domain.ActivityEvent {
	var events []domain.ActivityEvent
	for _, l := range d.view.Meals {
		events = append(events, l.Event())
	}
	for _, l := range d.view.Exercises {
		events = append(events, l.Event())
	}
	for _, l := range d.view.Water {
		events = append(events, l.Event())
	}
	for _, l := range d.sleep {
		events = append(events, l.Event())
	}
	return events
}

func latestSleep(logs []domain.SleepLog) *domain.SleepLog {
	var latest *domain.SleepLog
	for i := range logs {
		l := &logs[i]
		if latest == nil || !l.CreatedAt.Before(latest.CreatedAt) {
			latest = l
		}
	}
	return latest
}

func wrapRead(what string, err error) error {
	if err != nil {
		return fmt.Errorf("read %s: %w", what, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
