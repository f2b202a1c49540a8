package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/healthsync/internal/domain"
)

func TestGetDailyView_EmptyDay(t *testing.T) {
	repos := newFakeRepos()
	b := NewDailyViewBuilder(repos.repositories())

	view, err := b.GetDailyView(context.Background(), "u1", date("2024-03-01"))
	require.NoError(t, err)

	assert.Equal(t, date("2024-03-01"), view.Date)
	assert.NotNil(t, view.Meals)
	assert.NotNil(t, view.Exercises)
	assert.NotNil(t, view.Water)
	assert.NotNil(t, view.Plan)
	assert.Empty(t, view.Meals)
	assert.Nil(t, view.Sleep)
}

func TestGetDailyView_CollectsEveryKind(t *testing.T) {
	repos := newFakeRepos()
	ctx := context.Background()
	day := date("2024-03-01")

	mustCreate(repos.plans, planItem("u1", "2024-03-01", domain.ActivityMeal, "M1"))
	mustCreate(repos.plans, planItem("u1", "2024-03-02", domain.ActivityMeal, "M1"))
	_, err := repos.meals.Create(ctx, domain.MealLog{UserID: "u1", Date: day, MealID: "M1", Servings: dec("1")})
	require.NoError(t, err)
	_, err = repos.meals.Create(ctx, domain.MealLog{UserID: "u2", Date: day, MealID: "M1", Servings: dec("1")})
	require.NoError(t, err)
	_, err = repos.exercises.Create(ctx, domain.ExerciseLog{UserID: "u1", Date: day, ExerciseID: "E1", DurationMinutes: dec("30")})
	require.NoError(t, err)
	_, err = repos.water.Create(ctx, domain.WaterLog{UserID: "u1", Date: day, AmountML: 250})
	require.NoError(t, err)
	_, err = repos.water.Create(ctx, domain.WaterLog{UserID: "u1", Date: day, AmountML: 500})
	require.NoError(t, err)

	view, err := NewDailyViewBuilder(repos.repositories()).GetDailyView(ctx, "u1", day)
	require.NoError(t, err)
	assert.Len(t, view.Meals, 1)
	assert.Len(t, view.Exercises, 1)
	assert.Len(t, view.Water, 2)
	assert.Len(t, view.Plan, 1)
	assert.Equal(t, "M1", view.Meals[0].MealID)
}

func TestGetDailyView_MostRecentSleepWins(t *testing.T) {
	repos := newFakeRepos()
	addSleep(repos.sleep, "u1", "2024-03-01", dec("6"), loggedAt.Add(time.Hour))
	addSleep(repos.sleep, "u1", "2024-03-01", dec("8"), loggedAt.Add(3*time.Hour))
	addSleep(repos.sleep, "u1", "2024-03-01", dec("7"), loggedAt)

	view, err := NewDailyViewBuilder(repos.repositories()).GetDailyView(context.Background(), "u1", date("2024-03-01"))
	require.NoError(t, err)
	require.NotNil(t, view.Sleep)
	assert.Equal(t, "8", view.Sleep.DurationHours.String(), "no averaging or merging")
}

func TestGetDailyView_RepositoryError(t *testing.T) {
	repos := newFakeRepos()
	boom := errors.New("connection reset")
	rs := repos.repositories()
	rs.Water = failingLogs[domain.WaterLog]{err: boom}

	_, err := NewDailyViewBuilder(rs).GetDailyView(context.Background(), "u1", date("2024-03-01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read water")
}

type failingLogs[L any] struct{ err error }

func (f failingLogs[L]) Create(context.Context, L) (string, error) { return "", f.err }

func (f failingLogs[L]) GetByDate(context.Context, string, civil.Date) ([]L, error) {
	return nil, f.err
}

func (f failingLogs[L]) GetRange(context.Context, string, civil.Date, civil.Date) ([]L, error) {
	return nil, f.err
}
