package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/healthsync/internal/domain"
)

func TestCreatePlanItem_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	day := mustDate(t, "2024-03-01")

	item := createTestPlanItem("u1", day, domain.ActivityMeal, "m1")
	item.Time = civil.Time{Hour: 7, Minute: 30}
	item.Description = "oats"

	id, err := s.CreatePlanItem(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, "row-1", id)

	got, err := s.GetPlanItem(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, day, got.Date)
	assert.Equal(t, civil.Time{Hour: 7, Minute: 30}, got.Time)
	assert.Equal(t, domain.ActivityMeal, got.Type)
	assert.Equal(t, "m1", got.ReferenceID)
	assert.Equal(t, "oats", got.Description)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
	assert.True(t, got.CreatedAt.Equal(testCreatedAt))
}

func TestCreatePlanItem_KeepsProvidedID(t *testing.T) {
	s := createTestStore(t)
	item := createTestPlanItem("u1", mustDate(t, "2024-03-01"), domain.ActivitySleep, "")
	item.ID = "custom"

	id, err := s.CreatePlanItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "custom", id)
}

func TestCreatePlanItem_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	item := createTestPlanItem("u1", mustDate(t, "2024-03-01"), domain.ActivitySleep, "")
	item.ID = "dup"

	_, err := s.CreatePlanItem(context.Background(), item)
	require.NoError(t, err)
	_, err = s.CreatePlanItem(context.Background(), item)
	assert.Error(t, err)
}

func TestGetPlanItem_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetPlanItem(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestGetPlanItem_ScopedToUser(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.CreatePlanItem(ctx, createTestPlanItem("u1", mustDate(t, "2024-03-01"), domain.ActivityWater, ""))
	require.NoError(t, err)

	_, err = s.GetPlanItem(ctx, "u2", id)
	assert.True(t, domain.IsNotFound(err), "another user's item must look missing")
}

func TestGetPlanByDate_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	day := mustDate(t, "2024-03-01")

	late := createTestPlanItem("u1", day, domain.ActivityExercise, "run")
	late.Time = civil.Time{Hour: 18}
	early := createTestPlanItem("u1", day, domain.ActivityMeal, "m1")
	early.Time = civil.Time{Hour: 7}
	other := createTestPlanItem("u1", day.AddDays(1), domain.ActivityMeal, "m1")

	for _, it := range []domain.PlanItem{late, early, other} {
		_, err := s.CreatePlanItem(ctx, it)
		require.NoError(t, err)
	}

	items, err := s.GetPlanByDate(ctx, "u1", day)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "m1", items[0].ReferenceID)
	assert.Equal(t, "run", items[1].ReferenceID)
}

func TestGetPlanByDate_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	items, err := s.GetPlanByDate(context.Background(), "u1", mustDate(t, "2024-03-01"))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFindPending_FiltersTypeAndCompletion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	day := mustDate(t, "2024-03-01")

	mealID, err := s.CreatePlanItem(ctx, createTestPlanItem("u1", day, domain.ActivityMeal, "m1"))
	require.NoError(t, err)
	doneID, err := s.CreatePlanItem(ctx, createTestPlanItem("u1", day, domain.ActivityMeal, "m2"))
	require.NoError(t, err)
	_, err = s.CreatePlanItem(ctx, createTestPlanItem("u1", day, domain.ActivityExercise, "run"))
	require.NoError(t, err)
	_, err = s.CreatePlanItem(ctx, createTestPlanItem("u2", day, domain.ActivityMeal, "m1"))
	require.NoError(t, err)

	_, err = s.MarkCompleted(ctx, "u1", []string{doneID}, testCreatedAt)
	require.NoError(t, err)

	pending, err := s.FindPending(ctx, "u1", day, domain.ActivityMeal)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, mealID, pending[0].ID)
}

func TestMarkCompleted_Conditional(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	day := mustDate(t, "2024-03-01")

	id, err := s.CreatePlanItem(ctx, createTestPlanItem("u1", day, domain.ActivitySleep, ""))
	require.NoError(t, err)

	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	n, err := s.MarkCompleted(ctx, "u1", []string{id}, first)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.MarkCompleted(ctx, "u1", []string{id}, first.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "second completion must not change anything")

	got, err := s.GetPlanItem(ctx, "u1", id)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(first), "completed_at keeps the first transition")
}

func TestMarkCompleted_WrongUser(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.CreatePlanItem(ctx, createTestPlanItem("u1", mustDate(t, "2024-03-01"), domain.ActivitySleep, ""))
	require.NoError(t, err)

	n, err := s.MarkCompleted(ctx, "u2", []string{id}, testCreatedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMarkCompleted_Empty(t *testing.T) {
	s := createTestStore(t)

	n, err := s.MarkCompleted(context.Background(), "u1", nil, testCreatedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMarkCompleted_ConcurrentCountsOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	day := mustDate(t, "2024-03-01")

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := s.CreatePlanItem(ctx, createTestPlanItem("u1", day, domain.ActivityWater, ""))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	const workers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int64
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.MarkCompleted(ctx, "u1", ids, testCreatedAt)
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(len(ids)), total, "each item transitions exactly once")

	pending, err := s.FindPending(ctx, "u1", day, domain.ActivityWater)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
