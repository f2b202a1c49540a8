package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/roach88/healthsync/internal/domain"
	"github.com/roach88/healthsync/internal/testutil"
)

// fakePlans is an in-memory PlanRepository with the same conditional
// completion semantics as the SQLite store.
type fakePlans struct {
	mu    sync.Mutex
	items map[string]*domain.PlanItem
	order []string
	ids   *testutil.SequenceIDs

	findErr error
	markErr error

	findCalls int
	markCalls int
}

func newFakePlans() *fakePlans {
	return &fakePlans{
		items: make(map[string]*domain.PlanItem),
		ids:   testutil.NewSequenceIDs("plan"),
	}
}

func (f *fakePlans) CreatePlanItem(_ context.Context, item domain.PlanItem) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == "" {
		item.ID = f.ids.NewID()
	}
	f.items[item.ID] = &item
	f.order = append(f.order, item.ID)
	return item.ID, nil
}

func (f *fakePlans) GetPlanItem(_ context.Context, userID, id string) (domain.PlanItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok || item.UserID != userID {
		return domain.PlanItem{}, domain.NewNotFoundError(userID, id, "plan item")
	}
	return *item, nil
}

func (f *fakePlans) GetPlanByDate(_ context.Context, userID string, date civil.Date) ([]domain.PlanItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PlanItem
	for _, id := range f.order {
		item := f.items[id]
		if item.UserID == userID && item.Date == date {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakePlans) FindPending(_ context.Context, userID string, date civil.Date, t domain.ActivityType) ([]domain.PlanItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []domain.PlanItem
	for _, id := range f.order {
		item := f.items[id]
		if item.UserID == userID && item.Date == date && item.Type == t && !item.Completed {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakePlans) MarkCompleted(_ context.Context, userID string, ids []string, completedAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	if f.markErr != nil {
		return 0, f.markErr
	}
	var n int64
	for _, id := range ids {
		item, ok := f.items[id]
		if !ok || item.UserID != userID || item.Completed {
			continue
		}
		at := completedAt
		item.Completed = true
		item.CompletedAt = &at
		n++
	}
	return n, nil
}

func (f *fakePlans) get(id string) domain.PlanItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.items[id]
}

// fakeLogs is an in-memory LogRepository for one log kind.
type fakeLogs[L any] struct {
	mu    sync.Mutex
	logs  []L
	ids   *testutil.SequenceIDs
	key   func(L) (string, civil.Date)
	setID func(*L, string)

	createErr error
	rangeErr  error
	creates   int
}

func newFakeLogs[L any](prefix string, key func(L) (string, civil.Date), setID func(*L, string)) *fakeLogs[L] {
	return &fakeLogs[L]{ids: testutil.NewSequenceIDs(prefix), key: key, setID: setID}
}

func (f *fakeLogs[L]) Create(_ context.Context, l L) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return "", f.createErr
	}
	id := f.ids.NewID()
	f.setID(&l, id)
	f.logs = append(f.logs, l)
	return id, nil
}

func (f *fakeLogs[L]) GetByDate(_ context.Context, userID string, date civil.Date) ([]L, error) {
	return f.filter(userID, func(d civil.Date) bool { return d == date }, nil)
}

func (f *fakeLogs[L]) GetRange(_ context.Context, userID string, start, end civil.Date) ([]L, error) {
	return f.filter(userID, func(d civil.Date) bool { return !d.Before(start) && !d.After(end) }, f.rangeErr)
}

func (f *fakeLogs[L]) filter(userID string, keep func(civil.Date) bool, err error) ([]L, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []L
	for _, l := range f.logs {
		u, d := f.key(l)
		if u == userID && keep(d) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeRepos struct {
	plans     *fakePlans
	meals     *fakeLogs[domain.MealLog]
	exercises *fakeLogs[domain.ExerciseLog]
	sleep     *fakeLogs[domain.SleepLog]
	water     *fakeLogs[domain.WaterLog]
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		plans: newFakePlans(),
		meals: newFakeLogs("meal",
			func(l domain.MealLog) (string, civil.Date) { return l.UserID, l.Date },
			func(l *domain.MealLog, id string) { l.ID = id }),
		exercises: newFakeLogs("exercise",
			func(l domain.ExerciseLog) (string, civil.Date) { return l.UserID, l.Date },
			func(l *domain.ExerciseLog, id string) { l.ID = id }),
		sleep: newFakeLogs("sleep",
			func(l domain.SleepLog) (string, civil.Date) { return l.UserID, l.Date },
			func(l *domain.SleepLog, id string) { l.ID = id }),
		water: newFakeLogs("water",
			func(l domain.WaterLog) (string, civil.Date) { return l.UserID, l.Date },
			func(l *domain.WaterLog, id string) { l.ID = id }),
	}
}

func (r *fakeRepos) repositories() Repositories {
	return Repositories{
		Plans:     r.plans,
		Meals:     r.meals,
		Exercises: r.exercises,
		Sleep:     r.sleep,
		Water:     r.water,
	}
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func planItem(userID, day string, t domain.ActivityType, ref string) domain.PlanItem {
	return domain.PlanItem{
		UserID:      userID,
		Date:        date(day),
		Time:        civil.Time{Hour: 8},
		Type:        t,
		ReferenceID: ref,
		Title:       string(t) + " " + ref,
	}
}

func mustCreate(f *fakePlans, item domain.PlanItem) string {
	id, err := f.CreatePlanItem(context.Background(), item)
	if err != nil {
		panic(err)
	}
	return id
}

func sortedIDs(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
