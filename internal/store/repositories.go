package store

import (
	"github.com/roach88/healthsync/internal/domain"
	"github.com/roach88/healthsync/internal/engine"
)

var (
	_ engine.PlanRepository                    = (*Store)(nil)
	_ engine.LogRepository[domain.MealLog]     = (*LogTable[domain.MealLog])(nil)
	_ engine.LogRepository[domain.ExerciseLog] = (*LogTable[domain.ExerciseLog])(nil)
	_ engine.LogRepository[domain.SleepLog]    = (*LogTable[domain.SleepLog])(nil)
	_ engine.LogRepository[domain.WaterLog]    = (*LogTable[domain.WaterLog])(nil)
)

// Repositories exposes the store through the engine's storage ports.
func (s *Store) Repositories() engine.Repositories {
	return engine.Repositories{
		Plans:     s,
		Meals:     s.Meals(),
		Exercises: s.Exercises(),
		Sleep:     s.Sleep(),
		Water:     s.Water(),
	}
}
