package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"
)

// ActivityType identifies what a plan item or log is about.
type ActivityType string

const (
	ActivityMeal     ActivityType = "meal"
	ActivityExercise ActivityType = "exercise"
	ActivitySleep    ActivityType = "sleep"
	ActivityWater    ActivityType = "water"
	ActivityOther    ActivityType = "other"
)

// ActivityTypes lists the accepted activity types in display order.
var ActivityTypes = []ActivityType{
	ActivityMeal,
	ActivityExercise,
	ActivitySleep,
	ActivityWater,
	ActivityOther,
}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ReferenceLess reports whether logs of this type carry no catalog
// reference, so matching is by user, date and type alone.
func (t ActivityType) ReferenceLess() bool {
	return t == ActivitySleep || t == ActivityWater
}

// PlanItem is a user-scheduled activity for a specific date and time.
type PlanItem struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Date        civil.Date   `json:"date"`
	Time        civil.Time   `json:"time"`
	Type        ActivityType `json:"type"`
	ReferenceID string       `json:"reference_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Status returns the item's completion state.
func (p PlanItem) Status() PlanStatus {
	if p.Completed {
		return PlanCompleted
	}
	return PlanPending
}

// PlanStatus is the observable state of a plan item lookup.
type PlanStatus string

const (
	PlanNotFound  PlanStatus = "not_found"
	PlanPending   PlanStatus = "pending"
	PlanCompleted PlanStatus = "completed"
)

// ActivityEvent is the identifying part of a just-persisted log, the
// input to reconciliation.
type ActivityEvent struct {
	UserID      string
	Date        civil.Date
	Type        ActivityType
	ReferenceID string
	LoggedAt    time.Time
}

// MealLog records that a catalog meal was eaten.
type MealLog struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Date      civil.Date   `json:"date"`
	MealID    string       `json:"meal_id"`
	Servings  *apd.Decimal `json:"servings"`
	CreatedAt time.Time    `json:"created_at"`
}

// Event returns the reconciliation input for the log.
func (l MealLog) Event() ActivityEvent {
	return ActivityEvent{UserID: l.UserID, Date: l.Date, Type: ActivityMeal, ReferenceID: l.MealID, LoggedAt: l.CreatedAt}
}

// ExerciseLog records a catalog exercise session.
type ExerciseLog struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Date            civil.Date   `json:"date"`
	ExerciseID      string       `json:"exercise_id"`
	DurationMinutes *apd.Decimal `json:"duration_minutes"`
	CaloriesBurned  int          `json:"calories_burned"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Event returns the reconciliation input for the log.
func (l ExerciseLog) Event() ActivityEvent {
	return ActivityEvent{UserID: l.UserID, Date: l.Date, Type: ActivityExercise, ReferenceID: l.ExerciseID, LoggedAt: l.CreatedAt}
}

// SleepLog records a night's sleep. DurationHours is nil when the stored
// value could not be read back.
type SleepLog struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	Date          civil.Date   `json:"date"`
	DurationHours *apd.Decimal `json:"duration_hours"`
	Quality       int          `json:"quality,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Event returns the reconciliation input for the log.
func (l SleepLog) Event() ActivityEvent {
	return ActivityEvent{UserID: l.UserID, Date: l.Date, Type: ActivitySleep, LoggedAt: l.CreatedAt}
}

// WaterLog records water intake.
type WaterLog struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Date      civil.Date `json:"date"`
	AmountML  int        `json:"amount_ml"`
	CreatedAt time.Time  `json:"created_at"`
}

// Event returns the reconciliation input for the log.
func (l WaterLog) Event() ActivityEvent {
	return ActivityEvent{UserID: l.UserID, Date: l.Date, Type: ActivityWater, LoggedAt: l.CreatedAt}
}

// CompletionResult reports what a reconciliation pass did.
type CompletionResult struct {
	// Matched holds the ids of pending items the log satisfied.
	Matched []string `json:"matched"`
	// Completed is how many of them this call transitioned. It is lower
	// than len(Matched) when a concurrent call completed some first.
	Completed   int64     `json:"completed"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// DailyView is everything logged and planned for one user and date.
type DailyView struct {
	Date      civil.Date    `json:"date"`
	Meals     []MealLog     `json:"meals"`
	Exercises []ExerciseLog `json:"exercises"`
	Water     []WaterLog    `json:"water"`
	Sleep     *SleepLog     `json:"sleep"`
	Plan      []PlanItem    `json:"plan"`
}

// SummaryKind names the activity a weekly summary aggregates.
type SummaryKind string

const (
	SummarySleep    SummaryKind = "sleep"
	SummaryExercise SummaryKind = "exercise"
)

// DaySlot is one date of a weekly window. Duration is nil when the day
// has no usable data.
type DaySlot struct {
	Date     civil.Date   `json:"date"`
	Duration *apd.Decimal `json:"duration"`
}

// SkippedEntry is a stored log excluded from aggregation.
type SkippedEntry struct {
	LogID  string     `json:"log_id"`
	Date   civil.Date `json:"date"`
	Reason string     `json:"reason"`
}

// WeeklySummary aggregates one activity over a 7-day window.
type WeeklySummary struct {
	Kind          SummaryKind    `json:"kind"`
	Start         civil.Date     `json:"start"`
	End           civil.Date     `json:"end"`
	Days          []DaySlot      `json:"days"`
	DaysWithData  int            `json:"days_with_data"`
	TotalDuration *apd.Decimal   `json:"total_duration"`
	AvgDuration   *apd.Decimal   `json:"avg_duration"`
	Skipped       []SkippedEntry `json:"skipped,omitempty"`
}
