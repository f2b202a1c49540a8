package domain

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/unicode/norm"
)

// Upper bounds for a single log.
const (
	MaxSleepHours      = 24
	MaxExerciseMinutes = 24 * 60
	MaxServings        = 100
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil || !d.IsValid() {
		return civil.Date{}, NewValidationError("date", fmt.Sprintf("malformed date %q, want YYYY-MM-DD", s))
	}
	return d, nil
}

// ParseTimeOfDay parses HH:MM or HH:MM:SS. A one-digit hour is accepted.
func ParseTimeOfDay(raw string) (civil.Time, error) {
	s := strings.TrimSpace(raw)
	if len(s) > 1 && s[1] == ':' {
		s = "0" + s
	}
	if len(s) == len("15:04") {
		s += ":00"
	}
	t, err := civil.ParseTime(s)
	if err != nil || !t.IsValid() {
		return civil.Time{}, NewValidationError("time", fmt.Sprintf("malformed time %q, want HH:MM", raw))
	}
	return t, nil
}

// ParseActivityType parses a known activity type.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("type", fmt.Sprintf("unknown activity type %q", s))
	}
	return t, nil
}

// ParsePositiveDecimal parses a finite decimal strictly greater than zero.
func ParsePositiveDecimal(field, s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, NewValidationError(field, fmt.Sprintf("malformed number %q", s))
	}
	if err := requirePositive(field, d); err != nil {
		return nil, err
	}
	return d, nil
}

func requirePositive(field string, d *apd.Decimal) error {
	if d == nil {
		return NewValidationError(field, "value is required")
	}
	if d.Form != apd.Finite || d.Sign() <= 0 {
		return NewValidationError(field, fmt.Sprintf("must be positive, got %s", d.String()))
	}
	return nil
}

func requireAtMost(field string, d *apd.Decimal, max int64, unit string) error {
	if d.Cmp(apd.New(max, 0)) > 0 {
		return NewValidationError(field, fmt.Sprintf("must be at most %d %s", max, unit))
	}
	return nil
}

// NormalizeText trims s and puts it in Unicode NFC form so that titles
// typed on different platforms compare equal.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return NewValidationError("user_id", "user id is required")
	}
	return nil
}

func requireDate(d civil.Date) error {
	if !d.IsValid() {
		return NewValidationError("date", "date is required")
	}
	return nil
}

// ValidatePlanItem checks a new plan item and normalizes its text fields.
func ValidatePlanItem(p *PlanItem) error {
	if err := requireUser(p.UserID); err != nil {
		return err
	}
	if err := requireDate(p.Date); err != nil {
		return err
	}
	if !p.Time.IsValid() {
		return NewValidationError("time", "time of day is invalid")
	}
	if !p.Type.Valid() {
		return NewValidationError("type", fmt.Sprintf("unknown activity type %q", p.Type))
	}
	p.Title = NormalizeText(p.Title)
	p.Description = NormalizeText(p.Description)
	p.ReferenceID = strings.TrimSpace(p.ReferenceID)
	if p.Title == "" {
		return NewValidationError("title", "title is required")
	}
	if p.Completed || p.CompletedAt != nil {
		return NewValidationError("completed", "new plan items start pending")
	}
	return nil
}

// ValidateMealLog checks a meal log before it is written.
func ValidateMealLog(l *MealLog) error {
	if err := requireUser(l.UserID); err != nil {
		return err
	}
	if err := requireDate(l.Date); err != nil {
		return err
	}
	l.MealID = strings.TrimSpace(l.MealID)
	if l.MealID == "" {
		return NewValidationError("meal_id", "meal id is required")
	}
	if l.Servings == nil {
		l.Servings = apd.New(1, 0)
	}
	if err := requirePositive("servings", l.Servings); err != nil {
		return err
	}
	return requireAtMost("servings", l.Servings, MaxServings, "servings")
}

// ValidateExerciseLog checks an exercise log before it is written.
func ValidateExerciseLog(l *ExerciseLog) error {
	if err := requireUser(l.UserID); err != nil {
		return err
	}
	if err := requireDate(l.Date); err != nil {
		return err
	}
	l.ExerciseID = strings.TrimSpace(l.ExerciseID)
	if l.ExerciseID == "" {
		return NewValidationError("exercise_id", "exercise id is required")
	}
	if err := requirePositive("duration", l.DurationMinutes); err != nil {
		return err
	}
	if err := requireAtMost("duration", l.DurationMinutes, MaxExerciseMinutes, "minutes"); err != nil {
		return err
	}
	if l.CaloriesBurned < 0 {
		return NewValidationError("calories_burned", "must not be negative")
	}
	return nil
}

// ValidateSleepLog checks a sleep log before it is written.
func ValidateSleepLog(l *SleepLog) error {
	if err := requireUser(l.UserID); err != nil {
		return err
	}
	if err := requireDate(l.Date); err != nil {
		return err
	}
	if err := requirePositive("duration", l.DurationHours); err != nil {
		return err
	}
	if err := requireAtMost("duration", l.DurationHours, MaxSleepHours, "hours"); err != nil {
		return err
	}
	if l.Quality < 0 || l.Quality > 5 {
		return NewValidationError("quality", "must be between 0 and 5")
	}
	l.Notes = NormalizeText(l.Notes)
	return nil
}

// ValidateWaterLog checks a water log before it is written.
func ValidateWaterLog(l *WaterLog) error {
	if err := requireUser(l.UserID); err != nil {
		return err
	}
	if err := requireDate(l.Date); err != nil {
		return err
	}
	if l.AmountML <= 0 {
		return NewValidationError("amount_ml", "must be positive")
	}
	return nil
}

// ValidateUserID rejects an empty user id on read paths.
func ValidateUserID(userID string) error {
	return requireUser(userID)
}
