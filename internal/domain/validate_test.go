package domain

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 1}, d)

	for _, bad := range []string{"", "2024-13-01", "2024-02-30", "03/01/2024", "yesterday"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseDate(bad)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tm, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, civil.Time{Hour: 8, Minute: 30}, tm)

	tm, err = ParseTimeOfDay("21:05:10")
	require.NoError(t, err)
	assert.Equal(t, 10, tm.Second)

	tm, err = ParseTimeOfDay("7:30")
	require.NoError(t, err)
	assert.Equal(t, civil.Time{Hour: 7, Minute: 30}, tm)

	tm, err = ParseTimeOfDay("7:30:15")
	require.NoError(t, err)
	assert.Equal(t, civil.Time{Hour: 7, Minute: 30, Second: 15}, tm)

	for _, bad := range []string{"25:00", "7:3", ":30", "7", ""} {
		_, err = ParseTimeOfDay(bad)
		assert.True(t, IsValidation(err), "%q", bad)
	}
}

func TestParseActivityType(t *testing.T) {
	got, err := ParseActivityType(" Meal ")
	require.NoError(t, err)
	assert.Equal(t, ActivityMeal, got)

	_, err = ParseActivityType("yoga")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestParsePositiveDecimal(t *testing.T) {
	d, err := ParsePositiveDecimal("duration", "7.5")
	require.NoError(t, err)
	assert.Equal(t, "7.5", d.String())

	for _, bad := range []string{"0", "-1", "abc", "NaN", "Infinity"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParsePositiveDecimal("duration", bad)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestReferenceLess(t *testing.T) {
	assert.True(t, ActivitySleep.ReferenceLess())
	assert.True(t, ActivityWater.ReferenceLess())
	assert.False(t, ActivityMeal.ReferenceLess())
	assert.False(t, ActivityExercise.ReferenceLess())
	assert.False(t, ActivityOther.ReferenceLess())
}

func TestValidatePlanItem(t *testing.T) {
	valid := func() PlanItem {
		return PlanItem{
			UserID: "u1",
			Date:   civil.Date{Year: 2024, Month: 3, Day: 1},
			Time:   civil.Time{Hour: 8},
			Type:   ActivityMeal,
			Title:  "  Breakfast ",
		}
	}

	p := valid()
	require.NoError(t, ValidatePlanItem(&p))
	assert.Equal(t, "Breakfast", p.Title)

	// Decomposed "é" normalizes to the precomposed form.
	p = valid()
	p.Title = "Cafe\u0301"
	require.NoError(t, ValidatePlanItem(&p))
	assert.Equal(t, "Caf\u00e9", p.Title)

	tests := map[string]func(*PlanItem){
		"user_id":   func(p *PlanItem) { p.UserID = " " },
		"date":      func(p *PlanItem) { p.Date = civil.Date{} },
		"type":      func(p *PlanItem) { p.Type = "nap" },
		"title":     func(p *PlanItem) { p.Title = "" },
		"completed": func(p *PlanItem) { p.Completed = true },
	}
	for field, mutate := range tests {
		t.Run(field, func(t *testing.T) {
			p := valid()
			mutate(&p)
			err := ValidatePlanItem(&p)
			require.Error(t, err)
			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, field, de.Field)
		})
	}
}

func TestValidateMealLog_DefaultsServings(t *testing.T) {
	l := MealLog{UserID: "u1", Date: civil.Date{Year: 2024, Month: 3, Day: 1}, MealID: "M1"}
	require.NoError(t, ValidateMealLog(&l))
	assert.Equal(t, "1", l.Servings.String())

	l.Servings = apd.New(MaxServings, 0)
	require.NoError(t, ValidateMealLog(&l))
	l.Servings = apd.New(MaxServings+1, 0)
	assert.True(t, IsValidation(ValidateMealLog(&l)))

	l.Servings = nil
	l.MealID = ""
	assert.True(t, IsValidation(ValidateMealLog(&l)))
}

func TestValidateSleepLog(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 3, Day: 1}

	l := SleepLog{UserID: "u1", Date: date, DurationHours: apd.New(75, -1), Quality: 4}
	require.NoError(t, ValidateSleepLog(&l))

	l.DurationHours = apd.New(0, 0)
	assert.True(t, IsValidation(ValidateSleepLog(&l)))

	l.DurationHours = apd.New(25, 0)
	assert.True(t, IsValidation(ValidateSleepLog(&l)))

	l.DurationHours = apd.New(8, 0)
	l.Quality = 6
	assert.True(t, IsValidation(ValidateSleepLog(&l)))
}

func TestValidateExerciseAndWater(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 3, Day: 1}

	ex := ExerciseLog{UserID: "u1", Date: date, ExerciseID: "E1", DurationMinutes: apd.New(30, 0)}
	require.NoError(t, ValidateExerciseLog(&ex))
	ex.CaloriesBurned = -5
	assert.True(t, IsValidation(ValidateExerciseLog(&ex)))

	ex.CaloriesBurned = 0
	ex.DurationMinutes = apd.New(MaxExerciseMinutes, 0)
	require.NoError(t, ValidateExerciseLog(&ex))
	ex.DurationMinutes = apd.New(1, 40)
	err := ValidateExerciseLog(&ex)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "at most 1440 minutes")

	w := WaterLog{UserID: "u1", Date: date, AmountML: 250}
	require.NoError(t, ValidateWaterLog(&w))
	w.AmountML = 0
	assert.True(t, IsValidation(ValidateWaterLog(&w)))
}
