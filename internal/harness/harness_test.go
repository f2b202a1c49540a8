package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".yaml"), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ReportsExpectMismatch(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: mismatch
description: expects a completion that cannot happen
setup:
  plan:
    - {key: lunch, date: "2024-03-01", time: "12:00", type: meal, reference_id: salad, title: Lunch}
flow:
  - action: log_meal
    ref: soup
    expect: {completed: 1, matched: [lunch]}
assertions:
  - {type: plan_status, item: lunch, status: completed}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "completed = 0, want 1")
	assert.Contains(t, result.Errors[1], "matched = [], want [lunch]")
	assert.Contains(t, result.Errors[2], "status = pending, want completed")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: unexpected
description: a rejected log without an error expectation
flow:
  - action: log_water
    amount: "-5"
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "VALIDATION", result.Trace[0].Error)
}

func TestRun_DefaultsToClockToday(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: today
description: steps without a date use the frozen clock's date
now: "2024-05-10T23:30:00Z"
flow:
  - {action: log_water, amount: "250"}
  - {action: log_water, amount: "250", advance: 1h}
assertions:
  - {type: log_count, kind: water, date: "2024-05-10", count: 1}
  - {type: log_count, kind: water, date: "2024-05-11", count: 1}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "2024-05-10", result.Trace[0].Date)
	assert.Equal(t, "2024-05-11", result.Trace[1].Date)
}

func TestRun_UserScoping(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: scoping
description: another user's plan item is never completed
user: alice
setup:
  plan:
    - {key: bobs-bed, user: bob, date: "2024-03-01", time: "22:00", type: sleep, title: Bed}
flow:
  - {action: log_sleep, date: "2024-03-01", amount: "8", expect: {completed: 0}}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestMarshalSnapshot_Stable(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "s",
		Pass:         true,
		Trace: []TraceEvent{
			{Seq: 1, Action: ActionDay, Plan: map[string]string{"b": "pending", "a": "completed"}},
		},
	}

	first, err := MarshalSnapshot(snap)
	require.NoError(t, err)
	second, err := MarshalSnapshot(snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasSuffix(string(first), "}\n"))
	assert.Less(t, strings.Index(string(first), `"a"`), strings.Index(string(first), `"b"`))
}
