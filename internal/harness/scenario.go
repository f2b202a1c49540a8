package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/healthsync/internal/domain"
)

// DefaultUser is the user id scenarios run as unless they set one.
const DefaultUser = "u1"

// DefaultNow is the frozen instant scenarios start at unless they set one.
var DefaultNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Scenario defines one reconciliation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// User is the user id every step runs as. Default: DefaultUser.
	User string `yaml:"user,omitempty"`

	// Now is the RFC 3339 instant the clock starts at. Default: DefaultNow.
	Now string `yaml:"now,omitempty"`

	// ReconcileOnRead toggles the lazy recheck on day views. Default: true.
	ReconcileOnRead *bool `yaml:"reconcile_on_read,omitempty"`

	// Setup seeds state before the flow runs.
	Setup Setup `yaml:"setup,omitempty"`

	// Flow is the ordered list of tracker calls.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Setup seeds plan items and raw logs.
type Setup struct {
	// Plan items are created through the tracker with their key as id.
	Plan []PlanSeed `yaml:"plan,omitempty"`

	// Logs are written straight to the store with no reconciliation,
	// modelling a write whose reconciliation never ran.
	Logs []LogSeed `yaml:"logs,omitempty"`
}

// PlanSeed is one plan item to create.
type PlanSeed struct {
	Key         string `yaml:"key"`
	User        string `yaml:"user,omitempty"`
	Date        string `yaml:"date"`
	Time        string `yaml:"time"`
	Type        string `yaml:"type"`
	ReferenceID string `yaml:"reference_id,omitempty"`
	Title       string `yaml:"title"`
}

// LogSeed is one log to write without reconciliation.
type LogSeed struct {
	Kind   string `yaml:"kind"`
	Date   string `yaml:"date"`
	Ref    string `yaml:"ref,omitempty"`
	Amount string `yaml:"amount,omitempty"`
}

// Step actions.
const (
	ActionLogMeal     = "log_meal"
	ActionLogExercise = "log_exercise"
	ActionLogSleep    = "log_sleep"
	ActionLogWater    = "log_water"
	ActionComplete    = "complete"
	ActionReconcile   = "reconcile"
	ActionDay         = "day"
	ActionWeek        = "week"
)

// FlowStep is one tracker call.
type FlowStep struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Date is the log, view or window end date (YYYY-MM-DD).
	// Empty means the clock's today.
	Date string `yaml:"date,omitempty"`

	// Ref is the meal or exercise catalog id.
	Ref string `yaml:"ref,omitempty"`

	// Amount is servings, minutes, hours or millilitres by action.
	Amount string `yaml:"amount,omitempty"`

	// Item is the plan item key for complete.
	Item string `yaml:"item,omitempty"`

	// Kind is sleep or exercise for week.
	Kind string `yaml:"kind,omitempty"`

	// Advance moves the clock forward before the step (Go duration).
	Advance string `yaml:"advance,omitempty"`

	// Expect checks the step's immediate outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is a subset check on a step result.
type Expect struct {
	// Completed is how many plan items the step transitioned.
	Completed *int64 `yaml:"completed,omitempty"`

	// Matched lists the plan item keys the step matched, in any order.
	Matched []string `yaml:"matched,omitempty"`

	// Error is the expected domain error code; the step must fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion types.
const (
	AssertPlanStatus = "plan_status"
	AssertWeekly     = "weekly"
	AssertLogCount   = "log_count"
)

// Assertion validates final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Item and Status are used by plan_status.
	Item   string `yaml:"item,omitempty"`
	Status string `yaml:"status,omitempty"`

	// Kind and End select the summary for weekly, and Kind and Date the
	// table and day for log_count.
	Kind string `yaml:"kind,omitempty"`
	End  string `yaml:"end,omitempty"`
	Date string `yaml:"date,omitempty"`

	// DaysWithData, Total and Average are checked by weekly.
	DaysWithData *int   `yaml:"days_with_data,omitempty"`
	Total        string `yaml:"total,omitempty"`
	Average      string `yaml:"average,omitempty"`
	Skipped      *int   `yaml:"skipped,omitempty"`

	// Count is checked by log_count.
	Count *int `yaml:"count,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if s.Now != "" {
		if _, err := time.Parse(time.RFC3339, s.Now); err != nil {
			return fmt.Errorf("now: %w", err)
		}
	}

	keys := make(map[string]bool, len(s.Setup.Plan))
	for i, p := range s.Setup.Plan {
		if p.Key == "" {
			return fmt.Errorf("setup.plan[%d]: key is required", i)
		}
		if keys[p.Key] {
			return fmt.Errorf("setup.plan[%d]: duplicate key %q", i, p.Key)
		}
		keys[p.Key] = true
	}
	for i, l := range s.Setup.Logs {
		if _, err := domain.ParseActivityType(l.Kind); err != nil || l.Kind == string(domain.ActivityOther) {
			return fmt.Errorf("setup.logs[%d]: unknown kind %q", i, l.Kind)
		}
	}

	for i, step := range s.Flow {
		switch step.Action {
		case ActionLogMeal, ActionLogExercise, ActionLogSleep, ActionLogWater, ActionReconcile, ActionDay:
		case ActionComplete:
			if step.Item == "" {
				return fmt.Errorf("flow[%d]: item is required for complete", i)
			}
		case ActionWeek:
			if step.Kind != string(domain.SummarySleep) && step.Kind != string(domain.SummaryExercise) {
				return fmt.Errorf("flow[%d]: kind must be sleep or exercise for week", i)
			}
		case "":
			return fmt.Errorf("flow[%d]: action is required", i)
		default:
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Action)
		}
		if step.Advance != "" {
			if _, err := time.ParseDuration(step.Advance); err != nil {
				return fmt.Errorf("flow[%d]: advance: %w", i, err)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, keys); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, keys map[string]bool) error {
	switch a.Type {
	case AssertPlanStatus:
		if !keys[a.Item] {
			return fmt.Errorf("assertions[%d]: unknown plan item %q", index, a.Item)
		}
		switch domain.PlanStatus(a.Status) {
		case domain.PlanPending, domain.PlanCompleted, domain.PlanNotFound:
		default:
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
		}
	case AssertWeekly:
		if a.Kind != string(domain.SummarySleep) && a.Kind != string(domain.SummaryExercise) {
			return fmt.Errorf("assertions[%d]: kind must be sleep or exercise", index)
		}
	case AssertLogCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for log_count", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
