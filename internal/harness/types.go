package harness

// TraceEvent records the observable outcome of one flow step.
// Only deterministic fields appear so traces can be golden-compared.
type TraceEvent struct {
	Seq       int               `json:"seq"`
	Action    string            `json:"action"`
	Date      string            `json:"date,omitempty"`
	LogID     string            `json:"log_id,omitempty"`
	Matched   []string          `json:"matched,omitempty"`
	Completed int64             `json:"completed,omitempty"`
	Warning   string            `json:"warning,omitempty"`
	Error     string            `json:"error,omitempty"`
	Plan      map[string]string `json:"plan,omitempty"`
	Summary   *WeekSnapshot     `json:"summary,omitempty"`
}

// WeekSnapshot is the comparable part of a weekly summary.
type WeekSnapshot struct {
	Kind         string `json:"kind"`
	Start        string `json:"start"`
	End          string `json:"end"`
	DaysWithData int    `json:"days_with_data"`
	Total        string `json:"total"`
	Average      string `json:"average"`
	Skipped      int    `json:"skipped,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
