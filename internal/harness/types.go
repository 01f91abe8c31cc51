package harness

import "github.com/roach88/rollbook/internal/ledger"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step     int            `json:"step"` // 1-based
	Op       string         `json:"op"`
	Identity string         `json:"identity,omitempty"` // active identity after the step
	Ref      string         `json:"ref,omitempty"`
	Key      int64          `json:"key,omitempty"`
	Query    string         `json:"query,omitempty"`
	Outcome  string         `json:"outcome"` // "ok" or an error code
	Record   *ledger.Record `json:"record,omitempty"`
	IDs      []string       `json:"ids,omitempty"`
	Count    int            `json:"count"` // records after the step
}

// OutcomeOK marks a step that returned no error.
const OutcomeOK = "ok"

// OutcomeUnbound marks a step whose record alias was never bound because the
// create that declared it failed. The step is not run.
const OutcomeUnbound = "UNBOUND_ALIAS"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the collection after the last step.
	Final []ledger.Record `json:"final"`

	// Identity is the active identity after the last step.
	Identity string `json:"identity,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Final:  []ledger.Record{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
