package harness

import (
	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// TraceEvent is one load or refresh observed during a scenario.
type TraceEvent struct {
	Seq       int64        `json:"seq"`
	Flow      string       `json:"flow"`
	Feed      string       `json:"feed"`
	Op        string       `json:"op"`
	Outcome   string       `json:"outcome"`
	ErrorKind string       `json:"error_kind,omitempty"`
	Counts    model.Counts `json:"counts"`
	Changed   bool         `json:"changed"`
}

func traceEventFrom(r datastore.Result) TraceEvent {
	return TraceEvent{
		Seq:       r.Seq,
		Flow:      r.FlowID,
		Feed:      string(r.Feed),
		Op:        string(r.Op),
		Outcome:   string(r.Outcome),
		ErrorKind: r.ErrorKind(),
		Counts:    r.Counts,
		Changed:   r.Changed,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists loads and refreshes in sequence order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Views holds every argument-less guide view after the last step.
	Views map[string]any `json:"views,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Views:  make(map[string]any),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Outcomes returns the trace's outcome sequence.
func (r *Result) Outcomes() []string {
	out := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		out[i] = e.Outcome
	}
	return out
}
