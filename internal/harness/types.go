package harness

import "github.com/roach88/fieldsync/internal/model"

// Trace event kinds.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
)

// TraceEvent is one entry of a scenario trace: an action invocation or the
// outcome of the preceding invocation.
type TraceEvent struct {
	Type       string      `json:"type"`
	Action     string      `json:"action,omitempty"`
	Args       interface{} `json:"args,omitempty"`
	OutputCase string      `json:"output_case,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	Seq        int64       `json:"seq"`
}

// Step pairs an invoked action with the outcome recorded after it.
// Outcome is empty for an invocation with no completion.
type Step struct {
	Seq     int64
	Action  string
	Args    interface{}
	Outcome string
	Result  interface{}
}

// Steps folds a trace into invocation/outcome pairs in trace order.
func Steps(trace []TraceEvent) []Step {
	steps := make([]Step, 0, len(trace)/2)
	for _, ev := range trace {
		switch ev.Type {
		case EventInvocation:
			steps = append(steps, Step{Seq: ev.Seq, Action: ev.Action, Args: ev.Args})
		case EventCompletion:
			if n := len(steps); n > 0 && steps[n-1].Outcome == "" {
				steps[n-1].Outcome = ev.OutputCase
				steps[n-1].Result = ev.Result
			}
		}
	}
	return steps
}

// Snapshot is the upload view of the device after a scenario.
type Snapshot struct {
	Customers    []model.Customer         `json:"customers"`
	Bookings     []model.OrderBooking     `json:"order_bookings"`
	Lines        []model.OrderBookingLine `json:"order_booking_lines"`
	Receipts     []model.CustomerReceipt  `json:"customer_receipts"`
	ActivityLogs []model.ActivityLog      `json:"activity_logs"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions; empty when Pass.
	Errors []string `json:"errors,omitempty"`

	// Snapshot holds the synced tables at the end of the run.
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocationTrace records that action was invoked with args.
func (r *Result) AddInvocationTrace(action string, args interface{}, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventInvocation,
		Action: action,
		Args:   args,
		Seq:    seq,
	})
}

// AddCompletionTrace records the outcome of the last invocation.
func (r *Result) AddCompletionTrace(outputCase string, result interface{}, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       EventCompletion,
		OutputCase: outputCase,
		Result:     result,
		Seq:        seq,
	})
}
