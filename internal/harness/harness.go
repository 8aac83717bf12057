package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/fieldsync/internal/model"
	"github.com/roach88/fieldsync/internal/remote"
	"github.com/roach88/fieldsync/internal/rollover"
	"github.com/roach88/fieldsync/internal/store"
	"github.com/roach88/fieldsync/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios against a real store with a fixed clock and sequential ids.
type Harness struct {
	store    *store.Store
	rollover *rollover.Engine
	syncer   *remote.Syncer
	fetcher  *batchFetcher
	clock    *testutil.FixedClock
	logger   *slog.Logger
	seq      int64
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger routes store, rollover and sync logs to l.
// Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database with the scenario clock
// 2. Execute setup steps (must succeed)
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions and capture the sync snapshot
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	start, err := scenario.startTime()
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}

	h := &Harness{
		clock:   testutil.NewFixedClock(start),
		fetcher: &batchFetcher{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	storeOpts := []store.Option{
		store.WithClock(h.clock),
		store.WithIDGenerator(testutil.NewSequentialIDs(scenario.IDPrefix)),
		store.WithLogger(h.logger),
		store.WithPhoneRegion(scenario.PhoneRegion),
	}
	if !scenario.seedEnabled() {
		storeOpts = append(storeOpts, store.WithoutSeed())
	}

	// Create fresh in-memory SQLite database
	st, err := store.Open(":memory:", storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h.store = st
	h.rollover = rollover.New(st, rollover.WithClock(h.clock), rollover.WithLogger(h.logger))
	h.syncer = remote.NewSyncer(h.fetcher, st, h.logger)

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	snap, err := takeSnapshot(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to capture snapshot: %w", err)
	}
	result.Snapshot = snap

	return result, nil
}

// executeSetup runs all setup steps sequentially before the flow.
// Any failure aborts the run: setup describes preconditions, not behavior.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		result.AddInvocationTrace(step.Action, step.Args, h.nextSeq())

		out, err := h.invoke(ctx, step.Action, step.Args)
		if err != nil {
			return fmt.Errorf("setup step %d (%s): %w", i, step.Action, err)
		}

		traceResult, err := normalize(out)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		result.AddCompletionTrace(CaseSuccess, traceResult, h.nextSeq())

		h.logger.Debug("setup step completed", "step", i, "action", step.Action)
	}
	return nil
}

// executeFlow runs all flow steps and validates expect clauses.
//
// Each step:
// 1. Records the invocation in the trace
// 2. Runs the action against the store
// 3. Classifies the outcome (Success, NotFound, Invalid, Error)
// 4. Records the outcome in the trace
// 5. Compares it with the expect clause (or requires Success)
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		result.AddInvocationTrace(step.Invoke, step.Args, h.nextSeq())

		out, actionErr := h.invoke(ctx, step.Invoke, step.Args)
		outputCase := classify(actionErr)

		var traceResult interface{}
		if actionErr != nil {
			traceResult = map[string]interface{}{"error": actionErr.Error()}
		} else {
			var err error
			if traceResult, err = normalize(out); err != nil {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
		}
		result.AddCompletionTrace(outputCase, traceResult, h.nextSeq())

		expectedCase := CaseSuccess
		if step.Expect != nil {
			expectedCase = step.Expect.Case
		}

		if outputCase != expectedCase {
			msg := fmt.Sprintf("flow[%d] %s: expected %s, got %s", i, step.Invoke, expectedCase, outputCase)
			if actionErr != nil {
				msg += ": " + actionErr.Error()
			}
			result.AddError(msg)
		} else if step.Expect != nil && len(step.Expect.Result) > 0 {
			if err := matchResult(traceResult, step.Expect.Result); err != nil {
				result.AddError(fmt.Sprintf("flow[%d] %s: %v", i, step.Invoke, err))
			}
		}

		h.logger.Debug("flow step completed",
			"step", i,
			"action", step.Invoke,
			"output_case", outputCase,
		)
	}

	return nil
}

func (h *Harness) nextSeq() int64 {
	h.seq++
	return h.seq
}

// classify maps an action error to its output case.
func classify(err error) string {
	var verr *model.ValidationError
	switch {
	case err == nil:
		return CaseSuccess
	case errors.Is(err, store.ErrNotFound):
		return CaseNotFound
	case errors.As(err, &verr):
		return CaseInvalid
	default:
		return CaseError
	}
}

// normalize converts an action result to its JSON shape (maps, float64
// numbers, strings) so results compare the same way they are recorded.
func normalize(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize result: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize result: %w", err)
	}
	return out, nil
}

func takeSnapshot(ctx context.Context, st *store.Store) (*Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Customers, err = st.GetAllCustomersForSync(ctx); err != nil {
		return nil, err
	}
	if snap.Bookings, err = st.GetAllOrderBookings(ctx); err != nil {
		return nil, err
	}
	if snap.Lines, err = st.GetAllOrderBookingLines(ctx); err != nil {
		return nil, err
	}
	if snap.Receipts, err = st.GetAllCustomerReceiptsForSync(ctx); err != nil {
		return nil, err
	}
	if snap.ActivityLogs, err = st.GetAllActivityLogs(ctx); err != nil {
		return nil, err
	}
	return &snap, nil
}
