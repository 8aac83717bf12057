// Package harness runs scripted field days against the store.
//
// A scenario drives the real store, the daily rollover engine and the
// customer syncer through a sequence of actions, on a fresh in-memory
// database with a fixed clock and sequential record ids. The resulting
// trace and the final sync snapshot are compared against golden files.
//
// # Scenario Format
//
// A scenario is a YAML file:
//
//	name: order_day
//	description: "What this scenario validates"
//	start: "2025-01-01 08:00:00"
//	seed: false
//	setup:
//	  - action: add_item
//	    args: { name: Black Tea 475g, price: 100 }
//	flow:
//	  - invoke: rollover
//	    args: {}
//	    expect:
//	      case: Success
//	      result: { transition: first_run }
//	  - invoke: mark_visited
//	    args: { customer_id: 99 }
//	    expect:
//	      case: NotFound
//	assertions:
//	  - type: trace_contains
//	    action: submit_order
//	  - type: final_state
//	    table: activity_logs
//	    where: { customer_id: 1, date: "2025-01-01" }
//	    expect: { status: Visited }
//	  - type: row_count
//	    table: order_bookings
//	    count: 1
//
// Setup steps must succeed. Flow steps without an expect clause must
// succeed; with one, the outcome case must match and the listed result
// fields must be present with equal values.
//
// # Outcome Cases
//
//   - Success: the action returned no error
//   - NotFound: the error wraps store.ErrNotFound
//   - Invalid: the error wraps *model.ValidationError
//   - Error: any other failure
//
// # Assertions
//
// Assertions run after the flow against the trace, read as steps (an
// invoked action paired with its outcome), and against the final store.
//
//   - trace_contains: some step ran action with args containing args
//   - trace_order: the first runs of actions happened in the listed order
//   - trace_count: exactly count steps match action and args
//   - final_state: exactly one row of table matches where and holds expect
//   - row_count: exactly count rows of table match where
//
// trace_contains and trace_count also take a case, which restricts matches
// to steps with that outcome.
//
// LoadScenario reads one file, Run executes it and RunSuite runs every
// scenario under a directory. Actions lists the action names a flow may use.
package harness
