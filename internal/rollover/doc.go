// Package rollover implements the daily visit-tracking state machine.
//
// Every customer gets one activity row per calendar day. On launch the
// engine compares today's date with the last reset date stored in
// app_settings and takes one of three transitions:
//
//	FirstRun  no settings row: record today, seed today's rows
//	NoOp      last reset is today: nothing to do
//	Reset     the day changed: mark everyone Unvisited, seed today's rows,
//	          record today
//
// The steps are independent idempotent statements rather than one
// transaction. If the process dies between the visited reset and the date
// update, the next launch sees the old date and runs the Reset again, which
// converges to the same state.
package rollover
