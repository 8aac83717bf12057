// Package store provides SQLite-backed on-device storage for the field-sales
// core: customers, the item catalog, order bookings and their lines, daily
// activity logs, receipts and the provisioning config.
//
// # Keys
//
//   - Customers are keyed by their natural key entity_id, issued by the
//     backend. Remote syncs upsert by entity_id and never create duplicates.
//   - Every locally created row (items, bookings, lines, receipts, activity
//     logs) gets an opaque id from the injected ids.Generator.
//   - activity_logs holds at most one row per (customer_id, date).
//
// # Transactions
//
// Multi-row writes run in a single transaction with a deferred rollback:
// booking header plus its visit side effects, each line write, a whole
// submitted order, the remote customer batch and the item seed. The daily
// rollover is a sequence of independent statements; each of them is
// idempotent so an interrupted rollover is completed on the next launch.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All reads that feed sync snapshots are ordered by key ascending.
package store
