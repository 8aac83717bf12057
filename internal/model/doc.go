// Package model defines the typed records exchanged between the field-sales
// store, the sync layer and its callers.
//
// Records that enter the core from outside (CLI input, remote payloads,
// provisioning) are validated with Validate before they are persisted.
// Money values use decimal.Decimal so that line amounts and order totals
// add up exactly, even though SQLite stores them as REAL.
package model
