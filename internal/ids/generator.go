// Package ids centralizes unique identifier generation and the key-based
// deduplication applied to every sync snapshot.
package ids

import "github.com/google/uuid"

// Generator produces unique opaque identifiers for locally created records.
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids created on a
// device sort by creation time and never collide with server-issued ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
