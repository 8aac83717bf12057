package model

import "fmt"

// VisitStatus is the per-day visit state of a customer.
//
// It is used for both Customer.Visited and ActivityLog.Status.
type VisitStatus string

const (
	VisitUnvisited VisitStatus = "Unvisited"
	VisitVisited   VisitStatus = "Visited"
)

// Valid reports whether v is one of the known statuses.
func (v VisitStatus) Valid() bool {
	return v == VisitUnvisited || v == VisitVisited
}

// ParseVisitStatus converts s into a VisitStatus.
// An empty string maps to VisitUnvisited. The legacy "Yes"/"No" values are rejected.
func ParseVisitStatus(s string) (VisitStatus, error) {
	if s == "" {
		return VisitUnvisited, nil
	}
	v := VisitStatus(s)
	if !v.Valid() {
		return "", fmt.Errorf("invalid visit status %q: must be %q or %q", s, VisitUnvisited, VisitVisited)
	}
	return v, nil
}
