// Package backend adapts the external noise-monitoring service's two query
// endpoints into typed results. The backend is a black box reachable over
// HTTP; this package owns its wire formats, envelope quirks and a mock
// implementation for offline operation.
package backend

import (
	"github.com/noisewatch/noisewatch-go/internal/noise"
)

// QueryMode identifies which backend endpoint produced a result.
type QueryMode string

const (
	ModeClassFiltered QueryMode = "class_filtered"
	ModeUnfiltered    QueryMode = "unfiltered"
)

// Event is one sensor event from the unfiltered endpoint.
type Event struct {
	Timestamp int64       `json:"timestamp"`
	Class     noise.Class `json:"noiseClass"`
}

// ClassFilteredResult holds the class-filtered endpoint's payload: epoch
// timestamps per house, already restricted to one noise class. The class is
// carried alongside because the payload entries do not repeat it.
type ClassFilteredResult struct {
	Class             noise.Class
	TimestampsByHouse map[string][]int64
}

// Count returns the number of (house, timestamp) records in the result.
func (r *ClassFilteredResult) Count() int {
	n := 0
	for _, ts := range r.TimestampsByHouse {
		n += len(ts)
	}
	return n
}

// UnfilteredResult holds the unfiltered endpoint's payload: labeled events
// per house across every noise class in the window.
type UnfilteredResult struct {
	Houses map[string][]Event
}

// TotalRecords returns the full record count across all houses. The
// population-ratio scorer uses this as its denominator.
func (r *UnfilteredResult) TotalRecords() int {
	n := 0
	for _, events := range r.Houses {
		n += len(events)
	}
	return n
}
