// Package matcher implements the core of the intake workflow: normalizing
// raw backend records into canonical matches, scoring their confidence,
// and grouping/ranking them into user-presentable candidates.
//
// Everything in this package is pure computation over one search request's
// data; no I/O, no state shared across requests.
package matcher

import (
	"time"

	"github.com/noisewatch/noisewatch-go/internal/noise"
)

// Window is the epoch-second search window, validated upstream so that
// Start < End always holds by the time this package sees it.
type Window struct {
	StartEpoch int64
	EndEpoch   int64
}

// Width returns the window length in seconds.
func (w Window) Width() int64 {
	return w.EndEpoch - w.StartEpoch
}

// NormalizedMatch is the canonical candidate record both raw backend shapes
// normalize into.
type NormalizedMatch struct {
	ID              string      `json:"id"`
	LocationName    string      `json:"locationName"`
	Timestamp       time.Time   `json:"timestamp"`
	Class           noise.Class `json:"noiseClass"`
	Description     string      `json:"description"`
	ConfidenceScore int         `json:"confidenceScore"`
}

// DescriptionGroup collects every match at one location sharing one
// description. Non-empty by construction; members are sorted most recent
// first.
type DescriptionGroup struct {
	LocationName string            `json:"locationName"`
	Description  string            `json:"description"`
	Confidence   int               `json:"confidenceScore"`
	Matches      []NormalizedMatch `json:"matches"`
}

// Span returns the earliest and latest member timestamps.
func (g *DescriptionGroup) Span() (start, end time.Time) {
	start, end = g.Matches[0].Timestamp, g.Matches[0].Timestamp
	for _, m := range g.Matches[1:] {
		if m.Timestamp.Before(start) {
			start = m.Timestamp
		}
		if m.Timestamp.After(end) {
			end = m.Timestamp
		}
	}
	return start, end
}

// LocationGroup collects a location's DescriptionGroups, ranked by
// confidence descending.
type LocationGroup struct {
	LocationName string             `json:"locationName"`
	Confidence   int                `json:"confidenceScore"`
	Groups       []DescriptionGroup `json:"groups"`
}

// CandidateMatch is a DescriptionGroup collapsed into the single record the
// complainant reviews and selects.
type CandidateMatch struct {
	ID              string    `json:"id"`
	LocationName    string    `json:"locationName"`
	Timestamp       time.Time `json:"timestamp"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	ConfidenceScore int       `json:"confidenceScore"`
	Description     string    `json:"description"`
	RecordCount     int       `json:"recordCount"`
}
