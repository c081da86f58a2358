// Package timeutil converts between the calendar timestamps used at the API
// surface and the epoch-second representation the noise-monitoring backend
// speaks.
package timeutil

import "time"

// ToEpoch converts a calendar timestamp to whole epoch seconds.
// Sub-second precision is truncated.
func ToEpoch(t time.Time) int64 {
	return t.Unix()
}

// FromEpoch converts epoch seconds to a UTC calendar timestamp.
// It is the exact inverse of ToEpoch for integer-second inputs.
func FromEpoch(e int64) time.Time {
	return time.Unix(e, 0).UTC()
}

// WindowMid returns the midpoint of an epoch-second window.
func WindowMid(startEpoch, endEpoch int64) float64 {
	return float64(startEpoch+endEpoch) / 2
}
