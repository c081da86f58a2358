// Package noise defines the coarse noise classes reported by the monitoring
// backend and the keyword heuristic that maps a complainant's free-text
// description onto one of them.
package noise

import "strings"

// Class is a coarse noise category. The numeric values for Background, Shout
// and Drill are fixed by the backend's wire format and must not be reordered.
type Class int

const (
	Background Class = 0
	Shout      Class = 1
	Drill      Class = 2

	// Unknown means the description matched no keyword. It signals "no class
	// filter usable" to the search orchestrator, it is not an error.
	Unknown Class = -1
)

// Keyword tables for Classify. Matching is case-insensitive substring search,
// so "drilling" is redundant with "drill" but kept for clarity of intent.
var (
	shoutKeywords = []string{"shout", "shouting", "yell", "yelling"}
	drillKeywords = []string{"drill", "drilling", "renovation", "construction"}
)

// Classify maps a free-text noise description to a Class. Anything that does
// not match a known keyword, including the empty string, is Unknown.
func Classify(description string) Class {
	desc := strings.ToLower(description)
	for _, kw := range shoutKeywords {
		if strings.Contains(desc, kw) {
			return Shout
		}
	}
	for _, kw := range drillKeywords {
		if strings.Contains(desc, kw) {
			return Drill
		}
	}
	return Unknown
}

// Describe returns the human-readable label for a class. It is total: any
// value outside the known classes yields the generic label. Note this is not
// the inverse of Classify, which is lossy by design.
func Describe(c Class) string {
	switch c {
	case Background:
		return "Background noise"
	case Shout:
		return "Shouting"
	case Drill:
		return "Drilling"
	default:
		return "Noise disturbance"
	}
}

// String implements fmt.Stringer for log output.
func (c Class) String() string {
	switch c {
	case Background:
		return "background"
	case Shout:
		return "shout"
	case Drill:
		return "drill"
	default:
		return "unknown"
	}
}
