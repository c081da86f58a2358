package matcher

import (
	"math"

	"github.com/noisewatch/noisewatch-go/internal/timeutil"
)

// Scorer assigns confidence values to normalized matches. The two policies
// operate at different granularity: time-proximity scores each member and a
// group takes the maximum, population-ratio scores whole groups against the
// window's total record count. A search uses exactly one policy throughout.
type Scorer interface {
	// Name identifies the policy in logs and responses.
	Name() string

	// ScoreMatches assigns per-member confidence scores in place.
	// Group-level policies leave members untouched.
	ScoreMatches(matches []NormalizedMatch, w Window)

	// GroupConfidence returns the representative confidence for a group
	// whose members have already been scored.
	GroupConfidence(g *DescriptionGroup, w Window) int

	// GroupLevel reports whether confidence is computed per group rather
	// than per member. The grouper propagates group confidence onto the
	// members of group-level policies so every match carries a score.
	GroupLevel() bool
}

// TimeProximityScorer rewards temporal centrality in the complaint window
// and weights higher-severity classes up. Scores are clamped to [50,100]:
// every match that survives filtering is at least plausible.
type TimeProximityScorer struct{}

func (TimeProximityScorer) Name() string     { return "timeproximity" }
func (TimeProximityScorer) GroupLevel() bool { return false }

func (s TimeProximityScorer) ScoreMatches(matches []NormalizedMatch, w Window) {
	for i := range matches {
		matches[i].ConfidenceScore = s.scoreOne(&matches[i], w)
	}
}

func (s TimeProximityScorer) scoreOne(m *NormalizedMatch, w Window) int {
	mid := timeutil.WindowMid(w.StartEpoch, w.EndEpoch)
	window := float64(w.Width()) // > 0, enforced by search validation

	distance := math.Abs(float64(timeutil.ToEpoch(m.Timestamp)) - mid)
	proximity := math.Max(0, 100-distance/window*100)

	classWeight := 60.0
	if m.Class >= 2 {
		classWeight = 80.0
	}

	score := int(math.Round(proximity*0.6 + classWeight*0.4))
	return clamp(score, 50, 100)
}

// GroupConfidence is the maximum member score.
func (TimeProximityScorer) GroupConfidence(g *DescriptionGroup, _ Window) int {
	maxScore := 0
	for i := range g.Matches {
		if g.Matches[i].ConfidenceScore > maxScore {
			maxScore = g.Matches[i].ConfidenceScore
		}
	}
	return maxScore
}

// PopulationRatioScorer treats the concentration of matching events at one
// location, relative to all sensor activity in the window, as the evidence
// strength. Individual timestamp placement does not matter.
type PopulationRatioScorer struct {
	// TotalRecords is the unfiltered record count across all locations in
	// the same window, obtained from the unfiltered query even when the
	// matches came from the class-filtered query.
	TotalRecords int
}

func (PopulationRatioScorer) Name() string     { return "populationratio" }
func (PopulationRatioScorer) GroupLevel() bool { return true }

func (PopulationRatioScorer) ScoreMatches(_ []NormalizedMatch, _ Window) {}

func (s PopulationRatioScorer) GroupConfidence(g *DescriptionGroup, _ Window) int {
	if s.TotalRecords <= 0 {
		return 0
	}
	ratio := float64(len(g.Matches)) / float64(s.TotalRecords) * 100
	return clamp(int(math.Round(ratio)), 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
