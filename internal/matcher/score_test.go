package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noisewatch/noisewatch-go/internal/noise"
)

func match(location string, epoch int64, class noise.Class) NormalizedMatch {
	return NormalizedMatch{
		ID:           location,
		LocationName: location,
		Timestamp:    time.Unix(epoch, 0).UTC(),
		Class:        class,
		Description:  noise.Describe(class),
	}
}

func TestTimeProximityScoreAtMidpoint(t *testing.T) {
	t.Parallel()

	w := Window{StartEpoch: 0, EndEpoch: 1000}
	matches := []NormalizedMatch{
		match("a", 500, noise.Drill),
		match("b", 500, noise.Shout),
	}

	TimeProximityScorer{}.ScoreMatches(matches, w)

	// proximity 100: 100*0.6 + 80*0.4 = 92 for drill, +60*0.4 = 84 for shout
	assert.Equal(t, 92, matches[0].ConfidenceScore)
	assert.Equal(t, 84, matches[1].ConfidenceScore)
}

func TestTimeProximityClampsToFloor(t *testing.T) {
	t.Parallel()

	// at the window edge: distance = width/2, proximity = 50
	// 50*0.6 + 60*0.4 = 54 for shout, still above floor; an event far outside
	// the window has proximity 0 and would land at 24 without the clamp.
	w := Window{StartEpoch: 0, EndEpoch: 1000}
	matches := []NormalizedMatch{
		match("edge", 1000, noise.Shout),
		match("far", 5000, noise.Shout),
	}

	TimeProximityScorer{}.ScoreMatches(matches, w)

	assert.Equal(t, 54, matches[0].ConfidenceScore)
	assert.Equal(t, 50, matches[1].ConfidenceScore, "floor applies")
}

func TestTimeProximityScoresAlwaysWithinBounds(t *testing.T) {
	t.Parallel()

	w := Window{StartEpoch: 1_700_000_000, EndEpoch: 1_700_003_600}
	matches := make([]NormalizedMatch, 0)
	for epoch := w.StartEpoch - 7200; epoch <= w.EndEpoch+7200; epoch += 300 {
		matches = append(matches, match("x", epoch, noise.Drill))
		matches = append(matches, match("y", epoch, noise.Shout))
	}

	TimeProximityScorer{}.ScoreMatches(matches, w)

	for _, m := range matches {
		assert.GreaterOrEqual(t, m.ConfidenceScore, 50)
		assert.LessOrEqual(t, m.ConfidenceScore, 100)
	}
}

func TestTimeProximityGroupConfidenceIsMaxMember(t *testing.T) {
	t.Parallel()

	g := DescriptionGroup{Matches: []NormalizedMatch{
		{ConfidenceScore: 61},
		{ConfidenceScore: 88},
		{ConfidenceScore: 73},
	}}

	got := TimeProximityScorer{}.GroupConfidence(&g, Window{StartEpoch: 0, EndEpoch: 1})

	assert.Equal(t, 88, got)
}

func TestPopulationRatioGroupConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		members int
		total   int
		want    int
	}{
		{"half", 5, 10, 50},
		{"rounds_up", 1, 3, 33},
		{"rounds_to_67", 2, 3, 67},
		{"all", 7, 7, 100},
		{"more_than_total_capped", 12, 10, 100},
		{"zero_total", 3, 0, 0},
		{"negative_total", 3, -1, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := DescriptionGroup{Matches: make([]NormalizedMatch, tt.members)}
			scorer := PopulationRatioScorer{TotalRecords: tt.total}

			assert.Equal(t, tt.want, scorer.GroupConfidence(&g, Window{}))
		})
	}
}

func TestPopulationRatioLeavesMemberScoresAlone(t *testing.T) {
	t.Parallel()

	matches := []NormalizedMatch{{ConfidenceScore: 0}}
	PopulationRatioScorer{TotalRecords: 10}.ScoreMatches(matches, Window{})

	assert.Zero(t, matches[0].ConfidenceScore)
	assert.True(t, PopulationRatioScorer{}.GroupLevel())
	assert.False(t, TimeProximityScorer{}.GroupLevel())
}
