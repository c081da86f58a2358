package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noisewatch/noisewatch-go/internal/backend"
	"github.com/noisewatch/noisewatch-go/internal/noise"
)

func TestNormalizeClassFiltered(t *testing.T) {
	t.Parallel()

	result := &backend.ClassFilteredResult{
		Class: noise.Drill,
		TimestampsByHouse: map[string][]int64{
			"house_2": {2000},
			"house_1": {1000, 1500},
		},
	}

	matches := NormalizeClassFiltered(result)

	require.Len(t, matches, 3)
	// locations come out sorted, events in payload order
	assert.Equal(t, "house_1_1000", matches[0].ID)
	assert.Equal(t, "house_1_1500", matches[1].ID)
	assert.Equal(t, "house_2_2000", matches[2].ID)

	for _, m := range matches {
		assert.Equal(t, noise.Drill, m.Class)
		assert.Equal(t, "Drilling", m.Description)
		assert.Equal(t, time.UTC, m.Timestamp.Location())
	}
	assert.Equal(t, int64(1500), matches[1].Timestamp.Unix())
}

func TestNormalizeUnfilteredKeepsPerEventClass(t *testing.T) {
	t.Parallel()

	result := &backend.UnfilteredResult{
		Houses: map[string][]backend.Event{
			"house_9": {
				{Timestamp: 100, Class: noise.Background},
				{Timestamp: 200, Class: noise.Shout},
				{Timestamp: 300, Class: noise.Unknown},
			},
		},
	}

	matches := NormalizeUnfiltered(result)

	require.Len(t, matches, 3, "background kept at normalization stage")
	assert.Equal(t, "Background noise", matches[0].Description)
	assert.Equal(t, "Shouting", matches[1].Description)
	assert.Equal(t, "Noise disturbance", matches[2].Description)
}

func TestNormalizeUnfilteredDeterministicOrder(t *testing.T) {
	t.Parallel()

	result := &backend.UnfilteredResult{
		Houses: map[string][]backend.Event{
			"house_b": {{Timestamp: 10, Class: noise.Shout}},
			"house_a": {{Timestamp: 20, Class: noise.Drill}},
			"house_c": {{Timestamp: 30, Class: noise.Shout}},
		},
	}

	first := NormalizeUnfiltered(result)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, NormalizeUnfiltered(result))
	}
	assert.Equal(t, "house_a", first[0].LocationName)
	assert.Equal(t, "house_b", first[1].LocationName)
	assert.Equal(t, "house_c", first[2].LocationName)
}
