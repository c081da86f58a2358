package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEpochRoundTrip(t *testing.T) {
	t.Parallel()

	epochs := []int64{0, 1, 1736769600, -1, 253402300799}
	for _, e := range epochs {
		assert.Equal(t, e, ToEpoch(FromEpoch(e)), "epoch %d should survive the round trip", e)
	}
}

func TestToEpochTruncatesSubSecond(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 6, 15, 20, 30, 45, 999_000_000, time.UTC)
	e := ToEpoch(ts)

	assert.Equal(t, ts.Truncate(time.Second), FromEpoch(e))
}

func TestFromEpochIsUTC(t *testing.T) {
	t.Parallel()

	got := FromEpoch(1736769600)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, "2025-01-13T12:00:00Z", got.Format(time.RFC3339))
}

func TestWindowMid(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1500, WindowMid(1000, 2000), 0.001)
	assert.InDelta(t, 1000.5, WindowMid(1000, 1001), 0.001)
}
