package matcher

import (
	"fmt"
	"sort"

	"github.com/noisewatch/noisewatch-go/internal/backend"
	"github.com/noisewatch/noisewatch-go/internal/noise"
	"github.com/noisewatch/noisewatch-go/internal/timeutil"
)

// Normalization emits matches in a deterministic order (locations sorted,
// events in payload order) so the grouper's stable tie-breaking downstream
// is meaningful.

// NormalizeClassFiltered converts a class-filtered result into canonical
// matches. Every entry shares the query's noise class.
func NormalizeClassFiltered(result *backend.ClassFilteredResult) []NormalizedMatch {
	description := noise.Describe(result.Class)

	matches := make([]NormalizedMatch, 0, result.Count())
	for _, location := range sortedKeys(result.TimestampsByHouse) {
		for _, ts := range result.TimestampsByHouse[location] {
			matches = append(matches, NormalizedMatch{
				ID:           matchID(location, ts),
				LocationName: location,
				Timestamp:    timeutil.FromEpoch(ts),
				Class:        result.Class,
				Description:  description,
			})
		}
	}
	return matches
}

// NormalizeUnfiltered converts an unlabeled result into canonical matches,
// taking each event's own class. Background entries are kept here; the
// grouper filters them before presentation.
func NormalizeUnfiltered(result *backend.UnfilteredResult) []NormalizedMatch {
	matches := make([]NormalizedMatch, 0, result.TotalRecords())
	for _, location := range sortedKeys(result.Houses) {
		for _, ev := range result.Houses[location] {
			matches = append(matches, NormalizedMatch{
				ID:           matchID(location, ev.Timestamp),
				LocationName: location,
				Timestamp:    timeutil.FromEpoch(ev.Timestamp),
				Class:        ev.Class,
				Description:  noise.Describe(ev.Class),
			})
		}
	}
	return matches
}

func matchID(location string, epoch int64) string {
	return fmt.Sprintf("%s_%d", location, epoch)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
