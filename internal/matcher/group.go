package matcher

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

const backgroundDescription = "background noise"

// FilterBackground drops matches describing ambient background noise.
// Candidates presented to a complainant should all be actionable events.
func FilterBackground(matches []NormalizedMatch) []NormalizedMatch {
	filtered := make([]NormalizedMatch, 0, len(matches))
	for _, m := range matches {
		if strings.EqualFold(m.Description, backgroundDescription) {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

// BuildGroups partitions matches by location, then by description within
// each location, scores them under the given policy, and ranks everything
// by confidence descending. Sorting is stable throughout, so ties preserve
// the normalizer's deterministic order.
func BuildGroups(matches []NormalizedMatch, w Window, scorer Scorer) []LocationGroup {
	matches = FilterBackground(matches)
	if len(matches) == 0 {
		return nil
	}

	scorer.ScoreMatches(matches, w)

	byLocation := make(map[string][]NormalizedMatch)
	locations := make([]string, 0)
	for _, m := range matches {
		if _, seen := byLocation[m.LocationName]; !seen {
			locations = append(locations, m.LocationName)
		}
		byLocation[m.LocationName] = append(byLocation[m.LocationName], m)
	}

	result := make([]LocationGroup, 0, len(locations))
	for _, location := range locations {
		groups := groupByDescription(byLocation[location], w, scorer)

		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Confidence > groups[j].Confidence
		})

		locationConfidence := 0
		for i := range groups {
			if groups[i].Confidence > locationConfidence {
				locationConfidence = groups[i].Confidence
			}
		}

		result = append(result, LocationGroup{
			LocationName: location,
			Confidence:   locationConfidence,
			Groups:       groups,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Confidence > result[j].Confidence
	})
	return result
}

func groupByDescription(matches []NormalizedMatch, w Window, scorer Scorer) []DescriptionGroup {
	byDescription := make(map[string][]NormalizedMatch)
	descriptions := make([]string, 0)
	for _, m := range matches {
		if _, seen := byDescription[m.Description]; !seen {
			descriptions = append(descriptions, m.Description)
		}
		byDescription[m.Description] = append(byDescription[m.Description], m)
	}

	groups := make([]DescriptionGroup, 0, len(descriptions))
	for _, description := range descriptions {
		members := byDescription[description]

		// Most recent first; the group's representative timestamp is
		// its first member's.
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Timestamp.After(members[j].Timestamp)
		})

		g := DescriptionGroup{
			LocationName: members[0].LocationName,
			Description:  description,
			Matches:      members,
		}
		g.Confidence = scorer.GroupConfidence(&g, w)

		if scorer.GroupLevel() {
			for i := range g.Matches {
				g.Matches[i].ConfidenceScore = g.Confidence
			}
		}

		groups = append(groups, g)
	}
	return groups
}

// Candidates collapses ranked location groups into the flat candidate list
// returned to the complainant, confidence descending. A location's groups
// stay in their relative order when confidences tie across locations.
func Candidates(locations []LocationGroup) []CandidateMatch {
	candidates := make([]CandidateMatch, 0)
	for i := range locations {
		for j := range locations[i].Groups {
			candidates = append(candidates, mergeGroup(&locations[i].Groups[j]))
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ConfidenceScore > candidates[j].ConfidenceScore
	})
	return candidates
}

func mergeGroup(g *DescriptionGroup) CandidateMatch {
	start, end := g.Span()
	return CandidateMatch{
		ID:              uuid.NewString(),
		LocationName:    g.LocationName,
		Timestamp:       g.Matches[0].Timestamp,
		StartTime:       start,
		EndTime:         end,
		ConfidenceScore: g.Confidence,
		Description:     g.Description,
		RecordCount:     len(g.Matches),
	}
}
