package backend

import (
	"context"

	"github.com/noisewatch/noisewatch-go/internal/noise"
)

// MockProvider synthesizes a fixed three-location data set inside the query
// window so the full intake flow works without a live backend. The houses and
// event mix mirror the sample data the original pilot deployment shipped
// with: heavy drilling at one house, shouting at another, and a third with
// mostly background readings.
type MockProvider struct{}

// NewMockProvider creates a provider serving synthesized sample data.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SupportsClassQuery always holds for mock data.
func (m *MockProvider) SupportsClassQuery() bool {
	return true
}

// QueryAll returns every synthesized event in the window.
func (m *MockProvider) QueryAll(_ context.Context, startEpoch, endEpoch int64) (*UnfilteredResult, error) {
	return &UnfilteredResult{Houses: sampleHouses(startEpoch, endEpoch)}, nil
}

// QueryByClass filters the synthesized events down to one class, reshaped
// into the class-filtered payload form.
func (m *MockProvider) QueryByClass(_ context.Context, class noise.Class, startEpoch, endEpoch int64) (*ClassFilteredResult, error) {
	result := &ClassFilteredResult{
		Class:             class,
		TimestampsByHouse: make(map[string][]int64),
	}
	for house, events := range sampleHouses(startEpoch, endEpoch) {
		for _, ev := range events {
			if ev.Class == class {
				result.TimestampsByHouse[house] = append(result.TimestampsByHouse[house], ev.Timestamp)
			}
		}
	}
	return result, nil
}

// sampleHouses positions events at fixed fractions of the window so results
// are deterministic for a given query and always fall inside the bounds.
func sampleHouses(startEpoch, endEpoch int64) map[string][]Event {
	w := endEpoch - startEpoch
	at := func(num, den int64) int64 { return startEpoch + w*num/den }

	return map[string][]Event{
		"house_123": {
			{Timestamp: at(1, 3), Class: noise.Drill},
			{Timestamp: at(1, 2), Class: noise.Drill},
			{Timestamp: at(5, 8), Class: noise.Drill},
		},
		"house_124": {
			{Timestamp: at(1, 4), Class: noise.Shout},
			{Timestamp: at(3, 4), Class: noise.Shout},
		},
		"house_125": {
			{Timestamp: at(1, 10), Class: noise.Background},
			{Timestamp: at(9, 10), Class: noise.Shout},
		},
	}
}
