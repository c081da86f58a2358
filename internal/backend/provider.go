package backend

import (
	"context"

	"github.com/noisewatch/noisewatch-go/internal/conf"
	"github.com/noisewatch/noisewatch-go/internal/httpclient"
	"github.com/noisewatch/noisewatch-go/internal/noise"
)

// Provider is the query surface the search orchestrator talks to. Live and
// mock implementations are interchangeable; the orchestrator never knows
// which one it holds.
type Provider interface {
	// QueryByClass runs the class-filtered query for one noise class within
	// an epoch-second window.
	QueryByClass(ctx context.Context, class noise.Class, startEpoch, endEpoch int64) (*ClassFilteredResult, error)

	// QueryAll runs the unfiltered query within an epoch-second window.
	QueryAll(ctx context.Context, startEpoch, endEpoch int64) (*UnfilteredResult, error)

	// SupportsClassQuery reports whether the class-filtered mode is usable.
	SupportsClassQuery() bool
}

// NewProvider selects the live or mock provider based on configuration.
// Mock mode is chosen when explicitly enabled or when no live endpoint is
// configured, so a bare deployment still answers searches.
func NewProvider(settings *conf.Settings, hc *httpclient.Client) Provider {
	if settings.Backend.UseMock() {
		return NewMockProvider()
	}
	return NewClient(&settings.Backend, hc)
}
