package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noisewatch/noisewatch-go/internal/backend"
	"github.com/noisewatch/noisewatch-go/internal/conf"
	"github.com/noisewatch/noisewatch-go/internal/errors"
	"github.com/noisewatch/noisewatch-go/internal/noise"
)

// stubProvider lets each test script the backend's behavior and count calls.
type stubProvider struct {
	classCalls int
	allCalls   int

	queryByClass func(class noise.Class, start, end int64) (*backend.ClassFilteredResult, error)
	queryAll     func(start, end int64) (*backend.UnfilteredResult, error)
	noClassQuery bool
}

func (p *stubProvider) QueryByClass(_ context.Context, class noise.Class, start, end int64) (*backend.ClassFilteredResult, error) {
	p.classCalls++
	return p.queryByClass(class, start, end)
}

func (p *stubProvider) QueryAll(_ context.Context, start, end int64) (*backend.UnfilteredResult, error) {
	p.allCalls++
	return p.queryAll(start, end)
}

func (p *stubProvider) SupportsClassQuery() bool {
	return !p.noClassQuery
}

func testSettings(policy string) *conf.Settings {
	return &conf.Settings{
		Backend:  conf.BackendSettings{Mock: true, Timeout: time.Second},
		Matching: conf.MatchingSettings{ScoringPolicy: policy, CacheTTL: time.Minute},
	}
}

func at(epoch int64) time.Time {
	return time.Unix(epoch, 0).UTC()
}

func request(description string, startEpoch, endEpoch int64) *Request {
	return &Request{
		Description: description,
		StartTime:   at(startEpoch),
		EndTime:     at(endEpoch),
	}
}

func drillResult() *backend.ClassFilteredResult {
	return &backend.ClassFilteredResult{
		Class: noise.Drill,
		TimestampsByHouse: map[string][]int64{
			"house_123": {400, 500, 600},
		},
	}
}

func mixedResult() *backend.UnfilteredResult {
	return &backend.UnfilteredResult{
		Houses: map[string][]backend.Event{
			"house_123": {
				{Timestamp: 450, Class: noise.Drill},
				{Timestamp: 550, Class: noise.Drill},
			},
			"house_124": {
				{Timestamp: 500, Class: noise.Shout},
			},
			"house_125": {
				{Timestamp: 500, Class: noise.Background},
			},
		},
	}
}

func TestSearchValidation(t *testing.T) {
	t.Parallel()

	svc := New(testSettings(conf.PolicyTimeProximity), backend.NewMockProvider(), nil)

	tests := []struct {
		name string
		req  *Request
	}{
		{"nil_request", nil},
		{"missing_times", &Request{Description: "drilling"}},
		{"missing_end", &Request{Description: "drilling", StartTime: at(100)}},
		{"start_equals_end", request("drilling", 100, 100)},
		{"start_after_end", request("drilling", 200, 100)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Search(context.Background(), tt.req)

			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestSearchClassFilteredPath(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		queryByClass: func(class noise.Class, _, _ int64) (*backend.ClassFilteredResult, error) {
			assert.Equal(t, noise.Drill, class)
			return drillResult(), nil
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	resp, err := svc.Search(context.Background(), request("constant drilling from upstairs", 100, 900))

	require.NoError(t, err)
	assert.Equal(t, backend.ModeClassFiltered, resp.QueryMode)
	assert.Equal(t, noise.Drill, resp.NoiseClass)
	assert.Equal(t, 1, provider.classCalls)
	assert.Zero(t, provider.allCalls, "unfiltered query not needed")
	assert.Zero(t, resp.TotalRecords, "total only known after an unfiltered query")

	require.Len(t, resp.Matches, 1)
	m := resp.Matches[0]
	assert.Equal(t, "house_123", m.LocationName)
	assert.Equal(t, "Drilling", m.Description)
	assert.Equal(t, 3, m.RecordCount)
	assert.Equal(t, int64(600), m.Timestamp.Unix())
	assert.GreaterOrEqual(t, m.ConfidenceScore, 50)
	assert.LessOrEqual(t, m.ConfidenceScore, 100)
	assert.Contains(t, resp.Message, "1 possible noise source")
}

func TestSearchUnknownDescriptionSkipsClassQuery(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return mixedResult(), nil
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	resp, err := svc.Search(context.Background(), request("strange humming sound", 100, 900))

	require.NoError(t, err)
	assert.Equal(t, backend.ModeUnfiltered, resp.QueryMode)
	assert.Equal(t, noise.Unknown, resp.NoiseClass)
	assert.Equal(t, 4, resp.TotalRecords)
	assert.Zero(t, provider.classCalls)
	assert.Equal(t, 1, provider.allCalls)
}

func TestSearchFallsThroughOnUpstreamClassError(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		queryByClass: func(_ noise.Class, _, _ int64) (*backend.ClassFilteredResult, error) {
			return nil, errors.Newf("boom").Category(errors.CategoryUpstream).Build()
		},
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return mixedResult(), nil
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	resp, err := svc.Search(context.Background(), request("shouting next door", 100, 900))

	require.NoError(t, err, "upstream class query failure must not fail the search")
	assert.Equal(t, backend.ModeUnfiltered, resp.QueryMode)
	assert.Equal(t, 1, provider.classCalls)
	assert.Equal(t, 1, provider.allCalls)
}

func TestSearchConfigurationErrorDoesNotFallBack(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		queryByClass: func(_ noise.Class, _, _ int64) (*backend.ClassFilteredResult, error) {
			return nil, errors.Newf("class endpoint not configured").
				Category(errors.CategoryConfiguration).Build()
		},
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return mixedResult(), nil
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	_, err := svc.Search(context.Background(), request("drilling", 100, 900))

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.Zero(t, provider.allCalls, "configuration errors never trigger the fallback")
}

func TestSearchFallsThroughOnEmptyClassResult(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		queryByClass: func(class noise.Class, _, _ int64) (*backend.ClassFilteredResult, error) {
			return &backend.ClassFilteredResult{Class: class, TimestampsByHouse: map[string][]int64{}}, nil
		},
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return mixedResult(), nil
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	resp, err := svc.Search(context.Background(), request("drilling", 100, 900))

	require.NoError(t, err)
	assert.Equal(t, backend.ModeUnfiltered, resp.QueryMode)
	assert.NotEmpty(t, resp.Matches)
}

func TestSearchUnfilteredExcludesBackground(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		noClassQuery: true,
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return mixedResult(), nil
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	resp, err := svc.Search(context.Background(), request("drilling", 100, 900))

	require.NoError(t, err)
	require.Len(t, resp.Matches, 2, "house_125 only has background noise")
	for _, m := range resp.Matches {
		assert.NotEqual(t, "house_125", m.LocationName)
		assert.NotEqual(t, "Background noise", m.Description)
	}
}

func TestSearchBackgroundOnlyWindowFindsNothing(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		noClassQuery: true,
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return &backend.UnfilteredResult{
				Houses: map[string][]backend.Event{
					"house_1": {{Timestamp: 1000, Class: noise.Background}},
				},
			}, nil
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	resp, err := svc.Search(context.Background(), request("loud bang", 500, 1500))

	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.Equal(t, 1, resp.TotalRecords)
	assert.Contains(t, resp.Message, "No matching noise events")
}

func TestSearchUpstreamFailurePropagates(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		noClassQuery: true,
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return nil, errors.Newf("backend down").Category(errors.CategoryUpstream).Build()
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	_, err := svc.Search(context.Background(), request("drilling", 100, 900))

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryUpstream))
}

func TestSearchPopulationRatioPolicy(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		queryByClass: func(_ noise.Class, _, _ int64) (*backend.ClassFilteredResult, error) {
			return drillResult(), nil
		},
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return mixedResult(), nil // 4 records total
		},
	}
	svc := New(testSettings(conf.PolicyPopulationRatio), provider, nil)

	resp, err := svc.Search(context.Background(), request("drilling", 100, 900))

	require.NoError(t, err)
	assert.Equal(t, 1, provider.allCalls, "total record count needs the unfiltered query")
	assert.Equal(t, 4, resp.TotalRecords)

	require.Len(t, resp.Matches, 1)
	// 3 drill records out of 4 total: round(75)
	assert.Equal(t, 75, resp.Matches[0].ConfidenceScore)
}

func TestSearchCachesUnfilteredResponses(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		noClassQuery: true,
		queryAll: func(_, _ int64) (*backend.UnfilteredResult, error) {
			return mixedResult(), nil
		},
	}
	svc := New(testSettings(conf.PolicyTimeProximity), provider, nil)

	req := request("drilling", 100, 900)
	_, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.allCalls, "same window served from cache")

	_, err = svc.Search(context.Background(), request("drilling", 100, 901))
	require.NoError(t, err)
	assert.Equal(t, 2, provider.allCalls, "different window is a cache miss")
}

func TestSearchMockProviderEndToEnd(t *testing.T) {
	t.Parallel()

	svc := New(testSettings(conf.PolicyTimeProximity), backend.NewMockProvider(), nil)

	resp, err := svc.Search(context.Background(), request("drilling and renovation noise", 1000, 11000))

	require.NoError(t, err)
	assert.Equal(t, backend.ModeClassFiltered, resp.QueryMode)
	require.NotEmpty(t, resp.Matches)
	assert.Equal(t, "house_123", resp.Matches[0].LocationName)
	for i := 1; i < len(resp.Matches); i++ {
		assert.GreaterOrEqual(t, resp.Matches[i-1].ConfidenceScore, resp.Matches[i].ConfidenceScore)
	}
}
