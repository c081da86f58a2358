// Package search orchestrates a match search: request validation, description
// classification, backend query-mode selection with fall-through, and the
// normalize/score/group pipeline.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/noisewatch/noisewatch-go/internal/backend"
	"github.com/noisewatch/noisewatch-go/internal/conf"
	"github.com/noisewatch/noisewatch-go/internal/errors"
	"github.com/noisewatch/noisewatch-go/internal/logging"
	"github.com/noisewatch/noisewatch-go/internal/matcher"
	"github.com/noisewatch/noisewatch-go/internal/noise"
	"github.com/noisewatch/noisewatch-go/internal/observability"
	"github.com/noisewatch/noisewatch-go/internal/timeutil"
)

// Request is a complainant's match search. Times arrive as calendar
// timestamps (RFC 3339) and are converted to the backend's epoch seconds
// internally.
type Request struct {
	UnitNumber  string    `json:"unitNumber,omitempty"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
}

// Response is the outcome of one search. TotalRecords is the unfiltered
// record count across all locations in the window; it is only set when the
// unfiltered query ran.
type Response struct {
	Matches      []matcher.CandidateMatch `json:"matches"`
	TotalRecords int                      `json:"totalRecords,omitempty"`
	Message      string                   `json:"message"`
	QueryMode    backend.QueryMode        `json:"queryMode"`
	NoiseClass   noise.Class              `json:"noiseClass"`
}

// Service runs searches against a backend provider. Safe for concurrent use;
// per-request state lives on the stack, shared state is the read-only
// configuration, the metrics registry and the internally locked cache.
type Service struct {
	settings *conf.Settings
	provider backend.Provider
	metrics  *observability.Metrics
	cache    *gocache.Cache
	logger   *slog.Logger
}

// New creates a search service. metrics may be nil in tests.
func New(settings *conf.Settings, provider backend.Provider, metrics *observability.Metrics) *Service {
	ttl := settings.Matching.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		settings: settings,
		provider: provider,
		metrics:  metrics,
		cache:    gocache.New(ttl, 2*ttl),
		logger:   logging.ForService("search"),
	}
}

// Search validates the request, queries the backend and returns ranked
// candidate matches. Errors carry a category that maps onto the API's
// status codes.
func (s *Service) Search(ctx context.Context, req *Request) (*Response, error) {
	started := time.Now()

	if err := validate(req); err != nil {
		s.recordSearch("validation_error", started, 0)
		return nil, err
	}

	resp, err := s.run(ctx, req)
	if err != nil {
		status := "internal_error"
		if errors.IsCategory(err, errors.CategoryUpstream) {
			status = "upstream_error"
		}
		s.recordSearch(status, started, 0)
		return nil, err
	}

	s.recordSearch("ok", started, len(resp.Matches))
	return resp, nil
}

func validate(req *Request) error {
	switch {
	case req == nil:
		return errors.ValidationError("request body is required")
	case req.StartTime.IsZero() || req.EndTime.IsZero():
		return errors.ValidationError("startTime and endTime are required")
	case !req.StartTime.Before(req.EndTime):
		return errors.ValidationError("startTime must be earlier than endTime")
	}
	return nil
}

func (s *Service) run(ctx context.Context, req *Request) (*Response, error) {
	w := matcher.Window{
		StartEpoch: timeutil.ToEpoch(req.StartTime),
		EndEpoch:   timeutil.ToEpoch(req.EndTime),
	}
	class := noise.Classify(req.Description)

	s.logger.Info("search started",
		"class", class,
		"start", w.StartEpoch,
		"end", w.EndEpoch,
		"width_seconds", w.Width())

	// Class-filtered first when the description classified and the provider
	// supports it. Upstream failures and empty results both fall through to
	// the unfiltered query; validation and configuration errors do not.
	if class != noise.Unknown && s.provider.SupportsClassQuery() {
		resp, err := s.classFiltered(ctx, class, w)
		switch {
		case err == nil && resp != nil:
			return resp, nil
		case err != nil && !errors.IsCategory(err, errors.CategoryUpstream):
			return nil, err
		case err != nil:
			s.logger.Warn("class-filtered query failed, falling back to unfiltered",
				"class", class, "error", err)
		default:
			s.logger.Debug("class-filtered query returned no records, falling back to unfiltered",
				"class", class)
		}
		s.recordFallback()
	}

	return s.unfiltered(ctx, class, w)
}

// classFiltered runs the class-filtered query. It returns (nil, nil) when the
// query succeeded but matched nothing, signalling the caller to fall through.
func (s *Service) classFiltered(ctx context.Context, class noise.Class, w matcher.Window) (*Response, error) {
	result, err := s.provider.QueryByClass(ctx, class, w.StartEpoch, w.EndEpoch)
	s.recordBackendQuery(backend.ModeClassFiltered, err)
	if err != nil {
		return nil, err
	}
	if result.Count() == 0 {
		return nil, nil
	}

	matches := matcher.NormalizeClassFiltered(result)

	// The population-ratio policy needs the window's total record count,
	// which only the unfiltered query knows, so it costs an extra (cached)
	// backend call.
	var scorer matcher.Scorer = matcher.TimeProximityScorer{}
	totalRecords := 0
	if s.settings.Matching.ScoringPolicy == conf.PolicyPopulationRatio {
		all, err := s.queryAllCached(ctx, w)
		if err != nil {
			return nil, err
		}
		totalRecords = all.TotalRecords()
		scorer = matcher.PopulationRatioScorer{TotalRecords: totalRecords}
	}

	return s.respond(matches, w, scorer, backend.ModeClassFiltered, class, totalRecords), nil
}

func (s *Service) unfiltered(ctx context.Context, class noise.Class, w matcher.Window) (*Response, error) {
	result, err := s.queryAllCached(ctx, w)
	if err != nil {
		return nil, err
	}

	matches := matcher.NormalizeUnfiltered(result)

	var scorer matcher.Scorer = matcher.TimeProximityScorer{}
	if s.settings.Matching.ScoringPolicy == conf.PolicyPopulationRatio {
		scorer = matcher.PopulationRatioScorer{TotalRecords: result.TotalRecords()}
	}

	return s.respond(matches, w, scorer, backend.ModeUnfiltered, class, result.TotalRecords()), nil
}

func (s *Service) queryAllCached(ctx context.Context, w matcher.Window) (*backend.UnfilteredResult, error) {
	key := fmt.Sprintf("%d_%d", w.StartEpoch, w.EndEpoch)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*backend.UnfilteredResult), nil
	}

	result, err := s.provider.QueryAll(ctx, w.StartEpoch, w.EndEpoch)
	s.recordBackendQuery(backend.ModeUnfiltered, err)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(key, result)
	return result, nil
}

func (s *Service) respond(matches []matcher.NormalizedMatch, w matcher.Window, scorer matcher.Scorer, mode backend.QueryMode, class noise.Class, totalRecords int) *Response {
	candidates := matcher.Candidates(matcher.BuildGroups(matches, w, scorer))

	s.logger.Info("search completed",
		"query_mode", mode,
		"policy", scorer.Name(),
		"records", len(matches),
		"candidates", len(candidates))

	return &Response{
		Matches:      candidates,
		TotalRecords: totalRecords,
		Message:      message(len(candidates)),
		QueryMode:    mode,
		NoiseClass:   class,
	}
}

func message(candidates int) string {
	switch candidates {
	case 0:
		return "No matching noise events were recorded in the reported time window."
	case 1:
		return "Found 1 possible noise source in the reported time window."
	default:
		return fmt.Sprintf("Found %d possible noise sources in the reported time window.", candidates)
	}
}

func (s *Service) mode() string {
	if s.settings.Backend.UseMock() {
		return "mock"
	}
	return "live"
}

func (s *Service) recordSearch(status string, started time.Time, matches int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSearch(s.mode(), status, time.Since(started).Seconds(), matches)
}

func (s *Service) recordBackendQuery(mode backend.QueryMode, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordBackendQuery(string(mode), status)
}

func (s *Service) recordFallback() {
	if s.metrics != nil {
		s.metrics.RecordFallback()
	}
}
