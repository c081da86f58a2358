package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/noisewatch/noisewatch-go/internal/conf"
	"github.com/noisewatch/noisewatch-go/internal/errors"
	"github.com/noisewatch/noisewatch-go/internal/httpclient"
	"github.com/noisewatch/noisewatch-go/internal/logging"
	"github.com/noisewatch/noisewatch-go/internal/noise"
)

// maxResponseBytes caps how much of a backend response is read. The payloads
// are per-window sensor listings, well under this.
const maxResponseBytes = 8 << 20

// Client queries the live noise-monitoring backend. It never retries; the
// orchestrator's only redundancy is falling back to the other query mode.
type Client struct {
	settings *conf.BackendSettings
	http     *httpclient.Client
	logger   *slog.Logger
}

// NewClient creates a live backend client over the shared HTTP client.
func NewClient(settings *conf.BackendSettings, hc *httpclient.Client) *Client {
	return &Client{
		settings: settings,
		http:     hc,
		logger:   logging.ForService("backend"),
	}
}

// SupportsClassQuery reports whether a class-filtered endpoint is configured.
func (c *Client) SupportsClassQuery() bool {
	return c.settings.ClassEndpoint != ""
}

// QueryByClass implements Provider for the class-filtered endpoint.
func (c *Client) QueryByClass(ctx context.Context, class noise.Class, startEpoch, endEpoch int64) (*ClassFilteredResult, error) {
	if c.settings.ClassEndpoint == "" {
		return nil, errors.New(errors.NewStd("class-filtered endpoint not configured")).
			Component("backend").
			Category(errors.CategoryConfiguration).
			Build()
	}

	url := fmt.Sprintf("%s?noiseClass=%d&startTimestamp=%d&endTimestamp=%d",
		c.settings.ClassEndpoint, int(class), startEpoch, endEpoch)

	payload, err := c.fetch(ctx, url, ModeClassFiltered)
	if err != nil {
		return nil, err
	}
	return decodeClassFiltered(payload, class)
}

// QueryAll implements Provider for the unfiltered endpoint.
func (c *Client) QueryAll(ctx context.Context, startEpoch, endEpoch int64) (*UnfilteredResult, error) {
	url := fmt.Sprintf("%s?startTimestamp=%d&endTimestamp=%d",
		c.settings.Endpoint, startEpoch, endEpoch)

	payload, err := c.fetch(ctx, url, ModeUnfiltered)
	if err != nil {
		return nil, err
	}
	return decodeUnfiltered(payload)
}

// fetch performs one GET and returns the unwrapped payload bytes. Network
// failure, non-2xx status and malformed payloads each surface as a distinct
// upstream error.
func (c *Client) fetch(ctx context.Context, url string, mode QueryMode) ([]byte, error) {
	if c.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.Timeout)
		defer cancel()
	}

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		c.logger.Error("backend request failed", "query_mode", mode, "error", err)
		return nil, errors.New(fmt.Errorf("backend request failed: %w", err)).
			Component("backend").
			Category(errors.CategoryUpstream).
			Context("query_mode", string(mode)).
			Context("reason", "network").
			Build()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading backend response: %w", err)).
			Component("backend").
			Category(errors.CategoryUpstream).
			Context("query_mode", string(mode)).
			Context("reason", "network").
			Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("backend returned error status",
			"query_mode", mode, "status_code", resp.StatusCode, "body", string(body))
		return nil, errors.New(fmt.Errorf("backend returned status %d", resp.StatusCode)).
			Component("backend").
			Category(errors.CategoryUpstream).
			Context("query_mode", string(mode)).
			Context("status_code", resp.StatusCode).
			Context("body", string(body)).
			Build()
	}

	payload, err := UnwrapEnvelope(body)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			c.logger.Error("backend envelope carried error status",
				"query_mode", mode, "status_code", statusErr.StatusCode)
			return nil, errors.New(err).
				Component("backend").
				Category(errors.CategoryUpstream).
				Context("query_mode", string(mode)).
				Context("status_code", statusErr.StatusCode).
				Context("body", statusErr.Body).
				Build()
		}
		return nil, errors.New(err).
			Component("backend").
			Category(errors.CategoryUpstream).
			Context("query_mode", string(mode)).
			Context("reason", "decode").
			Build()
	}

	return payload, nil
}

// decodeClassFiltered parses the class-filtered payload. A house whose
// timestamp field is missing or not a list contributes zero records rather
// than failing the whole response.
func decodeClassFiltered(payload []byte, class noise.Class) (*ClassFilteredResult, error) {
	var wire struct {
		TimestampByHouse map[string]json.RawMessage `json:"timestampByHouse"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, decodeError(err, ModeClassFiltered)
	}

	result := &ClassFilteredResult{
		Class:             class,
		TimestampsByHouse: make(map[string][]int64, len(wire.TimestampByHouse)),
	}
	for house, raw := range wire.TimestampByHouse {
		var timestamps []int64
		if err := json.Unmarshal(raw, &timestamps); err != nil {
			continue
		}
		if len(timestamps) > 0 {
			result.TimestampsByHouse[house] = timestamps
		}
	}
	return result, nil
}

// decodeUnfiltered parses the unfiltered payload with the same per-house
// tolerance. The payload-level noiseClass hint is ignored; every event
// carries its own label.
func decodeUnfiltered(payload []byte) (*UnfilteredResult, error) {
	var wire struct {
		Houses map[string]json.RawMessage `json:"houses"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, decodeError(err, ModeUnfiltered)
	}

	result := &UnfilteredResult{Houses: make(map[string][]Event, len(wire.Houses))}
	for house, raw := range wire.Houses {
		var events []Event
		if err := json.Unmarshal(raw, &events); err != nil {
			continue
		}
		if len(events) > 0 {
			result.Houses[house] = events
		}
	}
	return result, nil
}

func decodeError(err error, mode QueryMode) error {
	return errors.New(fmt.Errorf("decoding backend payload: %w", err)).
		Component("backend").
		Category(errors.CategoryUpstream).
		Context("query_mode", string(mode)).
		Context("reason", "decode").
		Build()
}
