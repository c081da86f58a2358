package backend

import (
	"encoding/json"
	"fmt"
)

// The backend's responses sometimes arrive wrapped in an API-gateway style
// envelope {statusCode, body} where body is either the payload object or a
// JSON-encoded string that needs a second parse. UnwrapEnvelope normalizes
// all three shapes to the bare payload bytes.

// StatusError reports a wrapped envelope carrying a non-2xx status code.
// The inner body is preserved for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend envelope returned status %d: %s", e.StatusCode, e.Body)
}

type envelope struct {
	StatusCode *int            `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// UnwrapEnvelope returns the payload bytes from raw, which may be the bare
// payload, an envelope with an object body, or an envelope with a
// string-encoded body. A wrapped non-2xx status yields a *StatusError.
func UnwrapEnvelope(raw []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed backend response: %w", err)
	}

	// No statusCode field means raw is already the payload.
	if env.StatusCode == nil {
		return raw, nil
	}

	body := []byte(env.Body)
	if len(body) > 0 && body[0] == '"' {
		// Double-encoded: body is a JSON string containing the payload.
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, fmt.Errorf("malformed envelope body string: %w", err)
		}
		body = []byte(inner)
		if !json.Valid(body) {
			return nil, fmt.Errorf("envelope body string does not contain valid JSON")
		}
	}

	if *env.StatusCode < 200 || *env.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: *env.StatusCode, Body: string(body)}
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("envelope with status %d has no body", *env.StatusCode)
	}

	return body, nil
}
