package conf

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks settings for operator mistakes that should stop startup.
// Everything it rejects is a configuration error in the API taxonomy.
func Validate(settings *Settings) error {
	switch settings.Matching.ScoringPolicy {
	case PolicyTimeProximity, PolicyPopulationRatio:
	default:
		return fmt.Errorf("invalid matching.scoringpolicy %q, must be %q or %q",
			settings.Matching.ScoringPolicy, PolicyTimeProximity, PolicyPopulationRatio)
	}

	if err := validateEndpointURL("backend.endpoint", settings.Backend.Endpoint); err != nil {
		return err
	}
	if err := validateEndpointURL("backend.classendpoint", settings.Backend.ClassEndpoint); err != nil {
		return err
	}

	if settings.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", settings.Backend.Timeout)
	}
	if settings.Session.TTL < time.Minute {
		return fmt.Errorf("session.ttl must be at least one minute, got %s", settings.Session.TTL)
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		return fmt.Errorf("sentry.enabled requires sentry.dsn to be set")
	}

	return nil
}

// validateEndpointURL accepts empty values; absence of an endpoint is a mode
// selection signal, not a configuration error.
func validateEndpointURL(key, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https, got %q", key, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host", key)
	}
	return nil
}
