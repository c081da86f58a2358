// Package conf loads and validates the application settings from defaults,
// an optional YAML config file and environment variables, using viper.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Scoring policy names accepted by matching.scoringpolicy.
const (
	PolicyTimeProximity   = "timeproximity"
	PolicyPopulationRatio = "populationratio"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// MainSettings contains process-level settings.
type MainSettings struct {
	Name string    // name of this node, can be used to identify the source of complaints
	Log  LogConfig // main log configuration
}

// HTTPSettings contains the inbound API server settings.
type HTTPSettings struct {
	Port string // port for the HTTP API server
}

// BackendSettings configures access to the external noise-monitoring backend.
type BackendSettings struct {
	Mock bool // true to use synthesized sample data instead of live queries

	// Endpoint is the unfiltered query endpoint, required for live mode.
	Endpoint string

	// ClassEndpoint is the class-filtered query endpoint. Leaving it empty
	// disables the class-filtered query mode.
	ClassEndpoint string

	Timeout time.Duration // per-request timeout for outbound backend calls
}

// UseMock reports whether searches should run against synthesized data.
// Mock mode is active when explicitly enabled or when no live endpoint is
// configured at all, so the service never starts in a silently broken state.
func (b *BackendSettings) UseMock() bool {
	return b.Mock || b.Endpoint == ""
}

// MatchingSettings configures the scoring and grouping pipeline.
type MatchingSettings struct {
	ScoringPolicy string        // timeproximity or populationratio
	CacheTTL      time.Duration // TTL for the unfiltered response cache
}

// SessionSettings configures the complaint workflow session store.
type SessionSettings struct {
	TTL time.Duration // how long an abandoned complaint session is retained
}

// SentrySettings configures optional error telemetry.
type SentrySettings struct {
	Enabled bool
	DSN     string
}

// Settings is the root configuration structure.
type Settings struct {
	Debug bool // true to enable debug logging

	Main     MainSettings
	HTTP     HTTPSettings
	Backend  BackendSettings
	Matching MatchingSettings
	Session  SessionSettings
	Sentry   SentrySettings
}

// Load reads the configuration and returns populated and validated settings.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := Validate(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("noisewatch")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults plus env carry the configuration.
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return []string{"."}, nil //nolint:nilerr // fall back to cwd when the OS gives no config dir
	}
	return []string{
		".",
		filepath.Join(configDir, "noisewatch"),
	}, nil
}
