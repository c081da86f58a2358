// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "NoiseWatch")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/noisewatch.log")

	viper.SetDefault("http.port", "8090")

	viper.SetDefault("backend.mock", false)
	viper.SetDefault("backend.endpoint", "")
	viper.SetDefault("backend.classendpoint", "")
	viper.SetDefault("backend.timeout", 10*time.Second)

	viper.SetDefault("matching.scoringpolicy", PolicyTimeProximity)
	viper.SetDefault("matching.cachettl", 30*time.Second)

	viper.SetDefault("session.ttl", 30*time.Minute)

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
}
