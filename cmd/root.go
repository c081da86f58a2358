// Package cmd assembles the noisewatch command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noisewatch/noisewatch-go/cmd/serve"
	"github.com/noisewatch/noisewatch-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "noisewatch",
		Short: "Noise complaint intake service",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(serve.Command(settings))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Re-validate after flags have overridden file and env values.
		return conf.Validate(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.HTTP.Port, "port", viper.GetString("http.port"), "Port for the HTTP API server")
	rootCmd.PersistentFlags().BoolVar(&settings.Backend.Mock, "mock", viper.GetBool("backend.mock"), "Serve synthesized sample data instead of querying the live backend")
	rootCmd.PersistentFlags().StringVar(&settings.Matching.ScoringPolicy, "scoring-policy", viper.GetString("matching.scoringpolicy"),
		fmt.Sprintf("Confidence scoring policy: %s or %s", conf.PolicyTimeProximity, conf.PolicyPopulationRatio))

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(fmt.Errorf("error binding flags: %w", err))
	}
}
