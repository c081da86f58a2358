package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/noisewatch/noisewatch-go/cmd"
	"github.com/noisewatch/noisewatch-go/internal/conf"
	"github.com/noisewatch/noisewatch-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)

	if settings.Main.Log.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, level)
		if err != nil {
			slog.Warn("file logging disabled", "path", settings.Main.Log.Path, "error", err)
		} else {
			slog.SetDefault(fileLogger)
			defer func() {
				if err := closeLog(); err != nil {
					fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
				}
			}()
		}
	}

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		logging.Fatal("command failed", "error", err)
	}
}
