// Package serve implements the HTTP API server command.
package serve

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noisewatch/noisewatch-go/internal/api"
	"github.com/noisewatch/noisewatch-go/internal/backend"
	"github.com/noisewatch/noisewatch-go/internal/conf"
	"github.com/noisewatch/noisewatch-go/internal/errors"
	"github.com/noisewatch/noisewatch-go/internal/httpclient"
	"github.com/noisewatch/noisewatch-go/internal/observability"
	"github.com/noisewatch/noisewatch-go/internal/search"
	"github.com/noisewatch/noisewatch-go/internal/session"
	"github.com/noisewatch/noisewatch-go/internal/telemetry"
)

// Command returns the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the complaint intake HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	if err := telemetry.Init(settings); err != nil {
		slog.Warn("telemetry disabled", "error", err)
	}
	defer telemetry.Flush(2 * time.Second)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return errors.New(err).
			Component("serve").
			Category(errors.CategoryConfiguration).
			Build()
	}

	hc := httpclient.New(nil)
	defer hc.Close()

	provider := backend.NewProvider(settings, hc)
	searchService := search.New(settings, provider, metrics)
	sessions := session.NewStore(settings.Session.TTL)

	controller := api.New(settings, searchService, sessions, metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- controller.Start()
	}()

	slog.Info("server started",
		"port", settings.HTTP.Port,
		"backend_mock", settings.Backend.UseMock(),
		"scoring_policy", settings.Matching.ScoringPolicy)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := controller.Echo.Shutdown(ctx); err != nil {
			return err
		}
	}

	return nil
}
