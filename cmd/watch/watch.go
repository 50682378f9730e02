// Package watch runs the radar as a long-lived daemon: scheduled stale
// refresh plus periodic alert digests.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/tphakala/radar-go/internal/alert"
	"github.com/tphakala/radar-go/internal/classifier"
	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
	"github.com/tphakala/radar-go/internal/fetcher"
	"github.com/tphakala/radar-go/internal/logging"
	"github.com/tphakala/radar-go/internal/observability/metrics"
	"github.com/tphakala/radar-go/internal/scheduler"
)

// Command creates the watch command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		analyzeSchedule string
		alertSchedule   string
		metricsAddr     string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run as a daemon with scheduled analysis and alerts",
		Long: `Starts a long-running process that periodically re-analyzes stale
companies and sends alert digests for new activity. Schedules use standard
cron syntax.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(settings, analyzeSchedule, alertSchedule, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&analyzeSchedule, "analyze-schedule", "0 3 * * *", "Cron schedule for the stale refresh")
	cmd.Flags().StringVar(&alertSchedule, "alert-schedule", "0 * * * *", "Cron schedule for the alert digest")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for Prometheus metrics (empty = disabled)")

	return cmd
}

func runWatch(settings *conf.Settings, analyzeSchedule, alertSchedule, metricsAddr string) error {
	logger := logging.ForService("watch")

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	cls, err := classifier.New(settings)
	if err != nil {
		return err
	}

	var radarMetrics *metrics.RadarMetrics
	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		radarMetrics, err = metrics.NewRadarMetrics(registry)
		if err != nil {
			return err
		}
		go serveMetrics(metricsAddr, registry, logger)
	}

	sched := scheduler.New(settings, store, fetcher.New(settings), cls, radarMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	_, err = c.AddFunc(analyzeSchedule, func() {
		refreshStale(ctx, settings, store, sched, logger)
	})
	if err != nil {
		return fmt.Errorf("invalid analyze schedule %q: %w", analyzeSchedule, err)
	}

	if settings.Radar.Alerts.Enabled {
		alerter, err := alert.New(settings, store)
		if err != nil {
			return err
		}
		_, err = c.AddFunc(alertSchedule, func() {
			result, err := alerter.Run(ctx)
			if err != nil {
				logger.Error("alert run failed", "error", err)
				return
			}
			logger.Info("alert run finished", "status", result.Status, "events", result.Count)
		})
		if err != nil {
			return fmt.Errorf("invalid alert schedule %q: %w", alertSchedule, err)
		}
	} else {
		logger.Info("alerts disabled, digest job not scheduled")
	}

	c.Start()
	logger.Info("watch started",
		"analyze_schedule", analyzeSchedule, "alert_schedule", alertSchedule)

	<-ctx.Done()
	logger.Info("shutting down")

	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("cron jobs did not finish within grace period")
	}
	return nil
}

func refreshStale(ctx context.Context, settings *conf.Settings, store datastore.Interface, sched *scheduler.Scheduler, logger *slog.Logger) {
	views, err := store.GetCompanies()
	if err != nil {
		logger.Error("loading companies failed", "error", err)
		return
	}
	stale := scheduler.StaleCompanies(views, settings.Radar.Freshness.WindowDays, time.Now())
	if len(stale) == 0 {
		logger.Info("no stale companies")
		return
	}

	results := sched.RunBatch(ctx, stale, false, nil)
	summary := scheduler.Summarize(results)
	logger.Info("stale refresh finished",
		"total", summary.Total, "successful", summary.Successful,
		"failed", summary.Failed, "category_changed", summary.CategoryChanged)
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", "error", err)
	}
}
