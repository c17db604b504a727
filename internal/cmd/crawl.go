package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/masahif/pwascout/internal/crawler"
)

const metricsShutdownTimeout = 5 * time.Second

var seedCmd = &cobra.Command{
	Use:   "seed <url>",
	Short: "Crawl one URL and queue the new hosts it links to",
	Long: `Seed processes exactly one URL: it is filtered, fetched and recorded
like any other page, and the links it holds to unseen hosts are pushed
onto the frontier. The frontier is not drained.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Process queued URLs until the frontier is empty",
	Args:  cobra.NoArgs,
	RunE:  runDrain,
}

func init() {
	drainCmd.Flags().Duration("worker-timeout", 5*time.Second, "Wall-clock budget per URL")
	drainCmd.Flags().Duration("delay", 0, "Pause between URLs")
	drainCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, appOptions{store: true, frontier: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	c, closeFetcher, err := a.newCrawler()
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}
	defer closeFetcher()

	pending, err := c.Seed(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s, %d URLs pending\n", args[0], pending)
	return nil
}

func runDrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{store: true, frontier: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, a.registry, a.logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	c, closeFetcher, err := a.newCrawler()
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}
	defer closeFetcher()

	stats, err := c.Drain(ctx)
	renderDrainStats(cmd.OutOrStdout(), stats)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	return srv
}

func renderDrainStats(w io.Writer, stats crawler.DrainStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Outcome", "URLs"})
	t.AppendRows([]table.Row{
		{crawler.OutcomeProcessed.String(), stats.Processed},
		{crawler.OutcomeDuplicate.String(), stats.Duplicates},
		{crawler.OutcomeFilteredOut.String(), stats.FilteredOut},
		{crawler.OutcomeFetchFailed.String(), stats.FetchFailed},
		{crawler.OutcomeTimedOut.String(), stats.TimedOut},
		{crawler.OutcomeFailed.String(), stats.Failed},
	})
	t.AppendFooter(table.Row{"Popped", stats.Popped})
	t.SetCaption("Drained in %s", stats.Duration.Round(time.Millisecond))

	t.Render()
}
