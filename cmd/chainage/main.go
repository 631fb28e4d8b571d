package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dpup/chainage/internal/config"
	"github.com/dpup/chainage/internal/lib/source"
	"github.com/dpup/chainage/internal/metrics"
	"github.com/dpup/chainage/internal/services"
)

var (
	configPath  string
	inputFormat string
	crsFlag     string
	ids         []string
)

var rootCmd = &cobra.Command{
	Use:   "chainage",
	Short: "Place distance-labelled points along line features",
	Long: `chainage reads line features from GeoJSON, WKT or encoded polylines and stamps
points along them at a fixed spacing, at equal divisions, or at their ends.
Each point is labelled with its distance from the start of its line.

Settings come from defaults, then the --config YAML file, then CHAINAGE_
environment variables, then flags.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&inputFormat, "in-format", "", "input format: geojson, wkt or polyline (default: from file extension)")
	rootCmd.PersistentFlags().StringVar(&crsFlag, "crs", "", "CRS of the input, as EPSG:nnnn or proj4 (overrides project.crs)")
	rootCmd.PersistentFlags().StringSliceVar(&ids, "ids", nil, "only process features with these ids")

	rootCmd.AddCommand(generateCmd, lengthCmd)
}

// setup loads configuration and builds the logger and batch service shared
// by every subcommand.
func setup(cmd *cobra.Command, apply func(*config.Config)) (*config.Config, *zap.Logger, *services.BatchService, *prometheus.Registry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if cmd.Flags().Changed("crs") {
		cfg.Project.CRS = crsFlag
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	reg := prometheus.NewRegistry()
	svc, err := services.NewBatchService(cfg, logger, metrics.New(reg))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return cfg, logger, svc, reg, nil
}

// readFeatures loads features from path, or stdin when path is "-".
func readFeatures(path string) ([]source.Feature, error) {
	format := source.DetectFormat(path)
	if inputFormat != "" {
		f, err := source.ParseFormat(inputFormat)
		if err != nil {
			return nil, err
		}
		format = f
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	features, err := source.Read(r, format)
	if err != nil {
		return nil, err
	}
	return source.Filter(features, ids), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// serveMetrics exposes reg on addr until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err), zap.String("addr", addr))
		}
	}()
	return func() { _ = srv.Close() }
}
