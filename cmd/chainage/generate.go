package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dpup/chainage/internal/config"
	"github.com/dpup/chainage/internal/lib/sink"
)

var generateFlags struct {
	out         string
	outFormat   string
	start       float64
	end         float64
	spacing     float64
	unit        string
	mode        string
	divide      int
	forceLast   bool
	reverse     bool
	geodesic    bool
	copy        []string
	workers     int
	explode     bool
	metricsAddr string
}

var generateCmd = &cobra.Command{
	Use:   "generate [input]",
	Short: "Generate chainage points for every line in the input",
	Long: `Generate reads line features from the input file (or stdin when it is "-" or
omitted) and writes the chainage points as GeoJSON, KML or an encoded polyline.

Features that cannot be processed are skipped and reported; the run still
succeeds for the rest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateFlags.out, "out", "o", "-", "output file, - for stdout")
	f.StringVar(&generateFlags.outFormat, "out-format", "", "output format: geojson, kml or polyline")
	f.Float64Var(&generateFlags.start, "start", 0, "distance to start at")
	f.Float64Var(&generateFlags.end, "end", 0, "distance to stop at, 0 for the end of the line")
	f.Float64VarP(&generateFlags.spacing, "spacing", "s", 0, "distance between points")
	f.StringVarP(&generateFlags.unit, "unit", "u", "", "distance unit, e.g. m, km, ft, mi, deg")
	f.StringVarP(&generateFlags.mode, "mode", "m", "", "placement: fixed, divide or firstlast")
	f.IntVar(&generateFlags.divide, "divide", 0, "number of equal parts for --mode divide")
	f.BoolVar(&generateFlags.forceLast, "force-last", false, "always place a point at the end")
	f.BoolVar(&generateFlags.reverse, "reverse", false, "measure from the last vertex")
	f.BoolVar(&generateFlags.geodesic, "geodesic", false, "measure on the ellipsoid")
	f.StringSliceVar(&generateFlags.copy, "copy", nil, "source attributes to copy onto each point")
	f.IntVar(&generateFlags.workers, "workers", 0, "concurrent lines, 0 for one per CPU")
	f.BoolVar(&generateFlags.explode, "explode", false, "process each part of a multi-part line separately")
	f.StringVar(&generateFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
}

// applyGenerateFlags copies explicitly set flags over the loaded config.
func applyGenerateFlags(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		f := cmd.Flags()
		c := &cfg.Chainage
		if f.Changed("start") {
			c.StartPoint = generateFlags.start
		}
		if f.Changed("end") {
			c.EndPoint = generateFlags.end
		}
		if f.Changed("spacing") {
			c.Spacing = generateFlags.spacing
		}
		if f.Changed("unit") {
			c.Unit = generateFlags.unit
		}
		if f.Changed("mode") {
			c.Mode = generateFlags.mode
		}
		if f.Changed("divide") {
			c.DivideCount = generateFlags.divide
		}
		if f.Changed("force-last") {
			c.ForceLast = generateFlags.forceLast
		}
		if f.Changed("reverse") {
			c.Reverse = generateFlags.reverse
		}
		if f.Changed("geodesic") {
			c.UseGeodesic = generateFlags.geodesic
		}
		if f.Changed("copy") {
			c.CopyAttributes = generateFlags.copy
		}
		if f.Changed("workers") {
			cfg.Batch.Workers = generateFlags.workers
		}
		if f.Changed("explode") {
			cfg.Batch.ExplodeMultipart = generateFlags.explode
		}
		if f.Changed("out-format") {
			cfg.Output.Format = generateFlags.outFormat
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, logger, svc, reg, err := setup(cmd, applyGenerateFlags(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if generateFlags.metricsAddr != "" {
		stop := serveMetrics(generateFlags.metricsAddr, reg, logger)
		defer stop()
	}

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}
	features, err := readFeatures(input)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	points, summary, err := svc.Run(ctx, features)
	if err != nil {
		return fmt.Errorf("chainage run %s interrupted: %w", summary.RunID, err)
	}

	format, err := sink.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if format.NeedsLonLat() {
		if points, err = sink.ToLonLat(points, svc.CRS()); err != nil {
			return err
		}
	}
	writer, err := sink.New(format)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if generateFlags.out != "-" {
		f, err := os.Create(generateFlags.out)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := writer.Write(w, points); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Generated %s points on %s features in %s\n",
		humanize.Comma(int64(summary.Points)),
		humanize.Comma(int64(summary.Processed)),
		summary.Duration.Round(time.Millisecond),
	)
	for _, f := range summary.Failures {
		fmt.Fprintf(stderr, "  skipped %v: %v\n", f.FeatureID, f.Err)
	}
	return nil
}
