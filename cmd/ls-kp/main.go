// Command ls-kp computes Krishnamurti Paddhati sidereal charts, as a text or
// JSON report, an interactive terminal viewer, a batch job or an HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-kp/internal/birth"
	"github.com/litescript/ls-kp/internal/config"
	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/logging"
	"github.com/litescript/ls-kp/internal/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	ephemMode  string
	snapshot   string
}

// birthFlags describe the chart to cast.
type birthFlags struct {
	rec       birth.Record
	lat       float64
	lon       float64
	dashas    int
	divisions []int
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		g globalFlags
		a *app
	)

	rootCmd := &cobra.Command{
		Use:          "ls-kp",
		Short:        "Krishnamurti Paddhati sidereal charts",
		Version:      version.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = setup(cmd, g)
			return err
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.ephemMode, "ephem", "", "Ephemeris source: horizons or snapshot")
	pf.StringVar(&g.snapshot, "snapshot", "", "Read positions from a YAML ephemeris snapshot")

	getApp := func() *app { return a }
	rootCmd.AddCommand(chartCmd(getApp))
	rootCmd.AddCommand(tuiCmd(getApp))
	rootCmd.AddCommand(serveCmd(getApp))
	rootCmd.AddCommand(batchCmd(getApp))
	return rootCmd
}

// setup loads .env and config, applies flag overrides and builds the app.
func setup(cmd *cobra.Command, g globalFlags) (*app, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.ephemMode != "" {
		cfg.Ephemeris.Mode = g.ephemMode
	}
	if g.snapshot != "" {
		cfg.Ephemeris.SnapshotPath = g.snapshot
		if g.ephemMode == "" {
			cfg.Ephemeris.Mode = "snapshot"
		}
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		cfg.Server.Addr = f.Value.String()
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		if n, err := cmd.Flags().GetInt("workers"); err == nil {
			cfg.Batch.Workers = n
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, err := logging.Configure(cfg.LoggingOptions())
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logger)
}

func addBirthFlags(cmd *cobra.Command, b *birthFlags) {
	f := cmd.Flags()
	f.StringVar(&b.rec.Name, "name", "", "Chart name")
	f.StringVar(&b.rec.Date, "date", "", "Birth date (YYYY-MM-DD or DD/MM/YYYY)")
	f.StringVar(&b.rec.Time, "time", "", "Birth time (HH:MM[:SS], optional AM/PM)")
	f.StringVar(&b.rec.Timezone, "tz", "", "Time zone (IANA name or ±HH:MM)")
	f.StringVar(&b.rec.Instant, "datetime", "", "Birth instant as RFC 3339")
	f.Float64Var(&b.lat, "lat", 0, "Latitude in degrees, north positive")
	f.Float64Var(&b.lon, "lon", 0, "Longitude in degrees, east positive")
	f.StringVar(&b.rec.Place, "place", "", "Place name")
	f.StringVar(&b.rec.Ayanamsa, "ayanamsa", "", "Ayanamsa: kp-newcomb, kp-reference, tropical or degrees")
	f.StringVar(&b.rec.HouseSystem, "houses", "", "House system: placidus, porphyry, equal, whole-sign")
	f.StringSliceVar(&b.rec.Bodies, "bodies", nil, "Bodies to compute (default: the nine KP lords)")
	f.BoolVar(&b.rec.IncludeOuter, "outer", false, "Include Uranus, Neptune and Pluto")
	f.IntVar(&b.dashas, "dashas", kp.DefaultDashaCount, "Mahadashas after the birth period")
	f.IntSliceVar(&b.divisions, "divisions", nil, "Divisional charts, e.g. 9,10")
}

// record returns the birth record, keeping unset coordinates nil so the
// configured place applies.
func (b *birthFlags) record(cmd *cobra.Command) birth.Record {
	rec := b.rec
	if cmd.Flags().Changed("lat") {
		lat := b.lat
		rec.Latitude = &lat
	}
	if cmd.Flags().Changed("lon") {
		lon := b.lon
		rec.Longitude = &lon
	}
	if cmd.Flags().Changed("dashas") {
		n := b.dashas
		rec.DashaCount = &n
	}
	rec.Divisions = b.divisions
	return rec
}

func chartCmd(getApp func() *app) *cobra.Command {
	var (
		b    birthFlags
		opts reportOptions
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Compute a chart and print it as text or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return getApp().runReport(cmd.Context(), b.record(cmd), opts)
		},
	}

	addBirthFlags(cmd, &b)
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print JSON instead of text")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	cmd.Flags().BoolVar(&opts.antardashas, "antardashas", false, "Include antardashas")
	cmd.Flags().StringVar(&opts.saveSnapshot, "save-snapshot", "", "Capture the chart's raw ephemeris to a YAML snapshot")
	return cmd
}

func tuiCmd(getApp func() *app) *cobra.Command {
	var b birthFlags

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive chart viewer with live transits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return getApp().runTUI(cmd.Context(), b.record(cmd))
		},
	}

	addBirthFlags(cmd, &b)
	return cmd
}

func serveCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return getApp().serve(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "HTTP listen address (overrides config)")
	return cmd
}

func batchCmd(getApp func() *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "batch [records.yaml]",
		Short: "Compute every birth record in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getApp().runBatch(cmd.Context(), args[0], jsonOut)
		},
	}

	cmd.Flags().Int("workers", 0, "Worker count (overrides config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a summary")
	return cmd
}
