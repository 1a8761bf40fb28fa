package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/integrii/flaggy"
)

// Options holds the command line of one simulation run.
type Options struct {
	ConfigFile  string
	Steps       int
	Seed        string
	Every       int
	CSVFile     string
	ChartFile   string
	MovieFile   string
	RadialFile  string
	FPS         int
	CellSize    int
	SnapshotDir string
	View        bool
	Interval    time.Duration
	Replicas    int
	Workers     int
	NoColor     bool
	LogLevel    string
}

var defaultOptions = Options{
	Steps:    100,
	Every:    1,
	FPS:      10,
	CellSize: 4,
	Interval: 100 * time.Millisecond,
	Replicas: 1,
	Workers:  4,
	LogLevel: "warn",
}

func main() {
	opts := initOptions()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func initOptions() Options {
	opts := defaultOptions
	flaggy.SetName("popsim-sim")
	flaggy.SetDescription("Runs a lattice population simulation from a JSON world config")
	flaggy.DefaultParser.ShowHelpOnUnexpected = true

	flaggy.String(&opts.ConfigFile, "c", "config", "Path to the world config JSON file (required)")
	flaggy.Int(&opts.Steps, "s", "steps", "Number of Monte Carlo steps to run")
	flaggy.String(&opts.Seed, "", "seed", "Random seed, overrides the seed in the config")
	flaggy.Int(&opts.Every, "e", "every", "Record abundances and frames every N steps")
	flaggy.String(&opts.CSVFile, "", "csv", "Write the abundance time series to this CSV file")
	flaggy.String(&opts.ChartFile, "", "chart", "Write an abundance chart to this PNG file")
	flaggy.String(&opts.MovieFile, "", "movie", "Write lattice frames to this MJPEG AVI file")
	flaggy.String(&opts.RadialFile, "", "radial", "Write the final radial density profile about the lattice centre to this CSV file")
	flaggy.Int(&opts.FPS, "", "fps", "Frames per second of the movie")
	flaggy.Int(&opts.CellSize, "", "cell", "Pixels per site in movie frames")
	flaggy.String(&opts.SnapshotDir, "", "snapshot-dir", "Save the final world snapshot into this directory")
	flaggy.Bool(&opts.View, "v", "view", "Show the lattice in the terminal while it runs")
	flaggy.Duration(&opts.Interval, "i", "interval", "Time between steps in view mode, for example 100ms")
	flaggy.Int(&opts.Replicas, "r", "replicas", "Run this many independent replicas with consecutive seeds")
	flaggy.Int(&opts.Workers, "w", "workers", "Replicas run in parallel")
	flaggy.Bool(&opts.NoColor, "", "no-color", "Disable coloured output")
	flaggy.String(&opts.LogLevel, "", "log-level", "Log level: debug, info, warn, error")

	flaggy.Parse()

	if opts.ConfigFile == "" {
		flaggy.ShowHelpAndExit("--config is required")
	}
	return opts
}
