package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/daniacca/popsim/internal/logging"
	"github.com/daniacca/popsim/internal/popsim"
	"github.com/daniacca/popsim/internal/render"
	"github.com/gdamore/tcell/v2"
	"github.com/logrusorgru/aurora"
)

// run executes one invocation of the command and writes its report to out.
func run(ctx context.Context, opts Options, out io.Writer) error {
	if opts.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", opts.Steps)
	}
	opts.Every = max(opts.Every, 1)
	logger := logging.NewWithWriter(os.Stderr, opts.LogLevel)

	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.Seed != "" {
		seed, err := strconv.ParseUint(opts.Seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", opts.Seed, err)
		}
		cfg.Seed = &seed
	}

	if opts.Replicas > 1 {
		return runEnsemble(ctx, cfg, opts, out, logger)
	}

	w, err := popsim.BuildWorldFromConfig(cfg)
	if err != nil {
		return err
	}
	w.SetLogger(logger)
	logger.Infof("world built: name=%s size=%dx%d seed=%d", cfg.Name, cfg.Size.Width, cfg.Size.Height, w.Seed())

	start := time.Now()
	if opts.View {
		err = runViewer(ctx, w, opts)
	} else {
		err = runBatch(ctx, w, opts, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	if opts.SnapshotDir != "" {
		w.SetSnapshotDir(opts.SnapshotDir)
		if err := w.SaveSnapshot(); err != nil {
			return err
		}
		logger.Infof("snapshot saved: path=%s", w.SnapshotPath())
	}
	return render.WriteSummary(out, w, elapsed, !opts.NoColor)
}

func loadConfig(path string) (popsim.WorldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return popsim.WorldConfig{}, fmt.Errorf("reading world file: %w", err)
	}
	cfg, err := popsim.ParseWorldConfig(data)
	if err != nil {
		return popsim.WorldConfig{}, err
	}
	if err := popsim.ValidateWorldConfig(cfg); err != nil {
		return popsim.WorldConfig{}, err
	}
	return cfg, nil
}

// runBatch steps the world without a terminal, recording the outputs
// requested in opts.
func runBatch(ctx context.Context, w *popsim.World, opts Options, logger *logging.Logger) error {
	traj := render.NewTrajectory(w.Species())
	traj.RecordCounts(w.StepCount(), w.Abundances())

	frameOpts := render.FrameOptions{CellSize: opts.CellSize}
	var movie *render.Movie
	if opts.MovieFile != "" {
		first := render.WorldFrame(w, withLabel(frameOpts, w.StepCount()))
		b := first.Bounds()
		m, err := render.NewMovie(opts.MovieFile, b.Dx(), b.Dy(), opts.FPS)
		if err != nil {
			return err
		}
		movie = m
		defer movie.Close()
		if err := movie.AddFrame(first); err != nil {
			return err
		}
	}

	var frameErr error
	progressEvery := max(int64(opts.Steps)/10, 1)
	err := w.Run(ctx, opts.Steps, func(ev popsim.StepEvent) {
		if ev.Step%int64(opts.Every) == 0 {
			traj.Record(ev)
			if movie != nil && frameErr == nil {
				frameErr = movie.AddFrame(render.WorldFrame(w, withLabel(frameOpts, ev.Step)))
			}
		}
		if ev.Step%progressEvery == 0 {
			logger.Debugf("step %d: occupants=%d", ev.Step, ev.Occupants)
		}
	})
	if frameErr != nil {
		return frameErr
	}
	if movie != nil {
		if err := movie.Close(); err != nil {
			return err
		}
		logger.Infof("movie written: path=%s frames=%d", opts.MovieFile, movie.Frames())
	}
	if werr := writeOutputs(traj, opts); werr != nil {
		return werr
	}
	if opts.RadialFile != "" {
		if werr := writeFile(opts.RadialFile, func(out io.Writer) error {
			return writeRadialCSV(out, w)
		}); werr != nil {
			return werr
		}
	}
	return err
}

// writeRadialCSV writes the mean occupancy of each species in distance
// rings around the lattice centre: "r,<species>...".
func writeRadialCSV(out io.Writer, w *popsim.World) error {
	species := w.Species()
	arrays := w.AsArrays()
	l := w.Lattice()
	cx, cy := l.Width()/2, l.Height()/2

	profiles := make([][]float64, len(species))
	rings := 0
	for i, name := range species {
		profiles[i] = render.RadialAverage(arrays[name], cx, cy)
		rings = max(rings, len(profiles[i]))
	}

	cw := csv.NewWriter(out)
	header := []string{"r"}
	for _, name := range species {
		header = append(header, string(name))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for r := range rings {
		record[0] = strconv.Itoa(r)
		for i, p := range profiles {
			v := 0.0
			if r < len(p) {
				v = p[r]
			}
			record[i+1] = strconv.FormatFloat(v, 'g', 6, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func withLabel(opts render.FrameOptions, step int64) render.FrameOptions {
	opts.Label = fmt.Sprintf("step %d", step)
	return opts
}

func writeOutputs(traj *render.Trajectory, opts Options) error {
	if opts.CSVFile != "" {
		if err := writeFile(opts.CSVFile, traj.WriteCSV); err != nil {
			return err
		}
	}
	if opts.ChartFile != "" {
		err := writeFile(opts.ChartFile, func(w io.Writer) error {
			return traj.RenderChart(w, 1024, 400, nil)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func runViewer(ctx context.Context, w *popsim.World, opts Options) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	v := render.NewViewer(screen, w, nil)
	return v.Run(ctx, opts.Interval, int64(opts.Steps))
}

// runEnsemble runs opts.Replicas independent copies of cfg and reports the
// final abundances of each.
func runEnsemble(ctx context.Context, cfg popsim.WorldConfig, opts Options, out io.Writer, logger *logging.Logger) error {
	baseSeed := popsim.NewRandomSeed()
	if cfg.Seed != nil {
		baseSeed = *cfg.Seed
	}
	build := func(seed uint64) (*popsim.World, error) {
		c := cfg
		c.Seed = &seed
		w, err := popsim.BuildWorldFromConfig(c)
		if err != nil {
			return nil, err
		}
		w.SetLogger(logger)
		return w, nil
	}

	start := time.Now()
	trajs, err := popsim.RunEnsemble(ctx, opts.Replicas, opts.Workers, baseSeed, build, opts.Steps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Round(time.Millisecond)

	if opts.CSVFile != "" {
		if err := writeFile(opts.CSVFile, func(w io.Writer) error {
			return writeEnsembleCSV(w, trajs, opts.Every)
		}); err != nil {
			return err
		}
	}

	au := aurora.NewAurora(!opts.NoColor)
	fmt.Fprintf(out, " %s: %d replicas x %d steps in %v\n", au.Green("Ensemble"), len(trajs), opts.Steps, elapsed)
	for i, tr := range trajs {
		line := fmt.Sprintf(" %s seed=%d", au.Bold(fmt.Sprintf("#%d", i)), tr.Seed)
		var final []uint64
		if len(tr.Counts) > 0 {
			final = tr.Counts[len(tr.Counts)-1]
		}
		for j, name := range tr.Species {
			var n uint64
			if final != nil {
				n = final[j]
			}
			line += fmt.Sprintf(" %s=%d", name, n)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// writeEnsembleCSV writes one row per replica and recorded step, starting
// with the initial state at step 0: "replica,seed,step,<species>...".
func writeEnsembleCSV(w io.Writer, trajs []popsim.Trajectory, every int) error {
	cw := csv.NewWriter(w)
	if len(trajs) == 0 {
		cw.Flush()
		return cw.Error()
	}
	header := []string{"replica", "seed", "step"}
	for _, name := range trajs[0].Species {
		header = append(header, string(name))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for i, tr := range trajs {
		for step, counts := range tr.Counts {
			if step%every != 0 {
				continue
			}
			record[0] = strconv.Itoa(i)
			record[1] = strconv.FormatUint(tr.Seed, 10)
			record[2] = strconv.Itoa(step)
			for j, c := range counts {
				record[j+3] = strconv.FormatUint(c, 10)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
