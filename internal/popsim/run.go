package popsim

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Observer is called by Run after every completed step.
type Observer func(ev StepEvent)

// Run advances the world by steps Monte Carlo steps, calling observer (if
// not nil) after each one. Cancellation is checked between steps; the steps
// completed so far are kept and the context error is returned.
func (w *World) Run(ctx context.Context, steps int, observer Observer) error {
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := w.step()
		if observer != nil {
			observer(ev)
		}
	}
	return nil
}

// Start steps the world on a ticker in its own goroutine until Stop is
// called. It is a no-op when the world is already running, and can be
// called again after Stop.
func (w *World) Start(interval time.Duration) {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	// a fresh channel per run allows restarting after Stop
	w.stopCh = make(chan struct{})
	w.isRunning = true
	stopCh := w.stopCh
	logger := w.logger
	id := w.id
	w.mu.Unlock()

	logger.Infof("world started: world_id=%s interval=%s", id, interval)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.Step()
			case <-stopCh:
				logger.Infof("world stopped: world_id=%s", id)
				return
			}
		}
	}()
}

// Stop halts a world started with Start.
func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isRunning {
		return
	}
	w.isRunning = false
	close(w.stopCh)
}

// IsRunning reports whether the world is stepping on its own.
func (w *World) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isRunning
}

// Trajectory is the abundance of each species at the start of a run and
// after every step, indexed [step][species] with species in World.Species
// order. Counts[0] is the state the replica was built in.
type Trajectory struct {
	Seed    uint64
	Species []SpeciesName
	Counts  [][]uint64
}

// Builder constructs one replica of an ensemble from its seed.
type Builder func(seed uint64) (*World, error)

// RunEnsemble builds n independent replicas with seeds baseSeed, baseSeed+1,
// ... and runs each for steps steps on at most workers goroutines. Results
// are returned in replica order regardless of scheduling.
func RunEnsemble(ctx context.Context, n, workers int, baseSeed uint64, build Builder, steps int) ([]Trajectory, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]Trajectory, n)
	errs := make([]error, n)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(workers, n) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i], errs[i] = runReplica(ctx, baseSeed+uint64(i), build, steps)
			}
		}()
	}

feed:
	for i := range n {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("replica %d: %w", i, err)
		}
	}
	return out, nil
}

func runReplica(ctx context.Context, seed uint64, build Builder, steps int) (Trajectory, error) {
	w, err := build(seed)
	if err != nil {
		return Trajectory{}, err
	}
	tr := Trajectory{Seed: seed, Species: w.Species(), Counts: make([][]uint64, 0, steps+1)}
	record := func(StepEvent) {
		w.mu.RLock()
		tr.Counts = append(tr.Counts, slices.Clone(w.lattice.abundance))
		w.mu.RUnlock()
	}
	record(StepEvent{})
	err = w.Run(ctx, steps, record)
	return tr, err
}
