package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/daniacca/popsim/internal/popsim"
	"github.com/daniacca/popsim/internal/render"
)

// Scenario is a ready-made world assembled with the Go API rather than a
// JSON config.
type Scenario struct {
	Name        string
	Description string
	Schema      *popsim.Schema
	Config      popsim.Config
	// Place, when set, adds occupants by hand after the world is seeded.
	Place func(w *popsim.World) error
}

// Build creates the scenario's world with the given seed.
func (s Scenario) Build(seed uint64) (*popsim.World, error) {
	cfg := s.Config
	cfg.ID = popsim.WorldID(s.Name)
	cfg.Seed = seed
	w, err := popsim.NewWorld(s.Schema, cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	if s.Place != nil {
		if err := s.Place(w); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return w, nil
}

// Run builds the scenario, steps it and writes a summary to out.
func (s Scenario) Run(out io.Writer, seed uint64, steps int, colors bool) (*popsim.World, error) {
	w, err := s.Build(seed)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	for range steps {
		w.Step()
	}
	fmt.Fprintf(out, "== %s: %s\n", s.Name, s.Description)
	if err := render.WriteSummary(out, w, time.Since(start), colors); err != nil {
		return nil, err
	}
	return w, nil
}

var scenarios = []Scenario{
	NewLotkaVolterraScenario(),
	NewRockPaperScissorsScenario(),
	NewLogisticGrowthScenario(),
}

func findScenario(name string) (Scenario, bool) {
	i := slices.IndexFunc(scenarios, func(s Scenario) bool { return s.Name == name })
	if i < 0 {
		return Scenario{}, false
	}
	return scenarios[i], true
}
