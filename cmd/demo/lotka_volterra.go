package main

import "github.com/daniacca/popsim/internal/popsim"

// NewLotkaVolterraScenario is the single-occupancy predator-prey model:
// predators A eat prey B on a neighbouring site and reproduce into it.
func NewLotkaVolterraScenario() Scenario {
	const (
		predator popsim.SpeciesName = "A"
		prey     popsim.SpeciesName = "B"
	)
	schema := popsim.NewSchema("lotka-volterra").
		WithSpecies(
			popsim.Species{Name: predator, Description: "predator"},
			popsim.Species{Name: prey, Description: "prey"},
		).
		WithReactions(
			popsim.Death(predator, 0.1),
			popsim.PredationBirth(predator, prey, 0.5),
			popsim.Birth(prey, 0.3),
		).
		WithHops(
			popsim.Hop{Species: predator, Rate: 0.5},
			popsim.Hop{Species: prey, Rate: 0.5},
		)

	return Scenario{
		Name:        "lotka-volterra",
		Description: "predator-prey oscillations on a single-occupancy lattice",
		Schema:      schema,
		Config: popsim.Config{
			Width:            48,
			Height:           48,
			InitialDensities: map[popsim.SpeciesName]float64{predator: 0.1, prey: 0.3},
			CarryingCapacity: 1,
		},
	}
}
