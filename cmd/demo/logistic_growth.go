package main

import "github.com/daniacca/popsim/internal/popsim"

// NewLogisticGrowthScenario grows a single species from one founder site
// until births and deaths balance under the carrying capacity.
func NewLogisticGrowthScenario() Scenario {
	const cells popsim.SpeciesName = "cells"
	schema := popsim.NewSchema("logistic-growth").
		WithSpeciesNames(cells).
		WithReactions(
			popsim.Birth(cells, 0.4),
			popsim.Death(cells, 0.05),
		).
		WithHops(popsim.Hop{Species: cells, Rate: 0.3})

	const size = 32
	return Scenario{
		Name:        "logistic-growth",
		Description: "one founder colony spreading to capacity",
		Schema:      schema,
		Config: popsim.Config{
			Width:            size,
			Height:           size,
			CarryingCapacity: 4,
		},
		Place: func(w *popsim.World) error {
			centre := popsim.Site{X: size / 2, Y: size / 2}
			for range 4 {
				if err := w.CreateOccupant(cells, centre); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
