package main

import "github.com/daniacca/popsim/internal/popsim"

// NewRockPaperScissorsScenario is the cyclic three-species model: each
// species converts the one it beats, starting from three vertical bands.
func NewRockPaperScissorsScenario() Scenario {
	species := []popsim.SpeciesName{"rock", "paper", "scissors"}
	schema := popsim.NewSchema("rock-paper-scissors").WithSpeciesNames(species...)
	for i, s := range species {
		beats := species[(i+2)%len(species)]
		schema.WithReactions(popsim.PredationBirth(s, beats, 1.0))
		schema.WithHops(popsim.Hop{Species: s, Rate: 0.2})
	}

	const width, height = 36, 24
	return Scenario{
		Name:        "rock-paper-scissors",
		Description: "cyclic dominance invading from three bands",
		Schema:      schema,
		Config: popsim.Config{
			Width:            width,
			Height:           height,
			CarryingCapacity: 1,
		},
		Place: func(w *popsim.World) error {
			band := width / len(species)
			for y := range height {
				for x := range width {
					s := species[min(x/band, len(species)-1)]
					if err := w.CreateOccupant(s, popsim.Site{X: x, Y: y}); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}
