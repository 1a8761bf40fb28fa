package popsim

type SpeciesConfig struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

type SizeConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ReactionConfig is one rule in the reactions list of its acting species.
// Prey is required for "predation" and "predation_birth" only.
type ReactionConfig struct {
	Kind string  `json:"kind"`
	Prey string  `json:"prey,omitempty"`
	Rate float64 `json:"rate"`
}

// WorldConfig is the JSON form of a schema plus its world Config.
//
// When Species is empty the species are the sorted union of every name the
// config mentions. Reactions are keyed by acting species and keep their list
// order.
type WorldConfig struct {
	Name             string                      `json:"name"`
	Size             SizeConfig                  `json:"size"`
	Species          []SpeciesConfig             `json:"species,omitempty"`
	InitialDensities map[string]float64          `json:"initial_densities,omitempty"`
	Hops             map[string]float64          `json:"hops,omitempty"`
	Reactions        map[string][]ReactionConfig `json:"reactions,omitempty"`
	CarryingCapacity int                         `json:"carrying_capacity"`
	Seed             *uint64                     `json:"seed,omitempty"`
	Notifications    *NotificationConfig         `json:"notifications,omitempty"`
}
