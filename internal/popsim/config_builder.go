package popsim

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ParseWorldConfig decodes a WorldConfig from JSON.
func ParseWorldConfig(data []byte) (WorldConfig, error) {
	var cfg WorldConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return WorldConfig{}, fmt.Errorf("invalid world config: %w", err)
	}
	return cfg, nil
}

// speciesNames returns the declared species, or the sorted union of every
// name the config mentions when none are declared.
func (cfg WorldConfig) speciesNames() []string {
	if len(cfg.Species) > 0 {
		names := make([]string, len(cfg.Species))
		for i, sp := range cfg.Species {
			names[i] = sp.Name
		}
		return names
	}
	seen := make(map[string]bool)
	for name := range cfg.InitialDensities {
		seen[name] = true
	}
	for name := range cfg.Hops {
		seen[name] = true
	}
	for actor, rules := range cfg.Reactions {
		seen[actor] = true
		for _, rc := range rules {
			if rc.Prey != "" {
				seen[rc.Prey] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SchemaFromConfig converts the JSON form into a Schema without validating
// it. Reactions and hops are added in species order so that the result does
// not depend on map iteration.
func SchemaFromConfig(cfg WorldConfig) *Schema {
	s := NewSchema(cfg.Name)
	names := cfg.speciesNames()
	if len(cfg.Species) > 0 {
		for _, sp := range cfg.Species {
			s = s.WithSpecies(Species{
				Name:        SpeciesName(sp.Name),
				Description: sp.Description,
				Meta:        sp.Meta,
			})
		}
	} else {
		for _, name := range names {
			s = s.WithSpeciesNames(SpeciesName(name))
		}
	}

	for _, actor := range orderedKeys(cfg.Reactions, names) {
		for _, rc := range cfg.Reactions[actor] {
			kind, _ := ParseReactionKind(rc.Kind)
			s = s.WithReactions(Reaction{
				Kind:    kind,
				Species: SpeciesName(actor),
				Prey:    SpeciesName(rc.Prey),
				Rate:    rc.Rate,
			})
		}
	}
	for _, name := range orderedKeys(cfg.Hops, names) {
		s = s.WithHops(Hop{Species: SpeciesName(name), Rate: cfg.Hops[name]})
	}
	return s
}

// orderedKeys returns the keys of m that appear in order first, in that
// order, then any remaining keys sorted.
func orderedKeys[V any](m map[string]V, order []string) []string {
	keys := make([]string, 0, len(m))
	for _, name := range order {
		if _, ok := m[name]; ok {
			keys = append(keys, name)
		}
	}
	var rest []string
	for name := range m {
		if !slices.Contains(order, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

// ValidateWorldConfig reports every problem with cfg at once, as a
// *ValidationError. It returns nil for a buildable config.
func ValidateWorldConfig(cfg WorldConfig) error {
	err := &ValidationError{}
	if cfg.Name == "" {
		err.Add(nil, "world name is required")
	}
	for actor, rules := range cfg.Reactions {
		for i, rc := range rules {
			if _, ok := ParseReactionKind(rc.Kind); !ok {
				err.Add(ErrInvalidReaction, "reaction %s[%d]: unknown kind '%s'", actor, i, rc.Kind)
			}
		}
	}

	s := SchemaFromConfig(cfg)
	validReactions := s.reactions[:0:0]
	for _, r := range s.reactions {
		if r.Kind != 0 {
			validReactions = append(validReactions, r)
		}
	}
	s.reactions = validReactions
	s.validate(err)
	validateConfig(s, cfg.worldConfig(), err)
	return err.errOrNil()
}

func (cfg WorldConfig) worldConfig() Config {
	c := Config{
		ID:               WorldID(cfg.Name),
		Width:            cfg.Size.Width,
		Height:           cfg.Size.Height,
		CarryingCapacity: cfg.CarryingCapacity,
	}
	if len(cfg.InitialDensities) > 0 {
		c.InitialDensities = make(map[SpeciesName]float64, len(cfg.InitialDensities))
		for name, rho := range cfg.InitialDensities {
			c.InitialDensities[SpeciesName(name)] = rho
		}
	}
	if cfg.Seed != nil {
		c.Seed = *cfg.Seed
	} else {
		c.Seed = NewRandomSeed()
	}
	return c
}

// BuildWorldFromConfig validates cfg and constructs the world it describes.
// A config without a seed gets a random one, readable from World.Seed.
func BuildWorldFromConfig(cfg WorldConfig) (*World, error) {
	if err := ValidateWorldConfig(cfg); err != nil {
		return nil, err
	}
	w, err := NewWorld(SchemaFromConfig(cfg), cfg.worldConfig())
	if err != nil {
		return nil, err
	}
	if cfg.Notifications != nil {
		w.notifyCfg = *cfg.Notifications
	}
	return w, nil
}
