package popsim

// Schema defines the fixed topology of a population model: which species
// exist and the reaction and hop rules that govern them.
type Schema struct {
	Name      string
	species   []Species
	reactions []Reaction
	hops      []Hop
}

// NewSchema creates a new schema with the given name.
// The schema starts with no species or rules.
func NewSchema(name string) *Schema {
	return &Schema{
		Name:      name,
		species:   make([]Species, 0),
		reactions: make([]Reaction, 0),
		hops:      make([]Hop, 0),
	}
}

// WithSpecies registers species in order and returns the schema for chaining.
// Registration order fixes each species' index.
func (s *Schema) WithSpecies(species ...Species) *Schema {
	s.species = append(s.species, species...)
	return s
}

// WithSpeciesNames is WithSpecies for bare names.
func (s *Schema) WithSpeciesNames(names ...SpeciesName) *Schema {
	for _, n := range names {
		s.species = append(s.species, Species{Name: n})
	}
	return s
}

// WithReactions appends reaction rules and returns the schema for chaining.
func (s *Schema) WithReactions(reactions ...Reaction) *Schema {
	s.reactions = append(s.reactions, reactions...)
	return s
}

// WithHops appends hop rules and returns the schema for chaining. A later
// hop for the same species replaces an earlier one.
func (s *Schema) WithHops(hops ...Hop) *Schema {
	s.hops = append(s.hops, hops...)
	return s
}

// Species retrieves a species definition by name.
func (s *Schema) Species(name SpeciesName) (Species, bool) {
	for _, sp := range s.species {
		if sp.Name == name {
			return sp, true
		}
	}
	return Species{}, false
}

// SpeciesList returns the species in registration order.
func (s *Schema) SpeciesList() []Species {
	return append([]Species(nil), s.species...)
}

// Reactions returns all reaction rules in declaration order.
func (s *Schema) Reactions() []Reaction {
	return s.reactions
}

// ReactionsFor returns the rules in which species is the actor, in order.
func (s *Schema) ReactionsFor(species SpeciesName) []Reaction {
	var out []Reaction
	for _, r := range s.reactions {
		if r.Species == species {
			out = append(out, r)
		}
	}
	return out
}

// Hops returns all hop rules.
func (s *Schema) Hops() []Hop {
	return s.hops
}

// HopRate returns the effective hop rate of species, 0 when it has none.
func (s *Schema) HopRate(species SpeciesName) float64 {
	rate := 0.0
	for _, h := range s.hops {
		if h.Species == species {
			rate = h.Rate
		}
	}
	return rate
}

// Validate checks that every referenced species is registered, names are
// unique and rates are valid. All issues are reported together.
func (s *Schema) Validate() error {
	err := &ValidationError{}
	s.validate(err)
	return err.errOrNil()
}

func (s *Schema) validate(err *ValidationError) {
	known := make(map[SpeciesName]bool, len(s.species))
	if len(s.species) == 0 {
		err.Add(ErrUnknownSpecies, "schema %q registers no species", s.Name)
	}
	for i, sp := range s.species {
		switch {
		case sp.Name == "":
			err.Add(ErrDuplicateSpecies, "species at index %d has an empty name", i)
		case known[sp.Name]:
			err.Add(ErrDuplicateSpecies, "duplicate species name: %s", sp.Name)
		default:
			known[sp.Name] = true
		}
	}

	for i, r := range s.reactions {
		prefix := "reaction " + r.String()
		if _, ok := reactionKindNames[r.Kind]; !ok {
			err.Add(ErrInvalidReaction, "reaction at index %d: unknown kind %d", i, uint8(r.Kind))
			continue
		}
		if !known[r.Species] {
			err.Add(ErrUnknownSpecies, "%s: species '%s' does not exist", prefix, r.Species)
		}
		if r.Kind.Bimolecular() {
			if r.Prey == "" {
				err.Add(ErrInvalidReaction, "%s: prey species is required", prefix)
			} else if !known[r.Prey] {
				err.Add(ErrUnknownSpecies, "%s: prey species '%s' does not exist", prefix, r.Prey)
			}
		} else if r.Prey != "" {
			err.Add(ErrInvalidReaction, "%s: %s takes no prey", prefix, r.Kind)
		}
		if !validRate(r.Rate) {
			err.Add(ErrInvalidRate, "%s: rate must be a finite number >= 0, got %g", prefix, r.Rate)
		}
	}

	for _, h := range s.hops {
		if !known[h.Species] {
			err.Add(ErrUnknownSpecies, "hop: species '%s' does not exist", h.Species)
		}
		if !validRate(h.Rate) {
			err.Add(ErrInvalidRate, "hop of '%s': rate must be a finite number >= 0, got %g", h.Species, h.Rate)
		}
	}
}
