package popsim

// SpeciesName is the name/identifier of a species.
type SpeciesName string

// Species describes one population living on the lattice.
// Description and Meta are informational; only Name takes part in the simulation.
type Species struct {
	Name        SpeciesName
	Description string
	Meta        map[string]any
}

// registry maps species names to the index of the occupancy counter they own.
// Indices follow registration order and never change.
type registry struct {
	species []Species
	index   map[SpeciesName]int
}

func newRegistry(species []Species) *registry {
	r := &registry{
		species: make([]Species, 0, len(species)),
		index:   make(map[SpeciesName]int, len(species)),
	}
	for _, sp := range species {
		if _, dup := r.index[sp.Name]; dup {
			continue
		}
		r.index[sp.Name] = len(r.species)
		r.species = append(r.species, sp)
	}
	return r
}

func (r *registry) lookup(name SpeciesName) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

func (r *registry) len() int { return len(r.species) }

func (r *registry) names() []SpeciesName {
	out := make([]SpeciesName, len(r.species))
	for i, sp := range r.species {
		out[i] = sp.Name
	}
	return out
}
