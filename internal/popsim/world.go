package popsim

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// WorldID is a unique identifier for a world within a manager.
type WorldID string

// pcgStream is the second PCG seed word; only the first word varies per world.
const pcgStream = 0x9e3779b97f4a7c15

// Config holds the construction options of a world that are not part of its
// schema.
type Config struct {
	ID     WorldID
	Width  int
	Height int
	// InitialDensities is the mean number of occupants per site for each
	// species, drawn independently per site at construction.
	InitialDensities map[SpeciesName]float64
	// CarryingCapacity bounds the total occupants of a site. 0 means
	// unbounded; 1 switches to single-occupancy neighbour interactions.
	CarryingCapacity int
	Seed             uint64
}

// World owns the lattice, the species registry and the compiled rules of one
// simulation, and is the only place occupancy changes during stepping.
type World struct {
	mu       sync.RWMutex
	id       WorldID
	schema   *Schema
	registry *registry
	lattice  *Lattice
	rules    []speciesRules
	rng      *rand.Rand
	seed     uint64
	steps    int64

	// scratch buffers reused by every step
	units   []unit
	pending []uint32

	logger        Logger
	notifier      *NotificationManager
	notifyCfg     NotificationConfig
	snapshotDir   string
	snapshotEvery int64

	stopCh    chan struct{}
	isRunning bool
}

// NewWorld validates schema and cfg, builds the lattice and seeds it from
// cfg.InitialDensities. On error no world is returned.
func NewWorld(schema *Schema, cfg Config) (*World, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrUnknownSpecies)
	}
	verr := &ValidationError{}
	schema.validate(verr)
	validateConfig(schema, cfg, verr)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	reg := newRegistry(schema.species)
	lat := newLattice(cfg.Width, cfg.Height, reg.len(), uint32(cfg.CarryingCapacity))
	w := &World{
		id:       cfg.ID,
		schema:   schema,
		registry: reg,
		lattice:  lat,
		rules:    compileRules(reg, schema),
		rng:      rand.New(rand.NewPCG(cfg.Seed, pcgStream)),
		seed:     cfg.Seed,
		pending:  make([]uint32, len(lat.counts)),
		logger:   NewNoOpLogger(),
		stopCh:   make(chan struct{}),
	}
	if err := w.seedDensities(cfg.InitialDensities); err != nil {
		return nil, err
	}
	return w, nil
}

func validateConfig(schema *Schema, cfg Config, err *ValidationError) {
	if cfg.Width < 1 || cfg.Height < 1 {
		err.Add(ErrInvalidSize, "lattice size must be at least 1x1, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.CarryingCapacity < 0 {
		err.Add(ErrInvalidCapacity, "carrying capacity must be >= 0 (0 = unbounded), got %d", cfg.CarryingCapacity)
	}
	total := 0.0
	for name, rho := range cfg.InitialDensities {
		if _, ok := schema.Species(name); !ok {
			err.Add(ErrUnknownSpecies, "initial density: species '%s' does not exist", name)
		}
		if !validRate(rho) {
			err.Add(ErrInvalidDensity, "initial density of '%s' must be a finite number >= 0, got %g", name, rho)
			continue
		}
		total += rho
	}
	if cfg.CarryingCapacity > 0 && total > float64(cfg.CarryingCapacity) {
		err.Add(ErrCapacityExceeded, "initial densities sum to %g, more than carrying capacity %d", total, cfg.CarryingCapacity)
	}
}

// ID returns the world identifier.
func (w *World) ID() WorldID {
	return w.id
}

// SetID sets the world identifier.
func (w *World) SetID(id WorldID) {
	w.mu.Lock()
	w.id = id
	w.mu.Unlock()
}

// SetLogger replaces the world's logger; nil restores the no-op logger.
func (w *World) SetLogger(l Logger) {
	if l == nil {
		l = NewNoOpLogger()
	}
	w.mu.Lock()
	w.logger = l
	w.mu.Unlock()
}

// Schema returns the schema the world was built from.
func (w *World) Schema() *Schema {
	return w.schema
}

// Seed returns the seed the world's generator started from.
func (w *World) Seed() uint64 {
	return w.seed
}

// Lattice exposes the occupancy store for read access. It must not be read
// concurrently with Step.
func (w *World) Lattice() *Lattice {
	return w.lattice
}

// Sites returns every lattice site in flattened order.
func (w *World) Sites() []Site {
	return w.lattice.Sites()
}

// Species returns the registered species names in registration order.
func (w *World) Species() []SpeciesName {
	return w.registry.names()
}

// CarryingCapacity returns K, 0 when unbounded.
func (w *World) CarryingCapacity() int {
	return w.lattice.Capacity()
}

// NeighborMode reports whether interactions act across adjacent sites,
// which is the case for single-occupancy lattices (K == 1).
func (w *World) NeighborMode() bool {
	return w.lattice.capacity == 1
}

// StepCount returns the number of completed Monte Carlo steps.
func (w *World) StepCount() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.steps
}

// CreateOccupant places one occupant of species at site. It fails with
// ErrCapacityExceeded when the site is already full and leaves the lattice
// unchanged.
func (w *World) CreateOccupant(species SpeciesName, site Site) error {
	sp, ok := w.registry.lookup(species)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSpecies, species)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lattice.Add(site, sp, 1)
}

// SiteCount returns the occupants of species at site.
func (w *World) SiteCount(species SpeciesName, site Site) (uint32, error) {
	sp, ok := w.registry.lookup(species)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSpecies, species)
	}
	if !w.lattice.Contains(site) {
		return 0, fmt.Errorf("%w: %v", ErrSiteOutOfRange, site)
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lattice.SiteCount(site, sp), nil
}

// AsArrays returns, for each species, a copy of its occupancy shaped
// [height][width]. It never mutates the world.
func (w *World) AsArrays() map[SpeciesName]Grid {
	w.mu.RLock()
	grids := w.lattice.Snapshot()
	w.mu.RUnlock()
	out := make(map[SpeciesName]Grid, len(grids))
	for i, sp := range w.registry.species {
		out[sp.Name] = grids[i]
	}
	return out
}

// Abundances returns the total number of occupants of each species.
func (w *World) Abundances() map[SpeciesName]uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.abundancesLocked()
}

func (w *World) abundancesLocked() map[SpeciesName]uint64 {
	out := make(map[SpeciesName]uint64, w.registry.len())
	for i, sp := range w.registry.species {
		out[sp.Name] = w.lattice.abundance[i]
	}
	return out
}

// TotalOccupants returns the number of occupants of all species.
func (w *World) TotalOccupants() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var n uint64
	for _, a := range w.lattice.abundance {
		n += a
	}
	return n
}
