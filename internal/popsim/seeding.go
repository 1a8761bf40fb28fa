package popsim

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// seedDensities places the initial occupants. Sites are visited in flattened
// order and species in registration order.
//
//   - unbounded capacity: Poisson(rho) occupants per site;
//   - K == 1: at most one occupant per site, species j landing with
//     probability rho_j / (1 - sum of the densities before it) so that each
//     species keeps its marginal density;
//   - finite K > 1: Poisson(rho) truncated to the room left at the site.
func (w *World) seedDensities(densities map[SpeciesName]float64) error {
	if len(densities) == 0 {
		return nil
	}
	l := w.lattice
	rho := make([]float64, w.registry.len())
	total := 0.0
	for name, d := range densities {
		i, ok := w.registry.lookup(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
		}
		rho[i] = d
		total += d
	}
	if l.capacity > 0 && total > float64(l.capacity) {
		return fmt.Errorf("%w: densities sum to %g with K=%d", ErrCapacityExceeded, total, l.capacity)
	}

	for site := 0; site < l.Len(); site++ {
		if l.capacity == 1 {
			w.seedSingle(site, rho)
			continue
		}
		for sp, d := range rho {
			n := poisson(w.rng, d)
			if l.capacity > 0 {
				n = min(n, int(l.capacity-l.totals[site]))
			}
			for range n {
				l.inc(site, sp)
			}
		}
	}
	return nil
}

func (w *World) seedSingle(site int, rho []float64) {
	remaining := 1.0
	for sp, d := range rho {
		if d <= 0 {
			continue
		}
		if remaining > 0 && w.rng.Float64()*remaining < d {
			w.lattice.inc(site, sp)
			return
		}
		remaining -= d
	}
}

// poisson draws a Poisson variate by multiplying uniforms (Knuth). Large
// means are split into chunks so exp(-mean) stays representable.
func poisson(r *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	n := 0
	for mean > 30 {
		n += poisson(r, 30)
		mean -= 30
	}
	limit := math.Exp(-mean)
	p := 1.0
	for {
		p *= r.Float64()
		if p <= limit {
			return n
		}
		n++
	}
}
