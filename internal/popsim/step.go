package popsim

// unit is one occupant-unit enumerated at the start of a step.
type unit struct {
	site    int32
	species int32
}

// Step advances the world by exactly one Monte Carlo step.
//
// Every occupant-unit present when the step starts is visited once, in an
// order shuffled uniformly at random. A visited unit first tries to hop, then
// runs its species' unimolecular rules, then its bimolecular rules, each
// firing with probability 1-exp(-rate). Attempts that would break the
// capacity limit or find no prey are no-ops.
//
// Random draws are consumed in this order: one shuffle of the unit list;
// then per unit the hop trial and, if it fired, the hop direction; then per
// rule the neighbour direction (neighbour mode only), the rule trial (only
// when the rule can act) and, when a prey unit is removed from a site where
// some but not all of its units are still waiting for their turn, the draw
// that decides whether a waiting unit was the one consumed.
func (w *World) Step() {
	w.step()
}

func (w *World) step() StepEvent {
	w.mu.Lock()
	w.advance()
	w.steps++
	ev := w.stepEventLocked()
	w.mu.Unlock()

	w.afterStep(ev)
	return ev
}

func (w *World) advance() {
	l := w.lattice
	ns := l.nspecies

	units := w.units[:0]
	for cell, c := range l.counts {
		for range c {
			units = append(units, unit{site: int32(cell / ns), species: int32(cell % ns)})
		}
	}
	copy(w.pending, l.counts)

	w.rng.Shuffle(len(units), func(i, j int) {
		units[i], units[j] = units[j], units[i]
	})
	for _, u := range units {
		w.evaluate(int(u.site), int(u.species))
	}
	w.units = units[:0]
}

// evaluate runs every process of one occupant-unit.
func (w *World) evaluate(site, sp int) {
	l := w.lattice
	cell := site*l.nspecies + sp
	if w.pending[cell] == 0 {
		// consumed by a predator before its turn
		return
	}
	w.pending[cell]--

	sr := &w.rules[sp]
	if sr.hopProb > 0 && w.rng.Float64() < sr.hopProb {
		dest := int(l.neighbors[site][w.rng.IntN(4)])
		if dest != site && l.hasRoom(dest) {
			l.move(site, dest, sp)
			site = dest
		}
	}

	neighborMode := l.capacity == 1
	for _, r := range sr.rules {
		switch r.kind {
		case KindBirth:
			target := site
			if neighborMode {
				target = w.randomNeighbor(site)
			}
			if w.rng.Float64() < r.prob && l.hasRoom(target) {
				l.inc(target, sp)
			}

		case KindDeath:
			if w.rng.Float64() < r.prob {
				l.dec(site, sp)
				return
			}

		case KindPredation, KindPredationBirth:
			target := site
			if neighborMode {
				target = w.randomNeighbor(site)
			}
			available := l.count(target, r.prey)
			if r.prey == sp && target == site {
				// the actor cannot be its own prey
				available--
			}
			if available == 0 {
				continue
			}
			if w.rng.Float64() >= r.prob {
				continue
			}
			// In same-site mode the offspring needs a free slot before the
			// prey leaves; in neighbour mode it takes the prey's slot.
			if r.kind == KindPredationBirth && !neighborMode && !l.hasRoom(target) {
				continue
			}
			w.consume(target, r.prey, available)
			if r.kind == KindPredationBirth {
				l.inc(target, sp)
			}
		}
	}
}

func (w *World) randomNeighbor(site int) int {
	return int(w.lattice.neighbors[site][w.rng.IntN(4)])
}

// consume removes one occupant of species at site, chosen uniformly among the
// available ones. If it was a unit still waiting for its turn, that unit will
// be skipped.
func (w *World) consume(site, species int, available uint32) {
	cell := site*w.lattice.nspecies + species
	if p := w.pending[cell]; p > 0 {
		if p >= available || uint32(w.rng.IntN(int(available))) < p {
			w.pending[cell]--
		}
	}
	w.lattice.dec(site, species)
}
