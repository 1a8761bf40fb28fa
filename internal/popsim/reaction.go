package popsim

import (
	"fmt"
	"math"
)

// ReactionKind discriminates the elementary processes a species can undergo.
type ReactionKind uint8

const (
	// KindBirth spawns a new occupant of the acting species (A -> 2A).
	KindBirth ReactionKind = iota + 1
	// KindDeath removes the acting occupant (A -> 0).
	KindDeath
	// KindPredation removes one prey occupant (A + B -> A).
	KindPredation
	// KindPredationBirth removes one prey occupant and spawns a predator (A + B -> 2A).
	KindPredationBirth
)

var reactionKindNames = map[ReactionKind]string{
	KindBirth:          "birth",
	KindDeath:          "death",
	KindPredation:      "predation",
	KindPredationBirth: "predation_birth",
}

func (k ReactionKind) String() string {
	if name, ok := reactionKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ReactionKind(%d)", uint8(k))
}

// Bimolecular reports whether the kind involves a prey species.
func (k ReactionKind) Bimolecular() bool {
	return k == KindPredation || k == KindPredationBirth
}

// ParseReactionKind maps a config name ("birth", "death", "predation",
// "predation_birth") to its kind.
func ParseReactionKind(name string) (ReactionKind, bool) {
	for k, n := range reactionKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Reaction is one elementary process owned by its acting species. For the
// bimolecular kinds Species is the predator and Prey the victim.
type Reaction struct {
	Kind    ReactionKind
	Species SpeciesName
	Prey    SpeciesName
	Rate    float64
}

// Birth builds A -> 2A.
func Birth(species SpeciesName, rate float64) Reaction {
	return Reaction{Kind: KindBirth, Species: species, Rate: rate}
}

// Death builds A -> 0.
func Death(species SpeciesName, rate float64) Reaction {
	return Reaction{Kind: KindDeath, Species: species, Rate: rate}
}

// Predation builds A + B -> A.
func Predation(predator, prey SpeciesName, rate float64) Reaction {
	return Reaction{Kind: KindPredation, Species: predator, Prey: prey, Rate: rate}
}

// PredationBirth builds A + B -> 2A.
func PredationBirth(predator, prey SpeciesName, rate float64) Reaction {
	return Reaction{Kind: KindPredationBirth, Species: predator, Prey: prey, Rate: rate}
}

func (r Reaction) String() string {
	switch r.Kind {
	case KindBirth:
		return fmt.Sprintf("%s -> 2%s @%g", r.Species, r.Species, r.Rate)
	case KindDeath:
		return fmt.Sprintf("%s -> 0 @%g", r.Species, r.Rate)
	case KindPredation:
		return fmt.Sprintf("%s + %s -> %s @%g", r.Species, r.Prey, r.Species, r.Rate)
	case KindPredationBirth:
		return fmt.Sprintf("%s + %s -> 2%s @%g", r.Species, r.Prey, r.Species, r.Rate)
	}
	return fmt.Sprintf("%v(%s) @%g", r.Kind, r.Species, r.Rate)
}

// Hop lets occupants of Species move to a uniformly chosen neighbour site.
type Hop struct {
	Species SpeciesName
	Rate    float64
}

// FiringProbability converts a rate into the probability that the process
// fires for one occupant within one Monte Carlo step, 1 - exp(-rate).
func FiringProbability(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return -math.Expm1(-rate)
}

func validRate(rate float64) bool {
	return rate >= 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}

// rule is a reaction resolved against the registry.
type rule struct {
	kind ReactionKind
	prey int
	prob float64
}

// speciesRules is everything the step algorithm needs for one species.
// Unimolecular rules precede bimolecular ones; each group keeps declaration
// order. Zero-rate processes are dropped so they consume no random draws.
type speciesRules struct {
	hopProb float64
	rules   []rule
}

func compileRules(reg *registry, s *Schema) []speciesRules {
	out := make([]speciesRules, reg.len())
	for _, h := range s.hops {
		if i, ok := reg.lookup(h.Species); ok {
			out[i].hopProb = FiringProbability(h.Rate)
		}
	}
	for _, bimolecular := range []bool{false, true} {
		for _, r := range s.reactions {
			if r.Kind.Bimolecular() != bimolecular || r.Rate == 0 {
				continue
			}
			actor, _ := reg.lookup(r.Species)
			prey := -1
			if bimolecular {
				prey, _ = reg.lookup(r.Prey)
			}
			out[actor].rules = append(out[actor].rules, rule{
				kind: r.Kind,
				prey: prey,
				prob: FiringProbability(r.Rate),
			})
		}
	}
	return out
}
