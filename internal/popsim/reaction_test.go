package popsim

import (
	"math"
	"testing"
)

func TestReaction_String(t *testing.T) {
	tests := []struct {
		reaction Reaction
		want     string
	}{
		{Birth("A", 0.5), "A -> 2A @0.5"},
		{Death("A", 0.1), "A -> 0 @0.1"},
		{Predation("A", "B", 1), "A + B -> A @1"},
		{PredationBirth("A", "B", 2), "A + B -> 2A @2"},
		{Reaction{Kind: 9, Species: "A", Rate: 1}, "ReactionKind(9)(A) @1"},
	}

	for _, tt := range tests {
		if got := tt.reaction.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestReactionKind_Bimolecular(t *testing.T) {
	for kind, want := range map[ReactionKind]bool{
		KindBirth:          false,
		KindDeath:          false,
		KindPredation:      true,
		KindPredationBirth: true,
	} {
		if got := kind.Bimolecular(); got != want {
			t.Errorf("%v.Bimolecular() = %v, want %v", kind, got, want)
		}
	}
}

func TestValidRate(t *testing.T) {
	for _, rate := range []float64{0, 0.5, 100} {
		if !validRate(rate) {
			t.Errorf("Expected %g to be a valid rate", rate)
		}
	}
	for _, rate := range []float64{-0.1, math.Inf(1), math.Inf(-1), math.NaN()} {
		if validRate(rate) {
			t.Errorf("Expected %g to be rejected", rate)
		}
	}
}
