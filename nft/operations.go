package nft

import (
	"fmt"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
)

// RemoveEpsilon eliminates epsilon transitions. Levels and the level count
// carry over; state identities are preserved.
func RemoveEpsilon(aut *Nft) *Nft {
	result := nfa.RemoveEpsilon(&aut.Nfa, automata.Epsilon)
	return &Nft{Nfa: *result, Levels: aut.Levels.Clone(), NumOfLevels: aut.NumOfLevels}
}

// Revert reverses all transitions and swaps the initial and final sets.
// State identities are preserved, so levels carry over unchanged.
func Revert(aut *Nft) *Nft {
	result := nfa.Revert(&aut.Nfa)
	return &Nft{Nfa: *result, Levels: aut.Levels.Clone(), NumOfLevels: aut.NumOfLevels}
}

// Determinize runs the subset construction. Macrostates live at level 0;
// the level count carries over.
func Determinize(aut *Nft, subsetMap *nfa.SubsetMap) *Nft {
	result := nfa.Determinize(&aut.Nfa, subsetMap)
	det := &Nft{Nfa: *result, NumOfLevels: aut.NumOfLevels}
	det.syncLevels()
	return det
}

// MinimizeBrzozowski computes the minimal deterministic automaton as
// determinize(revert(determinize(revert(aut)))).
func MinimizeBrzozowski(aut *Nft) *Nft {
	return Determinize(Revert(Determinize(Revert(aut), nil)), nil)
}

// Minimize dispatches on params. Recognized: algorithm ∈ {brzozowski}.
func Minimize(aut *Nft, params automata.ParameterMap) (*Nft, error) {
	if params == nil {
		params = automata.ParameterMap{"algorithm": "brzozowski"}
	}
	algorithm, err := automata.RequireParameter("minimize", params, "algorithm")
	if err != nil {
		return nil, err
	}
	if algorithm != "brzozowski" {
		return nil, &automata.ParameterError{Op: "minimize", Key: "algorithm", Value: algorithm}
	}
	return MinimizeBrzozowski(aut), nil
}

// Complement complements over the given symbols through the embedded
// classical construction: determinize (or Brzozowski-minimize), complete
// with a sink, swap final and non-final. Parameters as for nfa.Complement.
func Complement(aut *Nft, symbols []automata.Symbol, params automata.ParameterMap) (*Nft, error) {
	result, err := nfa.Complement(&aut.Nfa, symbols, params)
	if err != nil {
		return nil, err
	}
	complemented := &Nft{Nfa: *result, NumOfLevels: aut.NumOfLevels}
	complemented.syncLevels()
	return complemented, nil
}

// workingSymbols picks the alphabet of a binary language check: the given
// symbols, or the used symbols of both sides with DONT_CARE dropped when
// concrete symbols exist.
func workingSymbols(lhs, rhs *Nft, symbols []automata.Symbol) []automata.Symbol {
	if symbols != nil {
		return symbols
	}
	used := lhs.Delta.GetUsedSymbols()
	used.Union(rhs.Delta.GetUsedSymbols())
	if !used.Empty() && used.Back() == automata.Epsilon {
		used.PopBack()
	}
	if used.Contains(automata.DontCare) && used.Len() > 1 {
		used.Erase(automata.DontCare)
	}
	return used.Slice()
}

// IsIncluded decides inclusion of the transducer relations. Jump
// transitions and DONT_CARE labels are first expanded away by the
// one-level construction; the check then runs on the embedded automata.
// Parameters as for nfa.IsIncluded. The level counts must agree.
func IsIncluded(smaller, bigger *Nft, symbols []automata.Symbol,
	jumpMode JumpMode, params automata.ParameterMap) (bool, *nfa.Run, error) {
	if smaller.NumOfLevels != bigger.NumOfLevels {
		return false, nil, fmt.Errorf("is_included: %w: %d levels vs %d levels",
			automata.ErrLevelMismatch, smaller.NumOfLevels, bigger.NumOfLevels)
	}
	working := workingSymbols(smaller, bigger, symbols)
	smallerOneLevel := smaller.GetOneLevelAut(working, jumpMode)
	biggerOneLevel := bigger.GetOneLevelAut(working, jumpMode)
	return nfa.IsIncluded(&smallerOneLevel.Nfa, &biggerOneLevel.Nfa, working, params)
}

// AreEquivalent decides equality of the transducer relations as inclusion
// in both directions over the one-level expansions.
func AreEquivalent(lhs, rhs *Nft, symbols []automata.Symbol,
	jumpMode JumpMode, params automata.ParameterMap) (bool, error) {
	if lhs.NumOfLevels != rhs.NumOfLevels {
		return false, fmt.Errorf("are_equivalent: %w: %d levels vs %d levels",
			automata.ErrLevelMismatch, lhs.NumOfLevels, rhs.NumOfLevels)
	}
	working := workingSymbols(lhs, rhs, symbols)
	lhsOneLevel := lhs.GetOneLevelAut(working, jumpMode)
	rhsOneLevel := rhs.GetOneLevelAut(working, jumpMode)
	return nfa.AreEquivalent(&lhsOneLevel.Nfa, &rhsOneLevel.Nfa, working, params)
}

// Reduce shrinks the transducer by simulation quotienting. Levels of the
// reduced states follow their class representatives. Parameters as for
// nfa.Reduce.
func Reduce(aut *Nft, renaming map[nfa.State]nfa.State, params automata.ParameterMap) (*Nft, error) {
	if algorithm, ok := params["algorithm"]; ok && algorithm != "simulation" {
		// Residual states have no single-source correspondence to carry
		// levels through; only the simulation quotient applies here.
		return nil, &automata.ParameterError{Op: "reduce", Key: "algorithm", Value: algorithm}
	}
	if renaming == nil {
		renaming = make(map[nfa.State]nfa.State)
	}
	result, err := nfa.Reduce(&aut.Nfa, renaming, params)
	if err != nil {
		return nil, err
	}
	reduced := &Nft{Nfa: *result, NumOfLevels: aut.NumOfLevels}
	// Ascending order reaches each class first at its smallest state, the
	// class representative.
	assigned := make(map[nfa.State]bool)
	for old := 0; old < aut.NumOfStates(); old++ {
		class, ok := renaming[nfa.State(old)]
		if !ok || assigned[class] {
			continue
		}
		assigned[class] = true
		reduced.Levels.Set(class, aut.Levels.Get(nfa.State(old)))
	}
	reduced.syncLevels()
	return reduced, nil
}

// Uni adds the relation of other to aut in place, renumbering other's
// states past aut's. Self-union is supported. The level counts must agree.
func (aut *Nft) Uni(other *Nft) (*Nft, error) {
	if aut.NumOfLevels != other.NumOfLevels {
		return nil, fmt.Errorf("uni: %w: %d levels vs %d levels",
			automata.ErrLevelMismatch, aut.NumOfLevels, other.NumOfLevels)
	}
	otherLevels := other.Levels.Clone()
	offset := nfa.State(aut.NumOfStates())
	aut.Nfa.Uni(&other.Nfa)
	for s, level := range otherLevels {
		aut.Levels.Set(offset+nfa.State(s), level)
	}
	aut.syncLevels()
	return aut, nil
}

// Union returns a fresh transducer accepting the union of the relations.
func Union(lhs, rhs *Nft) (*Nft, error) {
	return lhs.Clone().Uni(rhs)
}
