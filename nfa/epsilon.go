package nfa

import (
	"github.com/coregx/automata"
)

// EpsilonClosure computes, for every state, the set of states reachable
// through transitions over epsilon alone, as the least fixpoint of
// closure[s] = {s} ∪ ⋃ closure[t] over s -ε-> t.
func EpsilonClosure(aut *Nfa, epsilon automata.Symbol) []StateSet {
	numStates := aut.NumOfStates()
	closure := make([]StateSet, numStates)
	for s := 0; s < numStates; s++ {
		closure[s].Insert(State(s))
	}

	changed := true
	for changed {
		changed = false
		for s := 0; s < numStates; s++ {
			post := aut.Delta.StatePost(State(s))
			pos, found := post.Find(epsilon)
			if !found {
				continue
			}
			for _, target := range post[pos].Targets.Slice() {
				if !closure[target].IsSubsetOf(closure[s]) {
					closure[s].Union(closure[target])
					changed = true
				}
			}
		}
	}
	return closure
}

// RemoveEpsilon eliminates transitions over epsilon. The result shares the
// initial set; a state becomes final when its closure meets the original
// final set, and inherits every non-epsilon transition of its closure.
func RemoveEpsilon(aut *Nfa, epsilon automata.Symbol) *Nfa {
	closure := EpsilonClosure(aut, epsilon)

	result := New(aut.NumOfStates())
	result.Alphabet = aut.Alphabet
	result.Initial = aut.Initial.Clone()
	result.Final = aut.Final.Clone()

	for source := range closure {
		for _, closureState := range closure[source].Slice() {
			if aut.Final.Contains(closureState) {
				result.Final.Insert(State(source))
			}
			for _, sp := range aut.Delta.StatePost(closureState) {
				if sp.Symbol == epsilon {
					continue
				}
				for _, target := range sp.Targets.Slice() {
					result.Delta.Add(State(source), sp.Symbol, target)
				}
			}
		}
	}
	return result
}
