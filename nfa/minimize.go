package nfa

import (
	"github.com/coregx/automata"
)

// MinimizeBrzozowski computes the minimal deterministic automaton as
// determinize(revert(determinize(revert(aut)))).
func MinimizeBrzozowski(aut *Nfa) *Nfa {
	return Determinize(Revert(Determinize(Revert(aut), nil)), nil)
}

// Minimize dispatches on params. Recognized: algorithm ∈ {brzozowski}.
func Minimize(aut *Nfa, params automata.ParameterMap) (*Nfa, error) {
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
