package nfa

import (
	"fmt"

	"github.com/coregx/automata"
	"github.com/coregx/automata/sets"
)

// complementClassical determinizes (or Brzozowski-minimizes), completes
// with a sink and swaps final and non-final states. When determinization
// already produced the empty macrostate, that state is reused as the sink.
func complementClassical(aut *Nfa, symbols []automata.Symbol, minimizeDuringDeterminization bool) *Nfa {
	var result *Nfa
	var sink State
	if minimizeDuringDeterminization {
		result = MinimizeBrzozowski(aut)
		if result.Final.Empty() && !result.Initial.Empty() {
			// A minimal automaton with an empty language has a single
			// (initial) state, which can serve as the sink directly.
			sink = result.Initial.Values()[0]
		} else {
			sink = State(result.NumOfStates())
		}
	} else {
		subsetMap := NewSubsetMap()
		result = Determinize(aut, subsetMap)
		if existing, ok := subsetMap.Get(sets.NewOrdVector[State]()); ok {
			sink = existing
		} else {
			sink = State(result.NumOfStates())
		}
	}

	result.MakeComplete(symbols, sink)
	result.Final.Complement(State(result.NumOfStates()))
	return result
}

// Complement builds an automaton for the complement language over the
// given alphabet symbols. Recognized parameters: algorithm ∈ {classical}
// (default) and minimize ∈ {true, false}; minimize=true swaps the inner
// determinization for Brzozowski minimization. An explicit alphabet is
// required; without one the operation is not well-defined.
func Complement(aut *Nfa, symbols []automata.Symbol, params automata.ParameterMap) (*Nfa, error) {
	if params == nil {
		params = automata.ParameterMap{"algorithm": "classical"}
	}
	algorithm, err := automata.RequireParameter("complement", params, "algorithm")
	if err != nil {
		return nil, err
	}
	if algorithm != "classical" {
		return nil, &automata.ParameterError{Op: "complement", Key: "algorithm", Value: algorithm}
	}

	minimizeDuringDeterminization := false
	if value, ok := params["minimize"]; ok {
		switch value {
		case "true":
			minimizeDuringDeterminization = true
		case "false":
		default:
			return nil, &automata.ParameterError{Op: "complement", Key: "minimize", Value: value}
		}
	}
	for key := range params {
		if key != "algorithm" && key != "minimize" {
			return nil, &automata.ParameterError{Op: "complement", Key: key, Value: params[key]}
		}
	}

	return complementClassical(aut, symbols, minimizeDuringDeterminization), nil
}

// ComplementWithAlphabet is Complement over the symbols of alphabet.
func ComplementWithAlphabet(aut *Nfa, alphabet automata.Alphabet, params automata.ParameterMap) (*Nfa, error) {
	if alphabet == nil {
		return nil, fmt.Errorf("complement: %w: an explicit alphabet is required", automata.ErrAlphabetMismatch)
	}
	return Complement(aut, alphabet.Symbols(), params)
}
