package nfa

import (
	"github.com/coregx/automata"
	"github.com/coregx/automata/internal/simlib"
)

// computeFwDirectSimulation builds the labelled transition system of the
// automaton and runs the simulation solver on it. Each final state gets a
// self-loop over a fresh symbol so that final states cannot be simulated
// by non-final ones.
func computeFwDirectSimulation(aut *Nfa) *simlib.BinaryRelation {
	maxSymbol := aut.Delta.MaxSymbol()
	lts := simlib.NewExplicitLTS(aut.NumOfStates())

	for it := aut.Delta.Transitions(); it.Next(); {
		trans := it.Current()
		lts.AddTransition(uint32(trans.Source), uint32(trans.Symbol), uint32(trans.Target))
	}
	for _, final := range aut.Final.Values() {
		lts.AddTransition(uint32(final), uint32(maxSymbol)+1, uint32(final))
	}

	lts.Init()
	return lts.ComputeSimulation()
}

// ComputeRelation computes a binary relation over the states of aut.
// Recognized parameters: relation = simulation, direction = forward.
func ComputeRelation(aut *Nfa, params automata.ParameterMap) (*simlib.BinaryRelation, error) {
	relation, err := automata.RequireParameter("compute_relation", params, "relation")
	if err != nil {
		return nil, err
	}
	direction, err := automata.RequireParameter("compute_relation", params, "direction")
	if err != nil {
		return nil, err
	}
	if relation != "simulation" {
		return nil, &automata.ParameterError{Op: "compute_relation", Key: "relation", Value: relation}
	}
	if direction != "forward" {
		return nil, &automata.ParameterError{Op: "compute_relation", Key: "direction", Value: direction}
	}
	return computeFwDirectSimulation(aut), nil
}

// reduceSizeBySimulation quotients the automaton by mutual simulation.
// Representative states keep all outgoing transitions of their class with
// targets replaced by representatives, pruned by subsumption: a transition
// to representative s is dropped when a sibling representative p ≠ s
// simulates s.
func reduceSizeBySimulation(aut *Nfa, renaming map[State]State) *Nfa {
	result := New(0)
	result.Alphabet = aut.Alphabet

	simRelation, _ := ComputeRelation(aut, automata.ParameterMap{
		"relation":  "simulation",
		"direction": "forward",
	})

	symmetric := simRelation.Clone()
	symmetric.RestrictToSymmetric()

	numStates := aut.NumOfStates()
	quotientProjection := make([]uint32, numStates)
	symmetric.QuotientProjection(quotientProjection)

	// Map every state to the reduced state of its class, minting a state
	// the first time a representative is seen.
	classOf := make(map[State]State, numStates)
	for q := 0; q < numStates; q++ {
		representative := State(quotientProjection[q])
		if class, ok := classOf[representative]; ok {
			renaming[State(q)] = class
			continue
		}
		class := result.AddState()
		classOf[representative] = class
		renaming[representative] = class
		renaming[State(q)] = class
	}

	for q := 0; q < numStates; q++ {
		classState := renaming[State(q)]

		if aut.Initial.Contains(State(q)) {
			result.Initial.Insert(classState)
		}
		if State(quotientProjection[q]) != State(q) {
			// Only transitions of the representative matter for the
			// quotient under simulation.
			continue
		}

		for _, sp := range aut.Delta.StatePost(State(q)) {
			var targetRepresentatives StateSet
			for _, target := range sp.Targets.Slice() {
				targetRepresentatives.Insert(State(quotientProjection[target]))
			}

			// Drop the subsumed representatives.
			var classTargets StateSet
			for _, s := range targetRepresentatives.Slice() {
				important := true
				for _, p := range targetRepresentatives.Slice() {
					if s != p && simRelation.Get(int(s), int(p)) {
						important = false
						break
					}
				}
				if important {
					classTargets.Insert(renaming[s])
				}
			}
			if !classTargets.Empty() {
				result.Delta.MutableStatePost(classState).Insert(SymbolPost{
					Symbol:  sp.Symbol,
					Targets: classTargets,
				})
			}
		}

		if aut.Final.Contains(State(q)) {
			result.Final.Insert(classState)
		}
	}

	return result
}

// Reduce shrinks the automaton while preserving its language. Recognized
// parameters: algorithm ∈ {simulation, residual}; for residual also
// type ∈ {after, with} and direction ∈ {forward, backward}. When renaming
// is non-nil it receives the old-to-reduced state mapping (simulation
// only; residual states do not correspond to single source states).
func Reduce(aut *Nfa, renaming map[State]State, params automata.ParameterMap) (*Nfa, error) {
	if params == nil {
		params = automata.ParameterMap{"algorithm": "simulation"}
	}
	algorithm, err := automata.RequireParameter("reduce", params, "algorithm")
	if err != nil {
		return nil, err
	}
	switch algorithm {
	case "simulation":
		if renaming == nil {
			renaming = make(map[State]State)
		}
		return reduceSizeBySimulation(aut, renaming), nil
	case "residual":
		if value, ok := params["type"]; ok && value != "after" && value != "with" {
			return nil, &automata.ParameterError{Op: "reduce", Key: "type", Value: value}
		}
		direction := "forward"
		if value, ok := params["direction"]; ok {
			if value != "forward" && value != "backward" {
				return nil, &automata.ParameterError{Op: "reduce", Key: "direction", Value: value}
			}
			direction = value
		}
		return reduceResidual(aut, direction), nil
	default:
		return nil, &automata.ParameterError{Op: "reduce", Key: "algorithm", Value: algorithm}
	}
}
