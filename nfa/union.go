package nfa

// Uni adds the language of other to aut in place by renumbering other's
// states past aut's. Self-union is supported: other's state sets are
// snapshotted before aut grows.
func (aut *Nfa) Uni(other *Nfa) *Nfa {
	offset := State(aut.NumOfStates())
	shift := func(s State) State { return s + offset }

	otherStates := other.NumOfStates()
	otherInitial := append([]State(nil), other.Initial.Values()...)
	otherFinal := append([]State(nil), other.Final.Values()...)

	aut.Delta.Allocate(int(offset))
	aut.Delta.Append(other.Delta.RenumberTargets(shift))

	aut.Final.Reserve(offset + State(otherStates))
	for _, s := range otherFinal {
		aut.Final.Insert(shift(s))
	}
	aut.Initial.Reserve(offset + State(otherStates))
	for _, s := range otherInitial {
		aut.Initial.Insert(shift(s))
	}
	return aut
}

// Union returns a fresh automaton accepting L(lhs) ∪ L(rhs).
func Union(lhs, rhs *Nfa) *Nfa {
	return lhs.Clone().Uni(rhs)
}

// Concatenate returns a fresh automaton accepting L(lhs)·L(rhs): rhs is
// renumbered past lhs and every final state of lhs inherits the outgoing
// transitions of rhs's initial states. A final state of the result is a
// shifted final state of rhs, plus lhs's final states when rhs accepts
// the empty word.
func Concatenate(lhs, rhs *Nfa) *Nfa {
	result := lhs.Clone()
	offset := State(result.NumOfStates())
	shift := func(s State) State { return s + offset }

	result.Delta.Allocate(int(offset))
	result.Delta.Append(rhs.Delta.RenumberTargets(shift))

	rhsAcceptsEpsilon := false
	for _, s := range rhs.Initial.Values() {
		if rhs.Final.Contains(s) {
			rhsAcceptsEpsilon = true
		}
		for _, sp := range rhs.Delta.StatePost(s) {
			for _, target := range sp.Targets.Slice() {
				for _, lhsFinal := range lhs.Final.Values() {
					result.Delta.Add(lhsFinal, sp.Symbol, shift(target))
				}
			}
		}
	}

	if !rhsAcceptsEpsilon {
		result.Final.Clear()
	}
	for _, s := range rhs.Final.Values() {
		result.Final.Insert(shift(s))
	}
	return result
}
