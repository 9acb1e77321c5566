package nfa

// canonicalResidual builds the canonical residual automaton of aut: the
// states are the prime macrostates of the subset construction (those not
// expressible as a union of smaller reachable macrostates), a prime is
// initial when covered by the initial macrostate and final when it meets
// the final set, and transitions go to every prime covered by the subset
// target. The language is preserved.
func canonicalResidual(aut *Nfa) *Nfa {
	subsetMap := NewSubsetMap()
	det := Determinize(aut, subsetMap)
	entries := subsetMap.Entries()

	// A macrostate is composed when the union of the strictly smaller
	// reachable macrostates it covers adds up to the whole of it.
	prime := make([]bool, len(entries))
	for i, entry := range entries {
		if entry.Subset.Empty() {
			continue
		}
		var union StateSet
		for j, other := range entries {
			if j == i || other.Subset.Len() >= entry.Subset.Len() {
				continue
			}
			if other.Subset.IsSubsetOf(entry.Subset) {
				union.Union(other.Subset)
			}
		}
		prime[i] = !union.Equal(entry.Subset)
	}

	// Renumber the primes densely in subset-state order.
	primeState := make([]State, len(entries))
	result := New(0)
	result.Alphabet = aut.Alphabet
	for i, entry := range entries {
		if !prime[i] {
			primeState[i] = MaxState
			continue
		}
		primeState[i] = result.AddState()
		if det.Final.Contains(entry.State) {
			result.Final.Insert(primeState[i])
		}
	}

	initial := initialMacrostate(aut)
	for i, entry := range entries {
		if prime[i] && entry.Subset.IsSubsetOf(initial) {
			result.Initial.Insert(primeState[i])
		}
	}

	for i, entry := range entries {
		if !prime[i] {
			continue
		}
		for _, sp := range det.Delta.StatePost(entry.State) {
			for _, target := range sp.Targets.Slice() {
				targetSubset := entries[target].Subset
				for j, candidate := range entries {
					if prime[j] && !candidate.Subset.Empty() && candidate.Subset.IsSubsetOf(targetSubset) {
						result.Delta.Add(primeState[i], sp.Symbol, primeState[j])
					}
				}
			}
		}
	}
	return result
}

func initialMacrostate(aut *Nfa) StateSet {
	var initial StateSet
	for _, s := range aut.Initial.Values() {
		initial.Insert(s)
	}
	return initial
}

// reduceResidual is the residual reduction: the canonical residual
// automaton, computed forward or on the reverted automaton. The type knob
// selects when primes are identified (after full determinization, or
// interleaved with it); both strategies produce the canonical result here.
func reduceResidual(aut *Nfa, direction string) *Nfa {
	if direction == "backward" {
		return Revert(canonicalResidual(Revert(aut)))
	}
	return canonicalResidual(aut)
}
