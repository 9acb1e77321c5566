package nfa

import (
	"github.com/projectdiscovery/gologger"

	"github.com/coregx/automata"
	"github.com/coregx/automata/sets"
)

// usedSymbolsOf collects the symbols occurring in either automaton,
// excluding epsilon, as the working alphabet of inclusion checks invoked
// without an explicit alphabet.
func usedSymbolsOf(lhs, rhs *Nfa) []automata.Symbol {
	symbols := lhs.Delta.GetUsedSymbols()
	symbols.Union(rhs.Delta.GetUsedSymbols())
	if !symbols.Empty() && symbols.Back() == automata.Epsilon {
		symbols.PopBack()
	}
	return symbols.Slice()
}

// isIncludedNaive decides L(smaller) ⊆ L(bigger) as emptiness of
// L(smaller) ∩ L(bigger)^c, recovering the counterexample from the
// emptiness witness of the intersection.
func isIncludedNaive(smaller, bigger *Nfa, symbols []automata.Symbol) (bool, *Run) {
	biggerComplement := complementClassical(bigger, symbols, false)
	intersection := Intersection(smaller, biggerComplement, nil)
	empty, cex := intersection.IsLangEmpty()
	if empty {
		return true, nil
	}
	return false, cex
}

// antichainNode is a processed or scheduled pair (q, S) of the antichain
// exploration, with the parent link used for counterexample recovery.
type antichainNode struct {
	smallerState State
	biggerSet    StateSet
	parent       *antichainNode
	symbol       automata.Symbol
}

// isIncludedAntichains decides inclusion by forward exploration of pairs
// (q, S), q a state of smaller and S a macrostate of bigger. A pair is
// pruned when some visited (q, S') has S' ⊆ S. Inclusion fails iff a
// reachable pair has q final and S disjoint from bigger's final states.
func isIncludedAntichains(smaller, bigger *Nfa, _ []automata.Symbol) (bool, *Run) {
	biggerInitial := sets.NewOrdVector(bigger.Initial.Values()...)

	// visited[q] is the antichain of macrostates reached with q: no
	// element is a subset of another.
	visited := make(map[State][]*antichainNode)
	worklist := make([]*antichainNode, 0)

	violation := func(node *antichainNode) bool {
		return smaller.Final.Contains(node.smallerState) && !bigger.finalIntersects(node.biggerSet)
	}
	counterexample := func(node *antichainNode) *Run {
		var word automata.Word
		for n := node; n.parent != nil; n = n.parent {
			word = append(word, n.symbol)
		}
		for i, j := 0, len(word)-1; i < j; i, j = i+1, j-1 {
			word[i], word[j] = word[j], word[i]
		}
		return &Run{Word: word}
	}

	// schedule inserts the node unless subsumed, evicting the pairs it
	// subsumes.
	schedule := func(node *antichainNode) {
		chain := visited[node.smallerState]
		for _, present := range chain {
			if present.biggerSet.IsSubsetOf(node.biggerSet) {
				return
			}
		}
		kept := chain[:0]
		for _, present := range chain {
			if !node.biggerSet.IsSubsetOf(present.biggerSet) {
				kept = append(kept, present)
			}
		}
		visited[node.smallerState] = append(kept, node)
		worklist = append(worklist, node)
	}

	for _, q := range smaller.Initial.Values() {
		node := &antichainNode{smallerState: q, biggerSet: biggerInitial}
		if violation(node) {
			return false, counterexample(node)
		}
		schedule(node)
	}

	for len(worklist) > 0 {
		node := worklist[0]
		worklist = worklist[1:]

		for _, sp := range smaller.Delta.StatePost(node.smallerState) {
			biggerPost := bigger.PostOfSet(node.biggerSet, sp.Symbol)
			for _, target := range sp.Targets.Slice() {
				successor := &antichainNode{
					smallerState: target,
					biggerSet:    biggerPost,
					parent:       node,
					symbol:       sp.Symbol,
				}
				if violation(successor) {
					gologger.Debug().Msgf("inclusion: antichain found a violation at state %d", target)
					return false, counterexample(successor)
				}
				schedule(successor)
			}
		}
	}
	return true, nil
}

// IsIncluded decides L(smaller) ⊆ L(bigger). Recognized parameters:
// algorithm ∈ {naive, antichains}, default antichains. When the check
// fails, the returned run carries a counterexample word accepted by
// smaller and rejected by bigger. symbols may be nil; the used symbols of
// both automata then serve as the alphabet.
func IsIncluded(smaller, bigger *Nfa, symbols []automata.Symbol, params automata.ParameterMap) (bool, *Run, error) {
	if params == nil {
		params = automata.ParameterMap{"algorithm": "antichains"}
	}
	algorithm, err := automata.RequireParameter("is_included", params, "algorithm")
	if err != nil {
		return false, nil, err
	}
	if symbols == nil {
		symbols = usedSymbolsOf(smaller, bigger)
	}
	switch algorithm {
	case "naive":
		included, cex := isIncludedNaive(smaller, bigger, symbols)
		return included, cex, nil
	case "antichains":
		included, cex := isIncludedAntichains(smaller, bigger, symbols)
		return included, cex, nil
	default:
		return false, nil, &automata.ParameterError{Op: "is_included", Key: "algorithm", Value: algorithm}
	}
}

// AreEquivalent decides language equality as inclusion in both directions.
func AreEquivalent(lhs, rhs *Nfa, symbols []automata.Symbol, params automata.ParameterMap) (bool, error) {
	if symbols == nil {
		symbols = usedSymbolsOf(lhs, rhs)
	}
	included, _, err := IsIncluded(lhs, rhs, symbols, params)
	if err != nil || !included {
		return false, err
	}
	included, _, err = IsIncluded(rhs, lhs, symbols, params)
	return included, err
}

// IsUniversal decides whether the automaton accepts every word over the
// given symbols, i.e. whether Σ* is included in its language.
func IsUniversal(aut *Nfa, symbols []automata.Symbol, params automata.ParameterMap) (bool, *Run, error) {
	universal := New(1)
	universal.Initial.Insert(0)
	universal.Final.Insert(0)
	for _, sym := range symbols {
		universal.Delta.Add(0, sym, 0)
	}
	return IsIncluded(universal, aut, symbols, params)
}
