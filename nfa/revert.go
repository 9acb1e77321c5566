package nfa

import (
	"github.com/coregx/automata"
	"github.com/coregx/automata/sets"
)

// Revert reverses all transitions and swaps the initial and final sets.
// Three internal strategies share these semantics; the exported entry
// point picks one from a symbol-density heuristic and defaults to the
// simple variant.
func Revert(aut *Nfa) *Nfa {
	if fragileRevertApplicable(aut) {
		return fragileRevert(aut)
	}
	return simpleRevert(aut)
}

// fragileRevertApplicable guards the bucket-array strategy: it allocates
// two arrays of length max-symbol+1, which is only acceptable when the
// used symbols are dense.
func fragileRevertApplicable(aut *Nfa) bool {
	symbols := aut.Delta.GetUsedSymbols()
	if symbols.Empty() {
		return false
	}
	maxSym := symbols.Back()
	if maxSym == automata.Epsilon && symbols.Len() > 1 {
		maxSym = symbols.Slice()[symbols.Len()-2]
	}
	if maxSym >= automata.DontCare {
		return false
	}
	numTransitions := aut.Delta.NumOfTransitions()
	return int(maxSym) <= 1<<16 || int(maxSym) <= 4*numTransitions
}

// simpleRevert adds each reversed transition one by one.
func simpleRevert(aut *Nfa) *Nfa {
	result := New(aut.NumOfStates())
	result.Alphabet = aut.Alphabet
	result.Initial = aut.Final.Clone()
	result.Final = aut.Initial.Clone()

	for source := 0; source < aut.Delta.NumOfStates(); source++ {
		for _, sp := range aut.Delta.StatePost(State(source)) {
			for _, target := range sp.Targets.Slice() {
				result.Delta.Add(target, sp.Symbol, State(source))
			}
		}
	}
	return result
}

// fragileRevert buckets transitions by symbol into arrays sized by the
// largest used symbol, enabling ordered batch append. Epsilon transitions
// are kept outside the arrays so their maximal code does not dictate the
// array length. Must not be used when symbols are sparse and large.
func fragileRevert(aut *Nfa) *Nfa {
	numStates := aut.NumOfStates()
	result := New(numStates)
	result.Alphabet = aut.Alphabet
	result.Initial = aut.Final.Clone()
	result.Final = aut.Initial.Clone()

	symbols := aut.Delta.GetUsedSymbols()
	if symbols.Empty() {
		return result
	}
	if symbols.Back() == automata.Epsilon {
		symbols.PopBack()
	}
	var alphaSize automata.Symbol
	if !symbols.Empty() {
		alphaSize = symbols.Back() + 1
	}

	sources := make([][]State, alphaSize)
	targets := make([][]State, alphaSize)
	var epsSources, epsTargets []State

	// Because rows are visited in source order, every bucket ends up
	// sorted by source, which below become the targets of the reverse.
	for source := 0; source < aut.Delta.NumOfStates(); source++ {
		for _, sp := range aut.Delta.StatePost(State(source)) {
			if sp.Symbol == automata.Epsilon {
				for _, target := range sp.Targets.Slice() {
					epsSources = append(epsSources, State(source))
					epsTargets = append(epsTargets, target)
				}
				continue
			}
			for _, target := range sp.Targets.Slice() {
				sources[sp.Symbol] = append(sources[sp.Symbol], State(source))
				targets[sp.Symbol] = append(targets[sp.Symbol], target)
			}
		}
	}

	appendReversed := func(symbol automata.Symbol, bucketSources, bucketTargets []State) {
		for i := range bucketSources {
			tgt := bucketSources[i]
			src := bucketTargets[i]
			post := result.Delta.MutableStatePost(src)
			if n := len(*post); n == 0 || (*post)[n-1].Symbol != symbol {
				post.PushBack(SymbolPost{Symbol: symbol})
			}
			(*post)[len(*post)-1].Targets.PushBack(tgt)
		}
	}

	for _, symbol := range symbols.Slice() {
		appendReversed(symbol, sources[symbol], targets[symbol])
	}
	appendReversed(automata.Epsilon, epsSources, epsTargets)
	return result
}

// somewhatSimpleRevert is the middle-ground strategy: per-row find, then an
// ordered insert into the located SymbolPost (or a new SymbolPost when the
// symbol is absent).
func somewhatSimpleRevert(aut *Nfa) *Nfa {
	numStates := aut.NumOfStates()
	result := New(numStates)
	result.Alphabet = aut.Alphabet
	result.Initial = aut.Final.Clone()
	result.Final = aut.Initial.Clone()

	for source := 0; source < aut.Delta.NumOfStates(); source++ {
		for _, sp := range aut.Delta.StatePost(State(source)) {
			for _, target := range sp.Targets.Slice() {
				post := result.Delta.MutableStatePost(target)
				pos, found := post.Find(sp.Symbol)
				if !found {
					post.Insert(SymbolPost{Symbol: sp.Symbol, Targets: sets.NewOrdVector(State(source))})
				} else {
					(*post)[pos].Targets.Insert(State(source))
				}
			}
		}
	}
	return result
}
