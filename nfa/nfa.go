package nfa

import (
	"fmt"

	"github.com/coregx/automata"
	"github.com/coregx/automata/sets"
)

// Nfa is a nondeterministic finite automaton: a transition store plus the
// initial and final state sets. The alphabet reference is non-owning; the
// caller keeps it alive for operations that read it.
//
// An Nfa is exclusively owned: algorithms never share one mutably, and
// Clone performs a deep copy.
type Nfa struct {
	Delta    Delta
	Initial  *sets.SparseSet[State]
	Final    *sets.SparseSet[State]
	Alphabet automata.Alphabet
}

// New creates an empty automaton with capacity for numStates states.
func New(numStates int) *Nfa {
	aut := &Nfa{
		Initial: sets.NewSparseSet[State](),
		Final:   sets.NewSparseSet[State](),
	}
	aut.Delta.Allocate(numStates)
	return aut
}

// FromParts assembles an automaton from explicit initial and final states.
func FromParts(numStates int, initial, final []State) *Nfa {
	aut := New(numStates)
	for _, s := range initial {
		aut.Initial.Insert(s)
	}
	for _, s := range final {
		aut.Final.Insert(s)
	}
	return aut
}

// NumOfStates is the state count: the maximum of the Delta length and the
// largest state referenced by the initial and final sets.
func (aut *Nfa) NumOfStates() int {
	n := aut.Delta.NumOfStates()
	if d := int(aut.Initial.Domain()); d > n {
		n = d
	}
	if d := int(aut.Final.Domain()); d > n {
		n = d
	}
	return n
}

// AddState appends a fresh state and returns it.
func (aut *Nfa) AddState() State {
	state := State(aut.NumOfStates())
	aut.Delta.Allocate(int(state) + 1)
	return state
}

// AddStateAt makes sure state exists and returns it.
func (aut *Nfa) AddStateAt(state State) State {
	aut.Delta.Allocate(int(state) + 1)
	return state
}

// Clear resets the automaton to empty, keeping the alphabet reference.
func (aut *Nfa) Clear() {
	aut.Delta = Delta{}
	aut.Initial.Clear()
	aut.Final.Clear()
}

// Clone returns a deep copy.
func (aut *Nfa) Clone() *Nfa {
	return &Nfa{
		Delta:    *aut.Delta.Clone(),
		Initial:  aut.Initial.Clone(),
		Final:    aut.Final.Clone(),
		Alphabet: aut.Alphabet,
	}
}

// IsIdentical reports structural equality: same initial and final sets and
// bit-identical transition stores.
func (aut *Nfa) IsIdentical(other *Nfa) bool {
	if aut.Initial.Len() != other.Initial.Len() || aut.Final.Len() != other.Final.Len() {
		return false
	}
	for _, s := range aut.Initial.Values() {
		if !other.Initial.Contains(s) {
			return false
		}
	}
	for _, s := range aut.Final.Values() {
		if !other.Final.Contains(s) {
			return false
		}
	}
	return aut.Delta.IsIdentical(&other.Delta)
}

// PostOfSet returns the union of targets over symbol from every state of
// the macrostate.
func (aut *Nfa) PostOfSet(macrostate StateSet, symbol automata.Symbol) StateSet {
	var result StateSet
	for _, state := range macrostate.Slice() {
		post := aut.Delta.StatePost(state)
		if pos, found := post.Find(symbol); found {
			result.Union(post[pos].Targets)
		}
	}
	return result
}

// finalIntersects reports whether any state of the set is final.
func (aut *Nfa) finalIntersects(states StateSet) bool {
	for _, s := range states.Slice() {
		if aut.Final.Contains(s) {
			return true
		}
	}
	return false
}

// IsLangEmpty checks language emptiness by forward BFS from the initial
// states. When the language is non-empty the returned run carries an
// accepting path and the word read along it. Emptiness is a value; this
// never errors.
func (aut *Nfa) IsLangEmpty() (bool, *Run) {
	worklist := make([]State, 0, aut.Initial.Len())
	processed := sets.NewSparseSet[State]()
	// paths[s] is the predecessor of s in the BFS forest; an initial state
	// is its own predecessor.
	paths := make(map[State]State)
	for _, s := range aut.Initial.Values() {
		worklist = append(worklist, s)
		processed.Insert(s)
		paths[s] = s
	}

	for len(worklist) > 0 {
		state := worklist[0]
		worklist = worklist[1:]

		if aut.Final.Contains(state) {
			path := []State{state}
			for paths[state] != state {
				state = paths[state]
				path = append(path, state)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			run := &Run{Path: path}
			word, ok := aut.GetWordForPath(path)
			if ok {
				run.Word = word
			}
			return false, run
		}

		for _, sp := range aut.Delta.StatePost(state) {
			for _, target := range sp.Targets.Slice() {
				if processed.Insert(target) {
					worklist = append(worklist, target)
					paths[target] = state
				}
			}
		}
	}
	return true, nil
}

// GetWordForPath derives a word from a path by picking, for each step, any
// symbol labelling a transition between the consecutive states. The second
// result is false when some step has no transition.
func (aut *Nfa) GetWordForPath(path []State) (automata.Word, bool) {
	if len(path) == 0 {
		return automata.Word{}, true
	}
	word := make(automata.Word, 0, len(path)-1)
	current := path[0]
	for _, next := range path[1:] {
		found := false
		for _, sp := range aut.Delta.StatePost(current) {
			if sp.Targets.Contains(next) {
				word = append(word, sp.Symbol)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
		current = next
	}
	return word, true
}

// IsInLang decides membership of word by tracking the reachable macrostate.
func (aut *Nfa) IsInLang(word automata.Word) bool {
	current := sets.NewOrdVector(aut.Initial.Values()...)
	for _, sym := range word {
		current = aut.PostOfSet(current, sym)
		if current.Empty() {
			return false
		}
	}
	return aut.finalIntersects(current)
}

// IsPrefixInLang reports whether some prefix of word is in the language.
func (aut *Nfa) IsPrefixInLang(word automata.Word) bool {
	current := sets.NewOrdVector(aut.Initial.Values()...)
	for _, sym := range word {
		if aut.finalIntersects(current) {
			return true
		}
		current = aut.PostOfSet(current, sym)
		if current.Empty() {
			return false
		}
	}
	return aut.finalIntersects(current)
}

// IsDeterministic reports whether the automaton has exactly one initial
// state and no symbol with two targets from the same source.
func (aut *Nfa) IsDeterministic() bool {
	if aut.Initial.Len() != 1 {
		return false
	}
	for s := 0; s < aut.Delta.NumOfStates(); s++ {
		for _, sp := range aut.Delta.StatePost(State(s)) {
			if sp.Targets.Len() != 1 {
				return false
			}
		}
	}
	return true
}

// IsComplete reports whether every reachable state has an outgoing
// transition over every alphabet symbol. A transition over a symbol
// outside the alphabet is an error wrapping automata.ErrAlphabetMismatch.
func (aut *Nfa) IsComplete(alphabet automata.Alphabet) (bool, error) {
	if alphabet == nil {
		return false, fmt.Errorf("is_complete: %w: no alphabet provided", automata.ErrAlphabetMismatch)
	}
	symbols := make(map[automata.Symbol]struct{})
	for _, sym := range alphabet.Symbols() {
		symbols[sym] = struct{}{}
	}

	worklist := append([]State(nil), aut.Initial.Values()...)
	processed := sets.NewSparseSet[State](aut.Initial.Values()...)
	complete := true
	for len(worklist) > 0 {
		state := worklist[0]
		worklist = worklist[1:]

		n := 0
		for _, sp := range aut.Delta.StatePost(state) {
			n++
			if _, ok := symbols[sp.Symbol]; !ok {
				return false, fmt.Errorf("is_complete: %w: symbol %d not in the provided alphabet",
					automata.ErrAlphabetMismatch, sp.Symbol)
			}
			for _, target := range sp.Targets.Slice() {
				if processed.Insert(target) {
					worklist = append(worklist, target)
				}
			}
		}
		if n != len(symbols) {
			complete = false
		}
	}
	return complete, nil
}

// MakeComplete adds, for every reachable state and every alphabet symbol
// without an outgoing transition, a transition into sink. The sink is
// created and self-looped on every symbol if absent. The language is
// unchanged; the operation is idempotent.
func (aut *Nfa) MakeComplete(symbols []automata.Symbol, sink State) {
	aut.AddStateAt(sink)
	worklist := append([]State(nil), aut.Initial.Values()...)
	processed := sets.NewSparseSet[State](aut.Initial.Values()...)
	if processed.Insert(sink) {
		worklist = append(worklist, sink)
	}

	for len(worklist) > 0 {
		state := worklist[0]
		worklist = worklist[1:]

		used := sets.WithReserved[automata.Symbol](len(aut.Delta.StatePost(state)))
		for _, sp := range aut.Delta.StatePost(state) {
			used.PushBack(sp.Symbol)
			for _, target := range sp.Targets.Slice() {
				if processed.Insert(target) {
					worklist = append(worklist, target)
				}
			}
		}
		for _, sym := range symbols {
			if !used.Contains(sym) {
				aut.Delta.Add(state, sym, sink)
			}
		}
	}
}

// GetUsefulStates marks the states that are both reachable from an initial
// state and co-reachable from a final state.
func (aut *Nfa) GetUsefulStates() []bool {
	numStates := aut.NumOfStates()
	reachable := make([]bool, numStates)
	worklist := make([]State, 0, aut.Initial.Len())
	for _, s := range aut.Initial.Values() {
		if int(s) < numStates && !reachable[s] {
			reachable[s] = true
			worklist = append(worklist, s)
		}
	}
	for len(worklist) > 0 {
		state := worklist[0]
		worklist = worklist[1:]
		for _, sp := range aut.Delta.StatePost(state) {
			for _, target := range sp.Targets.Slice() {
				if !reachable[target] {
					reachable[target] = true
					worklist = append(worklist, target)
				}
			}
		}
	}

	// Reverse adjacency for the co-reachability pass.
	predecessors := make([][]State, numStates)
	for it := aut.Delta.Transitions(); it.Next(); {
		trans := it.Current()
		predecessors[trans.Target] = append(predecessors[trans.Target], trans.Source)
	}
	coreachable := make([]bool, numStates)
	worklist = worklist[:0]
	for _, s := range aut.Final.Values() {
		if int(s) < numStates && !coreachable[s] {
			coreachable[s] = true
			worklist = append(worklist, s)
		}
	}
	for len(worklist) > 0 {
		state := worklist[0]
		worklist = worklist[1:]
		for _, pred := range predecessors[state] {
			if !coreachable[pred] {
				coreachable[pred] = true
				worklist = append(worklist, pred)
			}
		}
	}

	useful := make([]bool, numStates)
	for s := 0; s < numStates; s++ {
		useful[s] = reachable[s] && coreachable[s]
	}
	return useful
}

// Trim removes all non-useful states, renumbering the survivors densely.
// When renaming is non-nil it receives the old-to-new state mapping of the
// surviving states.
func (aut *Nfa) Trim(renaming map[State]State) *Nfa {
	useful := aut.GetUsefulStates()
	renameMap := make([]State, len(useful))
	next := State(0)
	for s, ok := range useful {
		if ok {
			renameMap[s] = next
			next++
		}
	}

	aut.Delta.Defragment(useful, renameMap)

	isUseful := func(s State) bool { return int(s) < len(useful) && useful[s] }
	aut.Initial.Filter(isUseful)
	aut.Final.Filter(isUseful)
	rename := func(s State) State { return renameMap[s] }
	aut.Initial.Rename(rename)
	aut.Final.Rename(rename)
	aut.Initial.Truncate()
	aut.Final.Truncate()

	if renaming != nil {
		for s, ok := range useful {
			if ok {
				renaming[State(s)] = renameMap[s]
			}
		}
	}
	return aut
}

// GetWords returns all accepted words of length at most maxLength, in a
// deterministic order.
func (aut *Nfa) GetWords(maxLength int) []automata.Word {
	type entry struct {
		state State
		word  automata.Word
	}
	seen := make(map[string]struct{})
	var result []automata.Word
	record := func(word automata.Word) {
		key := wordKey(word)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			result = append(result, append(automata.Word{}, word...))
		}
	}

	worklist := make([]entry, 0, aut.Initial.Len())
	for _, s := range aut.Initial.Values() {
		worklist = append(worklist, entry{state: s})
		if aut.Final.Contains(s) {
			record(automata.Word{})
		}
	}

	for length := 0; length < maxLength && len(worklist) > 0; length++ {
		next := make([]entry, 0, len(worklist))
		for _, e := range worklist {
			for _, sp := range aut.Delta.StatePost(e.state) {
				word := append(append(automata.Word(nil), e.word...), sp.Symbol)
				for _, target := range sp.Targets.Slice() {
					next = append(next, entry{state: target, word: word})
					if aut.Final.Contains(target) {
						record(word)
					}
				}
			}
		}
		worklist = next
	}
	return result
}

// OneLetterAut maps every transition onto the single abstract symbol,
// preserving the graph structure. Useful for reachability arguments that
// ignore labels.
func (aut *Nfa) OneLetterAut(abstractSymbol automata.Symbol) *Nfa {
	result := New(aut.NumOfStates())
	result.Initial = aut.Initial.Clone()
	result.Final = aut.Final.Clone()
	for it := aut.Delta.Transitions(); it.Next(); {
		trans := it.Current()
		result.Delta.Add(trans.Source, abstractSymbol, trans.Target)
	}
	return result
}

func wordKey(word automata.Word) string {
	buf := make([]byte, 0, len(word)*4)
	for _, sym := range word {
		buf = append(buf, byte(sym), byte(sym>>8), byte(sym>>16), byte(sym>>24))
	}
	return string(buf)
}

// Run couples a word with the path along which it is read.
type Run struct {
	Word automata.Word
	Path []State
}
