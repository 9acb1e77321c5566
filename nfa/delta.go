// Package nfa implements nondeterministic finite automata over abstract
// integer symbols: the three-level ordered transition store (Delta,
// StatePost, SymbolPost) and the classical algorithm kernel built on it
// (determinization, product, complement, inclusion, reduction, ...).
package nfa

import (
	"slices"

	"github.com/coregx/automata"
	"github.com/coregx/automata/sets"
)

// State identifies an automaton state. States are dense, 0..N-1.
type State uint32

// MaxState is the reserved sentinel value; no automaton may use it as a
// real state.
const MaxState State = 0xFFFFFFFF

// StateSet is an ordered set of states, the representation of transition
// targets and of determinization macrostates.
type StateSet = sets.OrdVector[State]

// Transition is a single (source, symbol, target) triple.
type Transition struct {
	Source State
	Symbol automata.Symbol
	Target State
}

// SymbolPost groups the targets of all transitions over one symbol from a
// single source state. SymbolPosts compare by symbol alone.
type SymbolPost struct {
	Symbol  automata.Symbol
	Targets StateSet
}

// CompareSymbolPost is the three-way symbol order used by the synchronized
// iterators.
func CompareSymbolPost(a, b SymbolPost) int {
	switch {
	case a.Symbol < b.Symbol:
		return -1
	case a.Symbol > b.Symbol:
		return 1
	default:
		return 0
	}
}

// StatePost is the ordered sequence of SymbolPosts of one source state,
// strictly ascending by symbol.
type StatePost []SymbolPost

// Find locates the SymbolPost for symbol by binary search.
func (p StatePost) Find(symbol automata.Symbol) (int, bool) {
	return slices.BinarySearchFunc(p, symbol, func(sp SymbolPost, sym automata.Symbol) int {
		switch {
		case sp.Symbol < sym:
			return -1
		case sp.Symbol > sym:
			return 1
		default:
			return 0
		}
	})
}

// Insert places sp at its symbol position. If a SymbolPost with the same
// symbol exists, the target sets are merged.
func (p *StatePost) Insert(sp SymbolPost) {
	pos, found := p.Find(sp.Symbol)
	if found {
		(*p)[pos].Targets.Union(sp.Targets)
		return
	}
	*p = slices.Insert(*p, pos, sp)
}

// PushBack appends sp, whose symbol must be strictly greater than every
// symbol already present. Falls back to Insert otherwise.
func (p *StatePost) PushBack(sp SymbolPost) {
	if n := len(*p); n > 0 && sp.Symbol <= (*p)[n-1].Symbol {
		p.Insert(sp)
		return
	}
	*p = append(*p, sp)
}

// Delta is the transition store: a dense vector of StatePosts indexed by
// source state. Reading an out-of-range state yields an empty view and
// never grows the vector; writing grows it implicitly.
type Delta struct {
	posts []StatePost
}

// NewDelta creates a Delta pre-allocated for numStates source states.
func NewDelta(numStates int) *Delta {
	return &Delta{posts: make([]StatePost, numStates)}
}

// Allocate grows the vector to at least numStates rows.
func (d *Delta) Allocate(numStates int) {
	for len(d.posts) < numStates {
		d.posts = append(d.posts, nil)
	}
}

// NumOfStates returns the length of the row vector.
func (d *Delta) NumOfStates() int { return len(d.posts) }

// Empty reports whether the store holds no transitions.
func (d *Delta) Empty() bool {
	for _, post := range d.posts {
		if len(post) > 0 {
			return false
		}
	}
	return true
}

// StatePost returns the read-only view of the transitions from state. It
// never grows the store.
func (d *Delta) StatePost(state State) StatePost {
	if int(state) >= len(d.posts) {
		return nil
	}
	return d.posts[state]
}

// MutableStatePost returns a mutable reference to the row of state,
// growing the store if needed.
func (d *Delta) MutableStatePost(state State) *StatePost {
	d.Allocate(int(state) + 1)
	return &d.posts[state]
}

// Add inserts the transition (source, symbol, target), growing the row
// vector to cover both endpoints. Idempotent.
func (d *Delta) Add(source State, symbol automata.Symbol, target State) {
	d.Allocate(int(target) + 1)
	post := d.MutableStatePost(source)
	pos, found := post.Find(symbol)
	if found {
		(*post)[pos].Targets.Insert(target)
		return
	}
	*post = slices.Insert(*post, pos, SymbolPost{Symbol: symbol, Targets: sets.NewOrdVector(target)})
}

// AddTransition inserts trans.
func (d *Delta) AddTransition(trans Transition) {
	d.Add(trans.Source, trans.Symbol, trans.Target)
}

// Remove deletes the transition (source, symbol, target). A SymbolPost
// left without targets is removed from its row. Removing an absent
// transition is an error wrapping automata.ErrInvalidTransition.
func (d *Delta) Remove(source State, symbol automata.Symbol, target State) error {
	missing := &automata.TransitionError{Source: uint32(source), Symbol: symbol, Target: uint32(target)}
	if int(source) >= len(d.posts) {
		return missing
	}
	post := &d.posts[source]
	pos, found := post.Find(symbol)
	if !found || !(*post)[pos].Targets.Erase(target) {
		return missing
	}
	if (*post)[pos].Targets.Empty() {
		*post = slices.Delete(*post, pos, pos+1)
	}
	return nil
}

// RemoveTransition deletes trans.
func (d *Delta) RemoveTransition(trans Transition) error {
	return d.Remove(trans.Source, trans.Symbol, trans.Target)
}

// Contains reports whether the transition (source, symbol, target) is
// present.
func (d *Delta) Contains(source State, symbol automata.Symbol, target State) bool {
	if int(source) >= len(d.posts) {
		return false
	}
	pos, found := d.posts[source].Find(symbol)
	return found && d.posts[source][pos].Targets.Contains(target)
}

// NumOfTransitions counts all stored transitions.
func (d *Delta) NumOfTransitions() int {
	count := 0
	for _, post := range d.posts {
		for _, sp := range post {
			count += sp.Targets.Len()
		}
	}
	return count
}

// Transitions returns an iterator over all transitions in lexicographic
// (source, symbol, target) order.
func (d *Delta) Transitions() *TransitionIter {
	it := &TransitionIter{delta: d, state: -1}
	return it
}

// TransitionIter walks a Delta in lexicographic transition order.
type TransitionIter struct {
	delta  *Delta
	state  int
	symbol int
	target int
	// current is valid after a successful Next.
	current Transition
}

// Next advances to the next transition. It returns false when the store is
// exhausted.
func (it *TransitionIter) Next() bool {
	d := it.delta
	if it.state >= 0 {
		post := d.posts[it.state]
		it.target++
		if it.target < post[it.symbol].Targets.Len() {
			it.refresh()
			return true
		}
		it.symbol++
		it.target = 0
		if it.symbol < len(post) {
			it.refresh()
			return true
		}
	}
	// Move to the next non-empty row.
	for it.state++; it.state < len(d.posts); it.state++ {
		if len(d.posts[it.state]) > 0 {
			it.symbol = 0
			it.target = 0
			it.refresh()
			return true
		}
	}
	return false
}

func (it *TransitionIter) refresh() {
	sp := it.delta.posts[it.state][it.symbol]
	it.current = Transition{
		Source: State(it.state),
		Symbol: sp.Symbol,
		Target: sp.Targets.Slice()[it.target],
	}
}

// Current returns the transition reached by the last Next.
func (it *TransitionIter) Current() Transition { return it.current }

// GetUsedSymbols returns the symbols occurring in the store, ascending.
// Backed by a boolean vector over the concrete symbol range; the reserved
// codes are tracked separately so the vector length stays bounded by the
// largest concrete symbol.
func (d *Delta) GetUsedSymbols() sets.OrdVector[automata.Symbol] {
	var maxConcrete automata.Symbol
	hasConcrete := false
	hasDontCare := false
	hasEpsilon := false
	for _, post := range d.posts {
		for _, sp := range post {
			switch sp.Symbol {
			case automata.Epsilon:
				hasEpsilon = true
			case automata.DontCare:
				hasDontCare = true
			default:
				hasConcrete = true
				if sp.Symbol > maxConcrete {
					maxConcrete = sp.Symbol
				}
			}
		}
	}
	// The boolean vector only pays off for dense symbol ranges; large
	// sparse codes would blow the allocation up.
	if maxConcrete > 1<<22 {
		return d.usedSymbolsOrdVector()
	}
	var used []bool
	if hasConcrete {
		used = make([]bool, maxConcrete+1)
		for _, post := range d.posts {
			for _, sp := range post {
				if sp.Symbol < automata.DontCare {
					used[sp.Symbol] = true
				}
			}
		}
	}
	result := sets.WithReserved[automata.Symbol](len(used) + 2)
	for sym, ok := range used {
		if ok {
			result.PushBack(automata.Symbol(sym))
		}
	}
	if hasDontCare {
		result.PushBack(automata.DontCare)
	}
	if hasEpsilon {
		result.PushBack(automata.Epsilon)
	}
	return result
}

// usedSymbolsHashset is an alternative implementation of GetUsedSymbols
// kept for cross-checking; it must return identical results.
func (d *Delta) usedSymbolsHashset() sets.OrdVector[automata.Symbol] {
	seen := make(map[automata.Symbol]struct{})
	for _, post := range d.posts {
		for _, sp := range post {
			seen[sp.Symbol] = struct{}{}
		}
	}
	symbols := make([]automata.Symbol, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	return sets.NewOrdVector(symbols...)
}

// usedSymbolsOrdVector is the sorted-vector implementation of
// GetUsedSymbols kept for cross-checking; it must return identical results.
func (d *Delta) usedSymbolsOrdVector() sets.OrdVector[automata.Symbol] {
	var result sets.OrdVector[automata.Symbol]
	for _, post := range d.posts {
		for _, sp := range post {
			result.Insert(sp.Symbol)
		}
	}
	return result
}

// MaxSymbol returns the largest symbol occurring in the store, or 0 when
// there are no transitions.
func (d *Delta) MaxSymbol() automata.Symbol {
	var maxSym automata.Symbol
	for _, post := range d.posts {
		if len(post) > 0 {
			if sym := post[len(post)-1].Symbol; sym > maxSym {
				maxSym = sym
			}
		}
	}
	return maxSym
}

// RenumberTargets returns a fresh row vector in which every target state t
// is replaced by f(t). The caller guarantees f preserves the uniqueness
// required by the ordering invariants.
func (d *Delta) RenumberTargets(f func(State) State) []StatePost {
	renumbered := make([]StatePost, len(d.posts))
	for s, post := range d.posts {
		if len(post) == 0 {
			continue
		}
		row := make(StatePost, 0, len(post))
		for _, sp := range post {
			targets := make([]State, 0, sp.Targets.Len())
			for _, t := range sp.Targets.Slice() {
				targets = append(targets, f(t))
			}
			row = append(row, SymbolPost{Symbol: sp.Symbol, Targets: sets.NewOrdVector(targets...)})
		}
		renumbered[s] = row
	}
	return renumbered
}

// Append adds rows to the end of the store.
func (d *Delta) Append(rows []StatePost) {
	d.posts = append(d.posts, rows...)
}

// Defragment removes the rows of states not marked useful and renames
// every surviving state occurrence through renameMap. renameMap must be
// monotone over the useful states so the ordering invariants survive
// without re-sorting.
func (d *Delta) Defragment(useful []bool, renameMap []State) {
	isUseful := func(s State) bool { return int(s) < len(useful) && useful[s] }
	compacted := make([]StatePost, 0, len(d.posts))
	for s, post := range d.posts {
		if !isUseful(State(s)) {
			continue
		}
		row := make(StatePost, 0, len(post))
		for _, sp := range post {
			targets := sets.WithReserved[State](sp.Targets.Len())
			for _, t := range sp.Targets.Slice() {
				if isUseful(t) {
					targets.PushBack(renameMap[t])
				}
			}
			if !targets.Empty() {
				row = append(row, SymbolPost{Symbol: sp.Symbol, Targets: targets})
			}
		}
		compacted = append(compacted, row)
	}
	d.posts = compacted
}

// Clone returns a deep copy of the store.
func (d *Delta) Clone() *Delta {
	clone := &Delta{posts: make([]StatePost, len(d.posts))}
	for s, post := range d.posts {
		if len(post) == 0 {
			continue
		}
		row := make(StatePost, len(post))
		for i, sp := range post {
			row[i] = SymbolPost{Symbol: sp.Symbol, Targets: sp.Targets.Clone()}
		}
		clone.posts[s] = row
	}
	return clone
}

// IsIdentical reports bit-identical equality of the two stores, ignoring
// trailing empty rows.
func (d *Delta) IsIdentical(other *Delta) bool {
	n := len(d.posts)
	if len(other.posts) > n {
		n = len(other.posts)
	}
	for s := 0; s < n; s++ {
		a := d.StatePost(State(s))
		b := other.StatePost(State(s))
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].Symbol != b[i].Symbol || !a[i].Targets.Equal(b[i].Targets) {
				return false
			}
		}
	}
	return true
}
