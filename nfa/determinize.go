package nfa

import (
	"slices"

	"github.com/projectdiscovery/gologger"

	"github.com/coregx/automata/sets"
	"github.com/coregx/automata/synciter"
)

// subsetKey encodes the canonical ordered representation of a macrostate
// for use as a map key.
func subsetKey(states StateSet) string {
	buf := make([]byte, 0, states.Len()*4)
	for _, s := range states.Slice() {
		buf = append(buf, byte(s), byte(s>>8), byte(s>>16), byte(s>>24))
	}
	return string(buf)
}

// SubsetMap records the macrostate-to-state correspondence produced by
// determinization, keyed by the canonical ordered representation.
type SubsetMap struct {
	states map[string]State
	keys   map[string]StateSet
}

// NewSubsetMap creates an empty subset map.
func NewSubsetMap() *SubsetMap {
	return &SubsetMap{states: make(map[string]State), keys: make(map[string]StateSet)}
}

// Get returns the state minted for the macrostate, if any.
func (m *SubsetMap) Get(subset StateSet) (State, bool) {
	state, ok := m.states[subsetKey(subset)]
	return state, ok
}

// Put records the state minted for the macrostate. Reports whether the
// entry is new.
func (m *SubsetMap) Put(subset StateSet, state State) bool {
	key := subsetKey(subset)
	if _, ok := m.states[key]; ok {
		return false
	}
	m.states[key] = state
	m.keys[key] = subset.Clone()
	return true
}

// Len returns the number of recorded macrostates.
func (m *SubsetMap) Len() int { return len(m.states) }

// SubsetEntry pairs a minted state with its macrostate.
type SubsetEntry struct {
	State  State
	Subset StateSet
}

// Entries returns the recorded correspondence ordered by minted state.
func (m *SubsetMap) Entries() []SubsetEntry {
	entries := make([]SubsetEntry, 0, len(m.states))
	for key, state := range m.states {
		entries = append(entries, SubsetEntry{State: state, Subset: m.keys[key]})
	}
	slices.SortFunc(entries, func(a, b SubsetEntry) int {
		switch {
		case a.State < b.State:
			return -1
		case a.State > b.State:
			return 1
		default:
			return 0
		}
	})
	return entries
}

// Determinize builds the deterministic automaton of aut by subset
// construction. Result states are macrostates of aut keyed by their
// canonical ordered representation; the initial macrostate is the whole
// initial set and a macrostate is final iff it intersects aut.Final.
//
// Epsilon transitions are treated as ordinary symbols; remove them first
// if closure semantics are intended. When subsetMap is non-nil it receives
// the macrostate correspondence (complement uses it to locate a sink).
func Determinize(aut *Nfa, subsetMap *SubsetMap) *Nfa {
	if subsetMap == nil {
		subsetMap = NewSubsetMap()
	}
	result := New(0)
	result.Alphabet = aut.Alphabet

	type worklistEntry struct {
		id     State
		subset StateSet
	}

	s0 := sets.NewOrdVector(aut.Initial.Values()...)
	s0id := result.AddState()
	result.Initial.Insert(s0id)
	if aut.finalIntersects(s0) {
		result.Final.Insert(s0id)
	}
	subsetMap.Put(s0, s0id)
	worklist := []worklistEntry{{id: s0id, subset: s0}}

	if aut.Delta.Empty() {
		return result
	}

	it := synciter.NewExistential(CompareSymbolPost, 4)
	for len(worklist) > 0 {
		entry := worklist[0]
		worklist = worklist[1:]
		if entry.subset.Empty() {
			continue
		}

		it.Reset()
		for _, q := range entry.subset.Slice() {
			it.PushBack(aut.Delta.StatePost(q))
		}

		for it.Advance() {
			moves := it.Current()
			symbol := moves[0].Symbol
			var targets StateSet
			for _, sp := range moves {
				targets.Union(sp.Targets)
			}

			targetID, ok := subsetMap.Get(targets)
			if !ok {
				targetID = result.AddState()
				subsetMap.Put(targets, targetID)
				if aut.finalIntersects(targets) {
					result.Final.Insert(targetID)
				}
				worklist = append(worklist, worklistEntry{id: targetID, subset: targets})
			}
			result.Delta.MutableStatePost(entry.id).Insert(SymbolPost{
				Symbol:  symbol,
				Targets: sets.NewOrdVector(targetID),
			})
		}
	}

	gologger.Debug().Msgf("determinize: %d source states -> %d subset states", aut.NumOfStates(), result.NumOfStates())
	return result
}
