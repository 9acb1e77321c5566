// Package nft implements nondeterministic finite transducers: automata
// whose states carry a level in [0, L), partitioning transitions into L
// synchronized tracks. The package builds on the nfa transition store and
// algorithm kernel and adds the level-aware operations: product,
// composition, projection, level insertion and word/tuple insertion.
package nft

import (
	"fmt"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
)

// Level is the rank of a state modulo the number of levels.
type Level uint32

const (
	// DefaultLevel is the level assigned to newly added states.
	DefaultLevel Level = 0

	// DefaultNumOfLevels is the track count of a plain input/output
	// transducer.
	DefaultNumOfLevels = 2
)

// JumpMode selects the symbol encoding on the collapsed segments of a jump
// transition (one spanning several levels).
type JumpMode int

const (
	// JumpModeRepeatSymbol repeats the original symbol on every collapsed
	// segment.
	JumpModeRepeatSymbol JumpMode = iota

	// JumpModeAppendDontCares fills the collapsed segments with DONT_CARE.
	JumpModeAppendDontCares
)

// Levels assigns a level to every state. The vector grows on Set.
type Levels []Level

// Set assigns level to state, growing the vector with DefaultLevel.
func (l *Levels) Set(state nfa.State, level Level) {
	for len(*l) <= int(state) {
		*l = append(*l, DefaultLevel)
	}
	(*l)[state] = level
}

// Get returns the level of state, DefaultLevel when out of range.
func (l Levels) Get(state nfa.State) Level {
	if int(state) >= len(l) {
		return DefaultLevel
	}
	return l[state]
}

// Clone returns a copy.
func (l Levels) Clone() Levels {
	return append(Levels(nil), l...)
}

// Equal reports element-wise equality.
func (l Levels) Equal(other Levels) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Nft is a nondeterministic finite transducer: an Nfa whose states are
// ranked by levels. Initial and final states occupy level 0.
type Nft struct {
	nfa.Nfa
	Levels      Levels
	NumOfLevels int
}

// New creates an empty transducer with capacity for numStates states and
// the given number of levels.
func New(numStates, numOfLevels int) *Nft {
	aut := &Nft{
		Nfa:         *nfa.New(numStates),
		NumOfLevels: numOfLevels,
	}
	for s := 0; s < numStates; s++ {
		aut.Levels.Set(nfa.State(s), DefaultLevel)
	}
	return aut
}

// FromNfa wraps an automaton as a one-or-more-level transducer with all
// states at level 0.
func FromNfa(aut *nfa.Nfa, numOfLevels int) *Nft {
	result := &Nft{Nfa: *aut.Clone(), NumOfLevels: numOfLevels}
	result.syncLevels()
	return result
}

// syncLevels pads the level vector to the state count.
func (aut *Nft) syncLevels() {
	if n := aut.NumOfStates(); n > 0 {
		aut.Levels.Set(nfa.State(n-1), aut.Levels.Get(nfa.State(n-1)))
	}
}

// AddState appends a fresh state at DefaultLevel.
func (aut *Nft) AddState() nfa.State {
	state := aut.Nfa.AddState()
	aut.Levels.Set(state, DefaultLevel)
	return state
}

// AddStateWithLevel appends a fresh state at the given level.
func (aut *Nft) AddStateWithLevel(level Level) nfa.State {
	state := aut.Nfa.AddState()
	aut.Levels.Set(state, level)
	return state
}

// AddStateAtWithLevel makes sure state exists and ranks it at level.
func (aut *Nft) AddStateAtWithLevel(state nfa.State, level Level) nfa.State {
	aut.Levels.Set(state, level)
	return aut.Nfa.AddStateAt(state)
}

// Clear resets the transducer, keeping the level count.
func (aut *Nft) Clear() {
	aut.Nfa.Clear()
	aut.Levels = aut.Levels[:0]
}

// Clone returns a deep copy.
func (aut *Nft) Clone() *Nft {
	return &Nft{
		Nfa:         *aut.Nfa.Clone(),
		Levels:      aut.Levels.Clone(),
		NumOfLevels: aut.NumOfLevels,
	}
}

// IsIdentical reports structural equality including levels.
func (aut *Nft) IsIdentical(other *Nft) bool {
	return aut.NumOfLevels == other.NumOfLevels &&
		aut.Levels.Equal(other.Levels) &&
		aut.Nfa.IsIdentical(&other.Nfa)
}

// InsertWord adds a chain from source to target labelled with word. Inner
// states are ranked (level[source]+1) mod L, (level[source]+2) mod L, ...
// Source and target must share a level and the word must be non-empty.
func (aut *Nft) InsertWord(source nfa.State, word automata.Word, target nfa.State) (nfa.State, error) {
	if len(word) == 0 {
		return 0, fmt.Errorf("insert_word: %w: word must have at least one symbol", automata.ErrEmptyInput)
	}
	if aut.Levels.Get(source) != aut.Levels.Get(target) {
		return 0, fmt.Errorf("insert_word: %w: source level %d differs from target level %d",
			automata.ErrLevelMismatch, aut.Levels.Get(source), aut.Levels.Get(target))
	}

	numOfLevels := Level(aut.NumOfLevels)
	level := aut.Levels.Get(source)
	previous := source
	for _, symbol := range word[:len(word)-1] {
		if aut.NumOfLevels > 1 {
			level = (level + 1) % numOfLevels
		}
		inner := aut.AddStateWithLevel(level)
		aut.Delta.Add(previous, symbol, inner)
		previous = inner
	}
	aut.Delta.Add(previous, word[len(word)-1], target)
	return target, nil
}

// InsertWordFresh adds a chain for word from source into a fresh target at
// source's level and returns the target.
func (aut *Nft) InsertWordFresh(source nfa.State, word automata.Word) (nfa.State, error) {
	target := aut.AddStateWithLevel(aut.Levels.Get(source))
	return aut.InsertWord(source, word, target)
}

// InsertWordByParts interleaves L words, one per level, into a chain from
// source to target: iteration k places the next symbol of the part at
// level (level[source]+k) mod L, or EPSILON once that part is exhausted.
// The chain is L times the longest part long.
func (aut *Nft) InsertWordByParts(source nfa.State, partsOnLevels []automata.Word, target nfa.State) (nfa.State, error) {
	if len(partsOnLevels) != aut.NumOfLevels {
		return 0, fmt.Errorf("insert_word_by_parts: %w: expected %d word parts, got %d",
			automata.ErrEmptyInput, aut.NumOfLevels, len(partsOnLevels))
	}
	if aut.Levels.Get(source) != aut.Levels.Get(target) {
		return 0, fmt.Errorf("insert_word_by_parts: %w: source level %d differs from target level %d",
			automata.ErrLevelMismatch, aut.Levels.Get(source), aut.Levels.Get(target))
	}

	if aut.NumOfLevels == 1 {
		return aut.InsertWord(source, partsOnLevels[0], target)
	}

	numOfLevels := Level(aut.NumOfLevels)
	sourceLevel := aut.Levels.Get(source)

	cursors := make([]int, aut.NumOfLevels)
	nextSymbol := func(level Level) automata.Symbol {
		if cursors[level] >= len(partsOnLevels[level]) {
			return automata.Epsilon
		}
		symbol := partsOnLevels[level][cursors[level]]
		cursors[level]++
		return symbol
	}

	maxPartLen := 0
	for _, part := range partsOnLevels {
		if len(part) > maxPartLen {
			maxPartLen = len(part)
		}
	}
	totalLen := aut.NumOfLevels * maxPartLen
	if totalLen == 0 {
		return 0, fmt.Errorf("insert_word_by_parts: %w: all word parts are empty", automata.ErrEmptyInput)
	}

	innerLevel := (sourceLevel + 1) % numOfLevels
	inner := aut.AddStateWithLevel(innerLevel)
	aut.Delta.Add(source, nextSymbol(sourceLevel), inner)

	previous := inner
	previousLevel := innerLevel
	for symbolIdx := 1; symbolIdx < totalLen-1; symbolIdx++ {
		innerLevel = (previousLevel + 1) % numOfLevels
		inner = aut.AddStateWithLevel(innerLevel)
		aut.Delta.Add(previous, nextSymbol(previousLevel), inner)
		previous = inner
		previousLevel = innerLevel
	}
	aut.Delta.Add(previous, nextSymbol(previousLevel), target)
	return target, nil
}

// InsertIdentity adds the identity on symbol at state: a chain of length L
// from state back to itself labelled with symbol on every level, or a
// single jump self-loop when jumpMode is JumpModeRepeatSymbol.
func (aut *Nft) InsertIdentity(state nfa.State, symbol automata.Symbol, jumpMode JumpMode) error {
	if jumpMode == JumpModeRepeatSymbol {
		aut.Delta.Add(state, symbol, state)
		return nil
	}
	word := make(automata.Word, aut.NumOfLevels)
	for i := range word {
		word[i] = symbol
	}
	_, err := aut.InsertWord(state, word, state)
	return err
}

// Trim removes all non-useful states, compacting the level vector along
// with the transition store. When renaming is non-nil it receives the
// old-to-new mapping of the surviving states.
func (aut *Nft) Trim(renaming map[nfa.State]nfa.State) *Nft {
	useful := aut.GetUsefulStates()
	survivingLevels := make(Levels, 0, len(useful))
	for s, ok := range useful {
		if ok {
			survivingLevels = append(survivingLevels, aut.Levels.Get(nfa.State(s)))
		}
	}
	aut.Nfa.Trim(renaming)
	aut.Levels = survivingLevels
	return aut
}

// levelSpan returns the number of levels a transition from source to
// target crosses; a target at level 0 means the transition completes the
// round.
func (aut *Nft) levelSpan(source, target nfa.State) Level {
	sourceLevel := aut.Levels.Get(source)
	targetLevel := aut.Levels.Get(target)
	if targetLevel == 0 {
		return Level(aut.NumOfLevels) - sourceLevel
	}
	return targetLevel - sourceLevel
}

// MakeOneLevelAut expands every jump transition in place into a chain of
// single-level steps. DONT_CARE labels on single steps are replaced by
// every symbol of dontCareReplacements (kept verbatim when the replacement
// set is exactly {DONT_CARE}); collapsed segments follow jumpMode.
func (aut *Nft) MakeOneLevelAut(dontCareReplacements []automata.Symbol, jumpMode JumpMode) {
	dcareForDcare := len(dontCareReplacements) == 1 && dontCareReplacements[0] == automata.DontCare

	var toDelete, toAdd []nfa.Transition
	addInner := func(source nfa.State, symbol automata.Symbol, target nfa.State) {
		if symbol == automata.DontCare && !dcareForDcare {
			for _, replacement := range dontCareReplacements {
				toAdd = append(toAdd, nfa.Transition{Source: source, Symbol: replacement, Target: target})
			}
			return
		}
		toAdd = append(toAdd, nfa.Transition{Source: source, Symbol: symbol, Target: target})
	}

	for it := aut.Delta.Transitions(); it.Next(); {
		trans := it.Current()
		span := aut.levelSpan(trans.Source, trans.Target)

		if span == 1 && trans.Symbol == automata.DontCare && !dcareForDcare {
			toDelete = append(toDelete, trans)
			for _, replacement := range dontCareReplacements {
				toAdd = append(toAdd, nfa.Transition{Source: trans.Source, Symbol: replacement, Target: trans.Target})
			}
			continue
		}
		if span <= 1 {
			continue
		}

		toDelete = append(toDelete, trans)
		sourceLevel := aut.Levels.Get(trans.Source)
		targetLevel := aut.Levels.Get(trans.Target)

		inner := aut.AddStateWithLevel(sourceLevel + 1)
		addInner(trans.Source, trans.Symbol, inner)

		segmentSymbol := trans.Symbol
		if jumpMode == JumpModeAppendDontCares {
			segmentSymbol = automata.DontCare
		}
		lastLevel := Level(aut.NumOfLevels) - 1
		if targetLevel != 0 {
			lastLevel = targetLevel - 1
		}
		for level := sourceLevel + 2; level <= lastLevel; level++ {
			next := aut.AddStateWithLevel(level)
			addInner(inner, segmentSymbol, next)
			inner = next
		}
		addInner(inner, segmentSymbol, trans.Target)
	}

	for _, trans := range toAdd {
		aut.Delta.AddTransition(trans)
	}
	for _, trans := range toDelete {
		// The transition was iterated from the store, so removal succeeds.
		_ = aut.Delta.RemoveTransition(trans)
	}
}

// GetOneLevelAut returns a copy expanded by MakeOneLevelAut.
func (aut *Nft) GetOneLevelAut(dontCareReplacements []automata.Symbol, jumpMode JumpMode) *Nft {
	result := aut.Clone()
	result.MakeOneLevelAut(dontCareReplacements, jumpMode)
	return result
}
