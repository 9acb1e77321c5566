package nft

import (
	"fmt"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
	"github.com/coregx/automata/sets"
)

// InsertLevels rebuilds the transducer in a larger level system described
// by mask: the false entries of mask are the positions of the old levels,
// in order (see below for level 0), and mask[i] == true inserts a fresh
// level at position i. The mask must contain
// exactly NumOfLevels false entries. Every transition is split into a
// chain of step transitions; inserted levels are labelled with
// defaultSymbol (DONT_CARE on the collapsed tail of a jump in
// JumpModeAppendDontCares), preserved levels keep the original symbol.
// Inner states entering inserted levels are shared between transitions of
// the same source when their labels agree.
func InsertLevels(aut *Nft, mask []bool, defaultSymbol automata.Symbol, jumpMode JumpMode) (*Nft, error) {
	oldCount := 0
	for _, inserted := range mask {
		if !inserted {
			oldCount++
		}
	}
	if oldCount != aut.NumOfLevels {
		return nil, fmt.Errorf("insert_levels: %w: mask has %d old levels, automaton has %d",
			automata.ErrLevelMismatch, oldCount, aut.NumOfLevels)
	}
	if aut.NumOfLevels == len(mask) {
		return aut.Clone(), nil
	}

	// Position of each old level in the new system. Old level 0 always
	// stays at 0 (initial and final states keep level 0); when the mask
	// starts with inserted levels, the first preserved position becomes
	// level 0's slot and old level i maps to the (i+1)-th preserved one.
	falsePositions := make([]Level, 0, aut.NumOfLevels)
	for newLevel, inserted := range mask {
		if !inserted {
			falsePositions = append(falsePositions, Level(newLevel))
		}
	}
	updatedLevels := make([]Level, aut.NumOfLevels)
	for i := 1; i < aut.NumOfLevels; i++ {
		updatedLevels[i] = falsePositions[i]
	}

	// For every new-system level, the next level at which the chain of an
	// incoming transition must stop to re-synchronize. With RepeatSymbol
	// the chain steps through every level; with AppendDontCares it jumps
	// straight to the next preserved level.
	maskSize := len(mask)
	nextInnerLevels := make([]Level, maskSize)
	nextLevel := Level(maskSize)
	for i := maskSize - 1; i >= 0; i-- {
		nextInnerLevels[i] = nextLevel
		if !mask[i] {
			if jumpMode == JumpModeRepeatSymbol {
				nextInnerLevels[i] = Level(i + 1)
			}
			nextLevel = Level(i)
		}
	}

	result := New(aut.NumOfStates(), maskSize)
	result.Alphabet = aut.Alphabet
	result.Initial = aut.Initial.Clone()
	result.Final = aut.Final.Clone()
	for s := 0; s < aut.NumOfStates(); s++ {
		result.Levels.Set(nfa.State(s), updatedLevels[aut.Levels.Get(nfa.State(s))])
	}

	createTransition := func(source nfa.State, symbol automata.Symbol, target nfa.State,
		insertedLevel, oldLevelProcessed bool) {
		if !insertedLevel && (jumpMode == JumpModeRepeatSymbol || !oldLevelProcessed) {
			result.Delta.Add(source, symbol, target)
			return
		}
		if insertedLevel && (!oldLevelProcessed || jumpMode == JumpModeRepeatSymbol) {
			result.Delta.Add(source, defaultSymbol, target)
			return
		}
		result.Delta.Add(source, automata.DontCare, target)
	}

	// Inner states entering inserted levels are shared per original
	// source so compatible chains coalesce.
	stateLevelMatrix := make([][]nfa.State, aut.NumOfStates())
	getInnerState := func(originalSource nfa.State, innerLevel Level, insertedLevel, oldLevelProcessed bool) nfa.State {
		if oldLevelProcessed || !insertedLevel {
			return result.AddStateWithLevel(innerLevel)
		}
		idx := int(innerLevel) - int(result.Levels.Get(originalSource)) - 1
		row := stateLevelMatrix[originalSource]
		for len(row) <= idx {
			row = append(row, nfa.MaxState)
		}
		if row[idx] == nfa.MaxState {
			row[idx] = result.AddStateWithLevel(innerLevel)
		}
		stateLevelMatrix[originalSource] = row
		return row[idx]
	}

	for it := aut.Delta.Transitions(); it.Next(); {
		trans := it.Current()
		source := trans.Source
		sourceLevel := result.Levels.Get(trans.Source)
		stopLevel := Level(maskSize - 1)
		if targetLevel := result.Levels.Get(trans.Target); targetLevel != 0 {
			stopLevel = targetLevel - 1
		}

		oldLevelProcessed := false
		for nextInnerLevels[sourceLevel] < nextInnerLevels[stopLevel] {
			inner := getInnerState(trans.Source, nextInnerLevels[sourceLevel], mask[sourceLevel], oldLevelProcessed)
			createTransition(source, trans.Symbol, inner, mask[sourceLevel], oldLevelProcessed)
			if !mask[sourceLevel] {
				oldLevelProcessed = true
			}
			source = inner
			sourceLevel = result.Levels.Get(source)
		}
		createTransition(source, trans.Symbol, trans.Target, mask[sourceLevel], oldLevelProcessed)
	}

	return result, nil
}

// InsertLevel inserts a single fresh level at position newLevel, padding
// with trailing inserted levels when newLevel lies past the current count.
func InsertLevel(aut *Nft, newLevel Level, defaultSymbol automata.Symbol, jumpMode JumpMode) (*Nft, error) {
	mask := make([]bool, aut.NumOfLevels+1)
	if int(newLevel) < len(mask) {
		mask[newLevel] = true
	} else {
		mask[aut.NumOfLevels] = true
		for len(mask) <= int(newLevel) {
			mask = append(mask, true)
		}
	}
	return InsertLevels(aut, mask, defaultSymbol, jumpMode)
}

// ProjectOut removes the listed levels from the level structure:
// transitions whose source-to-target span lies entirely inside the
// projected levels are collapsed by a reachability closure, surviving
// levels are renumbered densely, and the result is trimmed (projection can
// leave unreachable self-looping states behind). jumpMode picks the symbol
// encoding on the collapsed segments of jumps that survive partially.
func ProjectOut(aut *Nft, levelsToProject []Level, jumpMode JumpMode) (*Nft, error) {
	if len(levelsToProject) == 0 {
		return nil, fmt.Errorf("project_out: %w: no levels to project", automata.ErrEmptyInput)
	}
	projected := sets.NewOrdVector(levelsToProject...)
	if int(projected.Back()) >= aut.NumOfLevels {
		return nil, fmt.Errorf("project_out: %w: level %d out of range [0, %d)",
			automata.ErrLevelMismatch, projected.Back(), aut.NumOfLevels)
	}

	numOfLevels := Level(aut.NumOfLevels)
	isProjectedOut := func(s nfa.State) bool {
		return projected.Contains(aut.Levels.Get(s))
	}
	isProjectedAlongPath := func(source, target nfa.State) bool {
		stopLevel := aut.Levels.Get(target)
		if stopLevel == 0 {
			stopLevel = numOfLevels
		}
		for level := aut.Levels.Get(source); level < stopLevel; level++ {
			if !projected.Contains(level) {
				return false
			}
		}
		return true
	}
	transLen := func(source, target nfa.State) Level {
		if aut.Levels.Get(source) == 0 {
			return numOfLevels
		}
		return aut.Levels.Get(target) - aut.Levels.Get(source)
	}

	// Projecting every level yields a one-state automaton for the
	// language's emptiness.
	if projected.Len() == aut.NumOfLevels {
		empty, _ := aut.IsLangEmpty()
		result := New(1, 0)
		result.Initial.Insert(0)
		if !empty {
			result.Final.Insert(0)
		}
		return result, nil
	}

	// The smallest level starting a consecutive run k, k+1, ..., L-1
	// inside the projected set; states at those levels may turn final.
	seqStartIdx := Level(aut.NumOfLevels)
	projectedSlice := projected.Slice()
	for i := len(projectedSlice) - 1; i >= 0 && projectedSlice[i] == seqStartIdx-1; i-- {
		seqStartIdx--
	}
	canBeFinal := func(s nfa.State) bool {
		return seqStartIdx <= aut.Levels.Get(s)
	}

	// New level numbering: surviving levels compact to 0..L-|Λ|, levels
	// from seqStartIdx on map to 0.
	newLevels := make([]Level, aut.NumOfLevels)
	levelSub := Level(0)
	for old := Level(0); old < seqStartIdx; old++ {
		newLevels[old] = old - levelSub
		if projected.Contains(old) {
			levelSub++
		}
	}

	// Closure of states reachable through fully projected segments.
	numStates := aut.Delta.NumOfStates()
	closure := make([]nfa.StateSet, numStates)
	for source := 0; source < numStates; source++ {
		closure[source].Insert(nfa.State(source))
		if !isProjectedOut(nfa.State(source)) {
			continue
		}
		for _, sp := range aut.Delta.StatePost(nfa.State(source)) {
			for _, target := range sp.Targets.Slice() {
				if isProjectedAlongPath(nfa.State(source), target) {
					closure[source].Insert(target)
				}
			}
		}
	}
	var statesToProject []nfa.State
	for s := 0; s < numStates; s++ {
		if closure[s].Len() > 1 {
			statesToProject = append(statesToProject, nfa.State(s))
		}
	}
	changed := true
	for changed {
		changed = false
		for _, s := range statesToProject {
			for _, closureState := range closure[s].Slice() {
				if !closure[closureState].IsSubsetOf(closure[s]) {
					closure[s].Union(closure[closureState])
					changed = true
				}
			}
		}
	}

	result := &Nft{
		Nfa:         *nfa.New(numStates),
		Levels:      aut.Levels.Clone(),
		NumOfLevels: aut.NumOfLevels,
	}
	result.Alphabet = aut.Alphabet
	result.Initial = aut.Initial.Clone()
	result.Final = aut.Final.Clone()

	for source := 0; source < numStates; source++ {
		for _, closureState := range closure[source].Slice() {
			if aut.Final.Contains(closureState) && canBeFinal(nfa.State(source)) {
				result.Final.Insert(nfa.State(source))
			}
			for _, sp := range aut.Delta.StatePost(closureState) {
				for _, target := range sp.Targets.Slice() {
					isLoopOnTarget := closureState == target
					if isProjectedAlongPath(closureState, target) {
						continue
					}
					if isProjectedOut(closureState) && transLen(closureState, target) == 1 && !isLoopOnTarget {
						continue
					}

					switch {
					case isProjectedOut(closureState):
						// Levels remain between closureState and target on
						// a jump longer than one; they must be preserved.
						if jumpMode == JumpModeRepeatSymbol {
							result.Delta.Add(nfa.State(source), sp.Symbol, target)
						} else {
							result.Delta.Add(nfa.State(source), automata.DontCare, target)
						}
					case isLoopOnTarget:
						// Establish the self-loop directly on the source
						// instead of a transition into a looping state.
						result.Delta.Add(nfa.State(source), sp.Symbol, nfa.State(source))
					default:
						result.Delta.Add(nfa.State(source), sp.Symbol, target)
					}
				}
			}
		}
	}

	// Projection can leave unreachable self-looping states; always trim.
	result.Trim(nil)

	for s := range result.Levels {
		result.Levels[s] = newLevels[result.Levels[s]]
	}
	result.NumOfLevels -= projected.Len()
	return result, nil
}

// ProjectTo keeps only the listed levels: the dual of ProjectOut over the
// complemented level set.
func ProjectTo(aut *Nft, levelsToKeep []Level, jumpMode JumpMode) (*Nft, error) {
	if len(levelsToKeep) == 0 {
		return nil, fmt.Errorf("project_to: %w: no levels to keep", automata.ErrEmptyInput)
	}
	keep := sets.NewOrdVector(levelsToKeep...)
	complement := make([]Level, 0, aut.NumOfLevels)
	for level := Level(0); level < Level(aut.NumOfLevels); level++ {
		if !keep.Contains(level) {
			complement = append(complement, level)
		}
	}
	if len(complement) == 0 {
		return aut.Clone(), nil
	}
	return ProjectOut(aut, complement, jumpMode)
}
