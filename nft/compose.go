package nft

import (
	"fmt"

	"github.com/projectdiscovery/gologger"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
)

// Compose builds the relational composition of two transducers. The
// ordered sync-level vectors select, pairwise, which track of lhs must
// equal which track of rhs. The construction:
//
//  1. computes interleaving masks so that, after inserting identity
//     levels into both sides, the selected sync levels align at identical
//     positions,
//  2. inserts those levels and adds self-loops at every level-0 state,
//     labelled EPSILON at non-synchronization levels and DONT_CARE at the
//     synchronization levels of the other side (stuttering),
//  3. takes the level-aware product, passing the pre-insertion state
//     counts as auxiliary thresholds, and
//  4. projects out the synchronization levels.
func Compose(lhs, rhs *Nft, lhsSyncLevels, rhsSyncLevels []Level, jumpMode JumpMode) (*Nft, error) {
	if len(lhsSyncLevels) == 0 || len(rhsSyncLevels) == 0 {
		return nil, fmt.Errorf("compose: %w: synchronization levels must be non-empty", automata.ErrEmptyInput)
	}
	if len(lhsSyncLevels) != len(rhsSyncLevels) {
		return nil, fmt.Errorf("compose: %w: %d lhs sync levels vs %d rhs sync levels",
			automata.ErrLevelMismatch, len(lhsSyncLevels), len(rhsSyncLevels))
	}

	// Interleaving masks aligning the sync levels pairwise, and the
	// positions (in the joint system) that are projected out afterwards.
	minLevel := lhsSyncLevels[0]
	if rhsSyncLevels[0] < minLevel {
		minLevel = rhsSyncLevels[0]
	}
	lhsSuffixLen := suffixAfterLastSync(lhs, lhsSyncLevels)
	rhsSuffixLen := suffixAfterLastSync(rhs, rhsSyncLevels)
	biggestSuffixLen := lhsSuffixLen
	if rhsSuffixLen > biggestSuffixLen {
		biggestSuffixLen = rhsSuffixLen
	}

	lhsMask := make([]bool, minLevel)
	rhsMask := make([]bool, minLevel)
	var levelsToProjectOut []Level
	var lhsOffset, rhsOffset Level
	for i := range lhsSyncLevels {
		lhsLevel := lhsSyncLevels[i] + lhsOffset
		rhsLevel := rhsSyncLevels[i] + rhsOffset
		// Levels of both sides below the nearer sync position are preserved.
		for Level(len(lhsMask)) < min(lhsLevel, rhsLevel) {
			lhsMask = append(lhsMask, false)
			rhsMask = append(rhsMask, false)
		}
		switch {
		case lhsLevel < rhsLevel:
			for k := Level(0); k < rhsLevel-lhsLevel; k++ {
				lhsMask = append(lhsMask, true)
				rhsMask = append(rhsMask, false)
			}
			lhsOffset += rhsLevel - lhsLevel
		case lhsLevel > rhsLevel:
			for k := Level(0); k < lhsLevel-rhsLevel; k++ {
				lhsMask = append(lhsMask, false)
				rhsMask = append(rhsMask, true)
			}
			rhsOffset += lhsLevel - rhsLevel
		default:
			// Aligned already; pad the gap since the previous sync pair
			// with preserved levels.
			for Level(len(lhsMask)) < lhsLevel {
				lhsMask = append(lhsMask, false)
			}
			for Level(len(rhsMask)) < rhsLevel {
				rhsMask = append(rhsMask, false)
			}
		}
		lhsMask = append(lhsMask, false)
		rhsMask = append(rhsMask, false)
		levelsToProjectOut = append(levelsToProjectOut, Level(len(lhsMask)-1))
	}
	for k := 0; k < lhsSuffixLen; k++ {
		lhsMask = append(lhsMask, false)
	}
	for k := 0; k < rhsSuffixLen; k++ {
		rhsMask = append(rhsMask, false)
	}
	for k := lhsSuffixLen; k < biggestSuffixLen; k++ {
		lhsMask = append(lhsMask, true)
	}
	for k := rhsSuffixLen; k < biggestSuffixLen; k++ {
		rhsMask = append(rhsMask, true)
	}

	lhsSynced, err := InsertLevels(lhs, lhsMask, automata.DontCare, jumpMode)
	if err != nil {
		return nil, err
	}
	rhsSynced, err := InsertLevels(rhs, rhsMask, automata.DontCare, jumpMode)
	if err != nil {
		return nil, err
	}

	// States created by the stutter loops below must not pair with each
	// other in the product.
	lhsFirstAux := nfa.State(lhsSynced.NumOfStates())
	rhsFirstAux := nfa.State(rhsSynced.NumOfStates())

	if err := insertStutterLoops(lhsSynced, lhsMask); err != nil {
		return nil, err
	}
	if err := insertStutterLoops(rhsSynced, rhsMask); err != nil {
		return nil, err
	}

	gologger.Debug().Msgf("compose: joint system of %d levels, projecting out %d sync levels",
		len(lhsMask), len(levelsToProjectOut))

	result, err := Intersection(lhsSynced, rhsSynced, nil, lhsFirstAux, rhsFirstAux)
	if err != nil {
		return nil, err
	}
	return ProjectOut(result, levelsToProjectOut, jumpMode)
}

// ComposeSingle composes over one sync level per side.
func ComposeSingle(lhs, rhs *Nft, lhsSyncLevel, rhsSyncLevel Level, jumpMode JumpMode) (*Nft, error) {
	return Compose(lhs, rhs, []Level{lhsSyncLevel}, []Level{rhsSyncLevel}, jumpMode)
}

// suffixAfterLastSync counts the levels of aut after its last sync level.
func suffixAfterLastSync(aut *Nft, syncLevels []Level) int {
	return aut.NumOfLevels - 1 - int(syncLevels[len(syncLevels)-1])
}

// insertStutterLoops adds, on every level-0 state, a loop word using
// EPSILON at the automaton's own levels and DONT_CARE at the inserted
// (other side's synchronization) levels: stuttering is allowed there.
func insertStutterLoops(aut *Nft, insertedMask []bool) error {
	loopWord := make(automata.Word, aut.NumOfLevels)
	for i := range loopWord {
		if insertedMask[i] {
			loopWord[i] = automata.DontCare
		} else {
			loopWord[i] = automata.Epsilon
		}
	}
	for s := 0; s < aut.NumOfStates(); s++ {
		if aut.Levels.Get(nfa.State(s)) == 0 {
			if _, err := aut.InsertWord(nfa.State(s), loopWord, nfa.State(s)); err != nil {
				return err
			}
		}
	}
	return nil
}
