package nft

import (
	"fmt"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
)

// IsTupleInLang decides whether the transducer has an accepting run whose
// projection to track k reads trackWords[k], one word per level.
//
// The exploration keeps a cursor per track. A transition at a state of
// level k consumes the next symbol of trackWords[k]; EPSILON transitions
// advance no cursor, DONT_CARE transitions consume one symbol of every
// track they span, matching any concrete symbol.
func (aut *Nft) IsTupleInLang(trackWords []automata.Word) (bool, error) {
	if len(trackWords) != aut.NumOfLevels {
		return false, fmt.Errorf("is_tuple_in_lang: %w: expected %d tracks, got %d",
			automata.ErrLevelMismatch, aut.NumOfLevels, len(trackWords))
	}

	allRead := func(cursors []int) bool {
		for track, cursor := range cursors {
			if cursor != len(trackWords[track]) {
				return false
			}
		}
		return true
	}

	zeroCursors := make([]int, aut.NumOfLevels)
	if allRead(zeroCursors) && aut.Final.IntersectsWith(aut.Initial) {
		return true, nil
	}
	if aut.NumOfLevels == 0 {
		return false, nil
	}

	type searchNode struct {
		state   nfa.State
		cursors []int
	}
	// Epsilon cycles make the configuration graph cyclic; visited keeps the
	// exploration finite.
	visited := make(map[string]struct{})
	nodeKey := func(state nfa.State, cursors []int) string {
		buf := make([]byte, 0, 4+len(cursors)*4)
		buf = append(buf, byte(state), byte(state>>8), byte(state>>16), byte(state>>24))
		for _, c := range cursors {
			buf = append(buf, byte(c), byte(c>>8), byte(c>>16), byte(c>>24))
		}
		return string(buf)
	}

	worklist := make([]searchNode, 0, aut.Initial.Len())
	enqueue := func(state nfa.State, cursors []int) {
		key := nodeKey(state, cursors)
		if _, ok := visited[key]; ok {
			return
		}
		visited[key] = struct{}{}
		worklist = append(worklist, searchNode{state: state, cursors: cursors})
	}
	for _, state := range aut.Initial.Values() {
		enqueue(state, zeroCursors)
	}

	numOfLevels := Level(aut.NumOfLevels)
	for len(worklist) > 0 {
		node := worklist[0]
		worklist = worklist[1:]
		level := aut.Levels.Get(node.state)
		statePost := aut.Delta.StatePost(node.state)

		if pos, found := statePost.Find(automata.Epsilon); found {
			for _, target := range statePost[pos].Targets.Slice() {
				if allRead(node.cursors) && aut.Final.Contains(target) {
					return true, nil
				}
				enqueue(target, node.cursors)
			}
		}

		if node.cursors[level] == len(trackWords[level]) {
			continue
		}
		symbol := trackWords[level][node.cursors[level]]

		if pos, found := statePost.Find(automata.DontCare); found && symbol != automata.Epsilon {
			for _, target := range statePost[pos].Targets.Slice() {
				next := append([]int(nil), node.cursors...)
				spanLevel := level
				exhausted := false
				for {
					if next[spanLevel] == len(trackWords[spanLevel]) {
						exhausted = true
					}
					next[spanLevel]++
					spanLevel = (spanLevel + 1) % numOfLevels
					if spanLevel == aut.Levels.Get(target) || exhausted {
						break
					}
				}
				if exhausted {
					continue
				}
				if allRead(next) && aut.Final.Contains(target) {
					return true, nil
				}
				enqueue(target, next)
			}
		}

		if symbol != automata.DontCare && symbol != automata.Epsilon {
			if pos, found := statePost.Find(symbol); found {
				for _, target := range statePost[pos].Targets.Slice() {
					next := append([]int(nil), node.cursors...)
					next[level]++
					if allRead(next) && aut.Final.Contains(target) {
						return true, nil
					}
					enqueue(target, next)
				}
			}
		}
	}
	return false, nil
}
