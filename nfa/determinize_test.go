package nfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/automata"
	"github.com/coregx/automata/sets"
)

func TestDeterminize_SingleTransition(t *testing.T) {
	aut := FromParts(3, []State{1}, []State{2})
	aut.Delta.Add(1, symA, 2)

	subsetMap := NewSubsetMap()
	det := Determinize(aut, subsetMap)

	assert.Equal(t, 2, det.NumOfStates())
	assert.True(t, det.IsDeterministic())

	initial, ok := subsetMap.Get(sets.NewOrdVector[State](1))
	require.True(t, ok)
	assert.True(t, det.Initial.Contains(initial))

	final, ok := subsetMap.Get(sets.NewOrdVector[State](2))
	require.True(t, ok)
	assert.True(t, det.Final.Contains(final))

	assert.Equal(t, 1, det.Delta.NumOfTransitions())
	assert.True(t, det.Delta.Contains(initial, symA, final))
}

func TestDeterminize_MergesTargets(t *testing.T) {
	// 0 -a-> 1 and 0 -a-> 2; the subsets {0}, {1,2} are the result states.
	aut := FromParts(3, []State{0}, []State{2})
	aut.Delta.Add(0, symA, 1)
	aut.Delta.Add(0, symA, 2)
	aut.Delta.Add(1, symB, 2)
	aut.Delta.Add(2, symB, 1)

	subsetMap := NewSubsetMap()
	det := Determinize(aut, subsetMap)
	assert.True(t, det.IsDeterministic())

	_, ok := subsetMap.Get(sets.NewOrdVector[State](1, 2))
	assert.True(t, ok)
}

func TestDeterminize_PreservesLanguage(t *testing.T) {
	aut := anyStarA()
	det := Determinize(aut, nil)
	require.True(t, det.IsDeterministic())

	words := []automata.Word{
		{}, {symA}, {symB}, {symA, symA}, {symB, symA},
		{symA, symB}, {symB, symA, symB, symA},
	}
	for _, word := range words {
		assert.Equal(t, aut.IsInLang(word), det.IsInLang(word), "word %v", word)
	}
}

func TestDeterminize_EmptyAutomaton(t *testing.T) {
	aut := New(0)
	det := Determinize(aut, nil)
	assert.Equal(t, 1, det.NumOfStates())
	assert.Equal(t, 1, det.Initial.Len())
	empty, _ := det.IsLangEmpty()
	assert.True(t, empty)
}

func TestDeterminize_TreatsEpsilonAsOrdinarySymbol(t *testing.T) {
	aut := FromParts(2, []State{0}, []State{1})
	aut.Delta.Add(0, automata.Epsilon, 1)
	det := Determinize(aut, nil)
	// The epsilon edge survives as a normal transition.
	assert.Equal(t, 1, det.Delta.NumOfTransitions())
	assert.False(t, det.IsInLang(automata.Word{}))
	assert.True(t, det.IsInLang(automata.Word{automata.Epsilon}))
}
