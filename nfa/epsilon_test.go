package nfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/automata"
)

func TestEpsilonClosure_Fixpoint(t *testing.T) {
	aut := FromParts(4, []State{0}, []State{3})
	aut.Delta.Add(0, automata.Epsilon, 1)
	aut.Delta.Add(1, automata.Epsilon, 2)
	aut.Delta.Add(2, symA, 3)

	closure := EpsilonClosure(aut, automata.Epsilon)
	assert.Equal(t, []State{0, 1, 2}, closure[0].Slice())
	assert.Equal(t, []State{1, 2}, closure[1].Slice())
	assert.Equal(t, []State{2}, closure[2].Slice())
	assert.Equal(t, []State{3}, closure[3].Slice())
}

func TestRemoveEpsilon(t *testing.T) {
	// 0 -ε-> 1 -a-> 2 -ε-> 3(final), 1 -ε-> 1 cycle tolerated.
	aut := FromParts(4, []State{0}, []State{3})
	aut.Delta.Add(0, automata.Epsilon, 1)
	aut.Delta.Add(1, automata.Epsilon, 1)
	aut.Delta.Add(1, symA, 2)
	aut.Delta.Add(2, automata.Epsilon, 3)

	result := RemoveEpsilon(aut, automata.Epsilon)

	used := result.Delta.GetUsedSymbols()
	assert.False(t, used.Contains(automata.Epsilon))
	assert.True(t, result.Delta.Contains(0, symA, 2))
	assert.True(t, result.Final.Contains(2), "state with final in its closure becomes final")
	assert.True(t, result.Final.Contains(3))
	assert.True(t, result.IsInLang(automata.Word{symA}))
	assert.False(t, result.IsInLang(automata.Word{}))
	requireDeltaOrdered(t, &result.Delta)
}

func TestRemoveEpsilon_EpsilonToFinalMakesInitialFinal(t *testing.T) {
	aut := FromParts(2, []State{0}, []State{1})
	aut.Delta.Add(0, automata.Epsilon, 1)

	result := RemoveEpsilon(aut, automata.Epsilon)
	require.True(t, result.Final.Contains(0))
	assert.True(t, result.IsInLang(automata.Word{}))
}
