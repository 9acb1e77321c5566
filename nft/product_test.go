package nft

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
)

func TestIntersection_LevelMismatch(t *testing.T) {
	_, err := Intersection(New(0, 2), New(0, 3), nil, nfa.MaxState, nfa.MaxState)
	require.Error(t, err)
	assert.True(t, errors.Is(err, automata.ErrLevelMismatch))
}

func TestIntersection_SameLevelBehavesAsNfaProduct(t *testing.T) {
	lhs := replacer(t, map[automata.Symbol]automata.Symbol{symA: symX, symB: symB})
	rhs := replacer(t, map[automata.Symbol]automata.Symbol{symA: symX})

	product, err := Intersection(lhs, rhs, nil, nfa.MaxState, nfa.MaxState)
	require.NoError(t, err)

	ok, err := product.IsTupleInLang([]automata.Word{{symA, symA}, {symX, symX}})
	require.NoError(t, err)
	assert.True(t, ok)

	// Only lhs relates b/b, so the intersection must reject it.
	ok, err = product.IsTupleInLang([]automata.Word{{symB}, {symB}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProduct_DontCareMatchesConcreteSymbol(t *testing.T) {
	// lhs accepts any single symbol via DONT_CARE; rhs insists on a.
	lhs := New(2, 1)
	lhs.Initial.Insert(0)
	lhs.Final.Insert(1)
	lhs.Delta.Add(0, automata.DontCare, 1)

	rhs := New(2, 1)
	rhs.Initial.Insert(0)
	rhs.Final.Insert(1)
	rhs.Delta.Add(0, symA, 1)

	product, err := Intersection(lhs, rhs, nil, nfa.MaxState, nfa.MaxState)
	require.NoError(t, err)

	// The concrete symbol wins and labels the product transition.
	assert.True(t, product.IsInLang(automata.Word{symA}))
	used := product.Delta.GetUsedSymbols()
	assert.False(t, used.Contains(automata.DontCare))
}

func TestProduct_DontCareOnBothSides(t *testing.T) {
	mk := func() *Nft {
		aut := New(2, 1)
		aut.Initial.Insert(0)
		aut.Final.Insert(1)
		aut.Delta.Add(0, automata.DontCare, 1)
		return aut
	}
	product, err := Intersection(mk(), mk(), nil, nfa.MaxState, nfa.MaxState)
	require.NoError(t, err)
	assert.True(t, product.IsInLang(automata.Word{automata.DontCare}))
}

func TestProduct_LevelOrderingOfPairs(t *testing.T) {
	// lhs jumps over level 1 (a jump transition from level 0 to level 0),
	// rhs steps through both levels; the lagging side advances alone.
	lhs := New(1, 2)
	lhs.Initial.Insert(0)
	lhs.Final.Insert(0)
	lhs.Delta.Add(0, symA, 0) // jump over both levels

	rhs := replacer(t, map[automata.Symbol]automata.Symbol{symA: symA})

	product, err := Intersection(lhs, rhs, nil, nfa.MaxState, nfa.MaxState)
	require.NoError(t, err)
	requireLevelsConsistent(t, product)

	ok, err := product.IsTupleInLang([]automata.Word{{symA}, {symA}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProduct_AuxThresholdSuppressesPairs(t *testing.T) {
	lhs := New(2, 1)
	lhs.Initial.Insert(0)
	lhs.Final.Insert(1)
	lhs.Delta.Add(0, symA, 1)

	rhs := New(2, 1)
	rhs.Initial.Insert(0)
	rhs.Final.Insert(1)
	rhs.Delta.Add(0, symA, 1)

	// Both targets are auxiliary: the pair (1, 1) must not be minted.
	product, err := Intersection(lhs, rhs, nil, 1, 1)
	require.NoError(t, err)
	empty, _ := product.IsLangEmpty()
	assert.True(t, empty)
}
