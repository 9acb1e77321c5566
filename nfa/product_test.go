package nfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/automata"
)

func TestIntersection_AStarBStarWithAnyStarA(t *testing.T) {
	// a*b* ∩ (a+b)*a = a+.
	product := Intersection(aStarBStar(), anyStarA(), nil)

	assert.True(t, product.IsInLang(automata.Word{symA}))
	assert.True(t, product.IsInLang(automata.Word{symA, symA, symA}))
	assert.False(t, product.IsInLang(automata.Word{}))
	assert.False(t, product.IsInLang(automata.Word{symB}))
	assert.False(t, product.IsInLang(automata.Word{symA, symB}))
	requireDeltaOrdered(t, &product.Delta)
}

func TestIntersection_Commutes(t *testing.T) {
	lhs := Intersection(aStarBStar(), anyStarA(), nil)
	rhs := Intersection(anyStarA(), aStarBStar(), nil)

	words := []automata.Word{
		{}, {symA}, {symB}, {symA, symA}, {symA, symB},
		{symB, symA}, {symA, symA, symB},
	}
	for _, word := range words {
		assert.Equal(t, lhs.IsInLang(word), rhs.IsInLang(word), "word %v", word)
	}
}

func TestIntersection_EmptyOperandShortCircuits(t *testing.T) {
	product := Intersection(New(0), aStarBStar(), nil)
	empty, _ := product.IsLangEmpty()
	assert.True(t, empty)
	assert.Equal(t, 0, product.NumOfStates())
}

func TestIntersection_ProductMap(t *testing.T) {
	productMap := make(ProductMap)
	product := Intersection(aStarBStar(), anyStarA(), productMap)

	require.NotEmpty(t, productMap)
	init, ok := productMap[StatePair{Lhs: 0, Rhs: 0}]
	require.True(t, ok)
	assert.True(t, product.Initial.Contains(init))
}

func TestProduct_FinalCondition(t *testing.T) {
	// Pair final iff lhs state is final, regardless of rhs.
	lhs := aStarBStar()
	rhs := anyStarA()
	product := Product(lhs, rhs, func(l, _ State) bool {
		return lhs.Final.Contains(l)
	}, nil)

	// b is in a*b* and in the graph of rhs, so the product accepts it.
	assert.True(t, product.IsInLang(automata.Word{symB}))
}

func TestProductStorage_MatrixAndVecMapAgree(t *testing.T) {
	matrix := NewProductStorage(3, 3, nil)
	require.NotNil(t, matrix.matrix)

	huge := NewProductStorage(10_000, 10_000, nil)
	require.Nil(t, huge.matrix)

	for _, storage := range []*ProductStorage{matrix, huge} {
		assert.Equal(t, MaxState, storage.Get(1, 2))
		storage.Put(1, 2, 0)
		storage.Put(2, 0, 1)
		assert.Equal(t, State(0), storage.Get(1, 2))
		assert.Equal(t, State(1), storage.Get(2, 0))
		lhs, rhs := storage.Pair(1)
		assert.Equal(t, State(2), lhs)
		assert.Equal(t, State(0), rhs)
	}
}
