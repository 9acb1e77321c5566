package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdVector_InsertKeepsOrder(t *testing.T) {
	var v OrdVector[uint32]
	require.True(t, v.Insert(5))
	require.True(t, v.Insert(2))
	require.True(t, v.Insert(8))
	require.False(t, v.Insert(5))

	assert.Equal(t, []uint32{2, 5, 8}, v.Slice())
	assert.True(t, v.Contains(2))
	assert.False(t, v.Contains(3))
	assert.Equal(t, 3, v.Len())
}

func TestOrdVector_NewSortsAndDedups(t *testing.T) {
	v := NewOrdVector[uint32](3, 1, 3, 2, 1)
	assert.Equal(t, []uint32{1, 2, 3}, v.Slice())
}

func TestOrdVector_PushBack(t *testing.T) {
	v := WithReserved[uint32](4)
	v.PushBack(1)
	v.PushBack(4)
	v.PushBack(9)
	assert.Equal(t, []uint32{1, 4, 9}, v.Slice())

	// Out-of-order input falls back to ordered insertion.
	v.PushBack(2)
	assert.Equal(t, []uint32{1, 2, 4, 9}, v.Slice())
}

func TestOrdVector_UnionIntersectSubtract(t *testing.T) {
	a := NewOrdVector[uint32](1, 3, 5, 7)
	b := NewOrdVector[uint32](3, 4, 7, 8)

	u := a.Clone()
	u.Union(b)
	assert.Equal(t, []uint32{1, 3, 4, 5, 7, 8}, u.Slice())

	assert.Equal(t, []uint32{3, 7}, a.Intersect(b).Slice())
	assert.Equal(t, []uint32{1, 5}, a.Subtract(b).Slice())
	assert.True(t, a.Intersects(b))
	assert.False(t, NewOrdVector[uint32](2).Intersects(a))
}

func TestOrdVector_SubsetAndEqual(t *testing.T) {
	a := NewOrdVector[uint32](2, 4)
	b := NewOrdVector[uint32](1, 2, 4, 6)
	assert.True(t, a.IsSubsetOf(b))
	assert.False(t, b.IsSubsetOf(a))
	assert.True(t, a.Equal(NewOrdVector[uint32](4, 2)))
	assert.True(t, NewOrdVector[uint32]().IsSubsetOf(a))
}

func TestOrdVector_Erase(t *testing.T) {
	v := NewOrdVector[uint32](1, 2, 3)
	require.True(t, v.Erase(2))
	require.False(t, v.Erase(2))
	assert.Equal(t, []uint32{1, 3}, v.Slice())
}
