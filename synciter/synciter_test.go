package synciter

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectUniversal(t *testing.T, seqs ...[]int) []int {
	t.Helper()
	it := NewUniversal(cmp.Compare[int], len(seqs))
	for _, seq := range seqs {
		it.PushBack(seq)
	}
	var out []int
	for it.Advance() {
		current := it.Current()
		require.Len(t, current, len(seqs))
		for _, v := range current[1:] {
			require.Equal(t, current[0], v)
		}
		out = append(out, current[0])
	}
	return out
}

func TestUniversal_CommonMinima(t *testing.T) {
	assert.Equal(t, []int{3, 7},
		collectUniversal(t, []int{1, 3, 5, 7}, []int{3, 4, 7}, []int{2, 3, 7, 9}))
}

func TestUniversal_NoCommonValue(t *testing.T) {
	assert.Empty(t, collectUniversal(t, []int{1, 3}, []int{2, 4}))
}

func TestUniversal_SingleSequence(t *testing.T) {
	assert.Equal(t, []int{2, 4, 6}, collectUniversal(t, []int{2, 4, 6}))
}

func TestUniversal_EmptyEnrollment(t *testing.T) {
	it := NewUniversal(cmp.Compare[int], 0)
	assert.False(t, it.Advance())
}

func TestUniversal_EmptySequenceBlocksAll(t *testing.T) {
	assert.Empty(t, collectUniversal(t, []int{1, 2}, nil))
}

func TestUniversal_Reset(t *testing.T) {
	it := NewUniversal(cmp.Compare[int], 2)
	it.PushBack([]int{1, 2})
	it.PushBack([]int{2, 3})
	require.True(t, it.Advance())
	require.Equal(t, 2, it.Current()[0])

	it.Reset()
	it.PushBack([]int{5, 9})
	it.PushBack([]int{9})
	require.True(t, it.Advance())
	assert.Equal(t, 9, it.Current()[0])
	assert.False(t, it.Advance())
}

func TestExistential_UnionMinima(t *testing.T) {
	it := NewExistential(cmp.Compare[int], 3)
	it.PushBack([]int{1, 4})
	it.PushBack([]int{2, 4, 6})
	it.PushBack(nil) // skipped

	var minima []int
	var widths []int
	for it.Advance() {
		current := it.Current()
		minima = append(minima, current[0])
		widths = append(widths, len(current))
	}
	assert.Equal(t, []int{1, 2, 4, 6}, minima)
	assert.Equal(t, []int{1, 1, 2, 1}, widths)
}

func TestExistential_Empty(t *testing.T) {
	it := NewExistential(cmp.Compare[int], 0)
	assert.False(t, it.Advance())
}

func TestExistential_Reset(t *testing.T) {
	it := NewExistential(cmp.Compare[int], 2)
	it.PushBack([]int{1})
	require.True(t, it.Advance())
	require.False(t, it.Advance())

	it.Reset()
	it.PushBack([]int{3, 5})
	it.PushBack([]int{5})
	require.True(t, it.Advance())
	assert.Equal(t, []int{3}, it.Current())
	require.True(t, it.Advance())
	assert.Len(t, it.Current(), 2)
	assert.False(t, it.Advance())
}
