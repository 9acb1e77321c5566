package nfa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/automata"
)

// requireDeltaOrdered checks the ordering invariants: strictly ascending
// symbols per row, strictly ascending targets per symbol, no empty
// symbol posts.
func requireDeltaOrdered(t *testing.T, d *Delta) {
	t.Helper()
	for s := 0; s < d.NumOfStates(); s++ {
		post := d.StatePost(State(s))
		for i, sp := range post {
			require.False(t, sp.Targets.Empty(), "state %d symbol %d has no targets", s, sp.Symbol)
			if i > 0 {
				require.Less(t, post[i-1].Symbol, sp.Symbol, "symbols of state %d not strictly ascending", s)
			}
			targets := sp.Targets.Slice()
			for j := 1; j < len(targets); j++ {
				require.Less(t, targets[j-1], targets[j], "targets of state %d not strictly ascending", s)
			}
		}
	}
}

func TestDelta_AddIsIdempotentAndOrdered(t *testing.T) {
	d := NewDelta(0)
	d.Add(0, 7, 3)
	d.Add(0, 2, 5)
	d.Add(0, 7, 1)
	d.Add(0, 7, 3)
	d.Add(2, 0, 0)

	requireDeltaOrdered(t, d)
	assert.Equal(t, 4, d.NumOfTransitions())
	assert.True(t, d.Contains(0, 7, 3))
	assert.True(t, d.Contains(0, 2, 5))
	assert.False(t, d.Contains(0, 2, 1))
	assert.False(t, d.Contains(9, 2, 1))
}

func TestDelta_RemoveDropsEmptySymbolPost(t *testing.T) {
	d := NewDelta(0)
	d.Add(0, 1, 2)
	d.Add(0, 1, 3)
	d.Add(0, 4, 2)

	require.NoError(t, d.Remove(0, 1, 2))
	require.NoError(t, d.Remove(0, 1, 3))
	requireDeltaOrdered(t, d)
	assert.Len(t, d.StatePost(0), 1)

	err := d.Remove(0, 1, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, automata.ErrInvalidTransition))

	err = d.Remove(5, 0, 0)
	assert.True(t, errors.Is(err, automata.ErrInvalidTransition))
}

func TestDelta_ConstAccessNeverGrows(t *testing.T) {
	d := NewDelta(2)
	assert.Nil(t, d.StatePost(10))
	assert.Equal(t, 2, d.NumOfStates())

	d.MutableStatePost(10)
	assert.Equal(t, 11, d.NumOfStates())
}

func TestDelta_TransitionsLexicographic(t *testing.T) {
	d := NewDelta(0)
	d.Add(1, 3, 0)
	d.Add(0, 2, 2)
	d.Add(0, 1, 1)
	d.Add(0, 1, 0)
	d.Add(3, 0, 3)

	var got []Transition
	for it := d.Transitions(); it.Next(); {
		got = append(got, it.Current())
	}
	want := []Transition{
		{0, 1, 0}, {0, 1, 1}, {0, 2, 2},
		{1, 3, 0},
		{3, 0, 3},
	}
	assert.Equal(t, want, got)
}

func TestDelta_UsedSymbolsImplementationsAgree(t *testing.T) {
	d := NewDelta(0)
	d.Add(0, 3, 1)
	d.Add(0, automata.Epsilon, 1)
	d.Add(1, 0, 0)
	d.Add(1, automata.DontCare, 2)
	d.Add(2, 3, 2)

	bitvector := d.GetUsedSymbols()
	hashset := d.usedSymbolsHashset()
	ordvector := d.usedSymbolsOrdVector()

	assert.Equal(t, bitvector.Slice(), hashset.Slice())
	assert.Equal(t, bitvector.Slice(), ordvector.Slice())
	assert.Equal(t,
		[]automata.Symbol{0, 3, automata.DontCare, automata.Epsilon},
		bitvector.Slice())
}

func TestDelta_EpsilonSortsLast(t *testing.T) {
	d := NewDelta(0)
	d.Add(0, automata.Epsilon, 1)
	d.Add(0, 5, 1)
	d.Add(0, automata.DontCare, 1)

	post := d.StatePost(0)
	require.Len(t, post, 3)
	assert.Equal(t, automata.Symbol(5), post[0].Symbol)
	assert.Equal(t, automata.DontCare, post[1].Symbol)
	assert.Equal(t, automata.Epsilon, post[2].Symbol)
}

func TestDelta_RenumberTargets(t *testing.T) {
	d := NewDelta(0)
	d.Add(0, 1, 0)
	d.Add(0, 1, 2)
	d.Add(1, 0, 1)

	rows := d.RenumberTargets(func(s State) State { return s + 10 })
	require.Len(t, rows, d.NumOfStates())
	assert.Equal(t, []State{10, 12}, rows[0][0].Targets.Slice())
	assert.Equal(t, []State{11}, rows[1][0].Targets.Slice())
	// The original store is untouched.
	assert.True(t, d.Contains(0, 1, 0))
}

func TestDelta_Defragment(t *testing.T) {
	d := NewDelta(0)
	// 0 -a-> 1 -a-> 2, 1 -b-> 3, state 2 dead.
	d.Add(0, 0, 1)
	d.Add(1, 0, 2)
	d.Add(1, 1, 3)
	d.Add(3, 0, 3)

	useful := []bool{true, true, false, true}
	rename := []State{0, 1, 0, 2}
	d.Defragment(useful, rename)

	requireDeltaOrdered(t, d)
	assert.Equal(t, 3, d.NumOfStates())
	assert.True(t, d.Contains(0, 0, 1))
	assert.True(t, d.Contains(1, 1, 2))
	assert.True(t, d.Contains(2, 0, 2))
	assert.Equal(t, 3, d.NumOfTransitions())
}

func TestDelta_CloneIsDeep(t *testing.T) {
	d := NewDelta(0)
	d.Add(0, 1, 1)
	clone := d.Clone()
	clone.Add(0, 1, 2)
	assert.False(t, d.Contains(0, 1, 2))
	assert.True(t, d.IsIdentical(d))
	assert.False(t, d.IsIdentical(clone))
}

func TestDelta_IsIdenticalIgnoresTrailingEmptyRows(t *testing.T) {
	a := NewDelta(2)
	b := NewDelta(7)
	a.Add(0, 1, 1)
	b.Add(0, 1, 1)
	assert.True(t, a.IsIdentical(b))
}
