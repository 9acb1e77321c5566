package nft

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/automata"
)

func TestCompose_ReplacementChain(t *testing.T) {
	// T1 rewrites a to x on its output track and keeps b; T2 rewrites x
	// to z and keeps b. Their composition maps aab to zzb.
	t1 := replacer(t, map[automata.Symbol]automata.Symbol{symA: symX, symB: symB})
	t2 := replacer(t, map[automata.Symbol]automata.Symbol{symX: symZ, symB: symB})

	composed, err := Compose(t1, t2, []Level{1}, []Level{0}, JumpModeRepeatSymbol)
	require.NoError(t, err)
	require.Equal(t, 2, composed.NumOfLevels)
	requireLevelsConsistent(t, composed)

	ok, err := composed.IsTupleInLang([]automata.Word{{symA, symA, symB}, {symZ, symZ, symB}})
	require.NoError(t, err)
	assert.True(t, ok, "compose must accept (aab, zzb)")

	ok, err = composed.IsTupleInLang([]automata.Word{{symA, symA, symB}, {symZ, symZ, symZ}})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = composed.IsTupleInLang([]automata.Word{{symB}, {symB}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompose_ExistentialMiddleTrack(t *testing.T) {
	// T1 relates a to x only; T2 relates x to z and b to b. Composition
	// must relate a to z (witness y = x) and nothing else.
	t1 := replacer(t, map[automata.Symbol]automata.Symbol{symA: symX})
	t2 := replacer(t, map[automata.Symbol]automata.Symbol{symX: symZ, symB: symB})

	composed, err := Compose(t1, t2, []Level{1}, []Level{0}, JumpModeRepeatSymbol)
	require.NoError(t, err)

	ok, err := composed.IsTupleInLang([]automata.Word{{symA}, {symZ}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = composed.IsTupleInLang([]automata.Word{{symB}, {symB}})
	require.NoError(t, err)
	assert.False(t, ok, "b is not in T1's domain")
}

func TestCompose_EmptyWordPair(t *testing.T) {
	t1 := replacer(t, map[automata.Symbol]automata.Symbol{symA: symX})
	t2 := replacer(t, map[automata.Symbol]automata.Symbol{symX: symZ})

	composed, err := Compose(t1, t2, []Level{1}, []Level{0}, JumpModeRepeatSymbol)
	require.NoError(t, err)

	ok, err := composed.IsTupleInLang([]automata.Word{{}, {}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompose_RequiresSyncLevels(t *testing.T) {
	t1 := New(1, 2)
	_, err := Compose(t1, t1, nil, nil, JumpModeRepeatSymbol)
	require.Error(t, err)
	assert.True(t, errors.Is(err, automata.ErrEmptyInput))

	_, err = Compose(t1, t1, []Level{1}, []Level{0, 1}, JumpModeRepeatSymbol)
	require.Error(t, err)
	assert.True(t, errors.Is(err, automata.ErrLevelMismatch))
}

func TestComposeSingle_DelegatesToCompose(t *testing.T) {
	t1 := replacer(t, map[automata.Symbol]automata.Symbol{symA: symX})
	t2 := replacer(t, map[automata.Symbol]automata.Symbol{symX: symZ})

	a, err := ComposeSingle(t1, t2, 1, 0, JumpModeRepeatSymbol)
	require.NoError(t, err)
	b, err := Compose(t1, t2, []Level{1}, []Level{0}, JumpModeRepeatSymbol)
	require.NoError(t, err)
	assert.True(t, a.IsIdentical(b))
}
