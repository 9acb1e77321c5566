package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
	"github.com/coregx/automata/nft"
)

func TestParseNfa_Basic(t *testing.T) {
	input := `@NFA-explicit
%Alphabet-auto
%Initial q0
%Final q2
q0 a q1
q1 b q2
q1 a q0
`
	aut, err := ParseNfa(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, aut.NumOfStates())
	assert.True(t, aut.Initial.Contains(0))
	assert.True(t, aut.Final.Contains(2))
	assert.Equal(t, 3, aut.Delta.NumOfTransitions())
	// On-the-fly alphabet: a -> 0, b -> 1 in order of first use.
	assert.True(t, aut.IsInLang(automata.Word{0, 1}))
	assert.True(t, aut.IsInLang(automata.Word{0, 0, 0, 1}))
	assert.False(t, aut.IsInLang(automata.Word{1}))
}

func TestParseNfa_FreshStatePerDistinctName(t *testing.T) {
	input := `@NFA-explicit
%Initial start
%Final stop
start go stop
stop go start
`
	aut, err := ParseNfa(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, aut.NumOfStates())
	assert.True(t, aut.Delta.Contains(0, 0, 1))
	assert.True(t, aut.Delta.Contains(1, 0, 0))
}

func TestParseNfa_FinalTrueFalse(t *testing.T) {
	allFinal, err := ParseNfa(strings.NewReader("@NFA-explicit\n%Initial q0\n%Final \\true\nq0 a q1\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, allFinal.Final.Len())

	noneFinal, err := ParseNfa(strings.NewReader("@NFA-explicit\n%Initial q0\n%Final \\false\nq0 a q1\n"), nil)
	require.NoError(t, err)
	assert.True(t, noneFinal.Final.Empty())
}

func TestParseNfa_FinalNegatedConjunction(t *testing.T) {
	input := `@NFA-explicit
%Initial q0
%Final !q0 & !q1
q0 a q1
q1 a q2
q2 a q3
`
	aut, err := ParseNfa(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.False(t, aut.Final.Contains(0))
	assert.False(t, aut.Final.Contains(1))
	assert.True(t, aut.Final.Contains(2))
	assert.True(t, aut.Final.Contains(3))
}

func TestParseNfa_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"unknown header", "@WFA-explicit\nq0 a q1\n"},
		{"missing header", "%Initial q0\n"},
		{"epsilon transition line", "@NFA-explicit\nq0 q1\n"},
		{"wrong arity", "@NFA-explicit\nq0 a b q1\n"},
		{"unknown directive", "@NFA-explicit\n%Magic q0\n"},
		{"bad final expression", "@NFA-explicit\n%Final !q0 q1\nq0 a q1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseNfa(strings.NewReader(tc.input), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, automata.ErrParse))
		})
	}
}

func TestParseNft_LevelsAndCount(t *testing.T) {
	input := `@NFT-explicit
%Alphabet-auto
%Initial q0
%Final q0
%Levels q0:0 q1:1
%LevelsCnt 2
q0 a q1
q1 x q0
`
	aut, err := ParseNft(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, aut.NumOfLevels)
	assert.Equal(t, nft.Level(0), aut.Levels.Get(0))
	assert.Equal(t, nft.Level(1), aut.Levels.Get(1))

	ok, err := aut.IsTupleInLang([]automata.Word{{0}, {1}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseNft_UnlistedStatesDefaultToLevelZero(t *testing.T) {
	input := `@NFT-explicit
%Initial q0
%Final q2
%Levels q1:1
%LevelsCnt 2
q0 a q1
q1 b q2
`
	aut, err := ParseNft(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, nft.Level(0), aut.Levels.Get(0))
	assert.Equal(t, nft.Level(1), aut.Levels.Get(1))
	assert.Equal(t, nft.Level(0), aut.Levels.Get(2))
}

func TestParseNft_RejectsNfaHeader(t *testing.T) {
	_, err := ParseNft(strings.NewReader("@NFA-explicit\nq0 a q1\n"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, automata.ErrParse))
}

func TestParseNft_LevelOutOfRange(t *testing.T) {
	input := "@NFT-explicit\n%Levels q0:5\n%LevelsCnt 2\nq0 a q1\n"
	_, err := ParseNft(strings.NewReader(input), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, automata.ErrParse))
}

func TestWriteNfa_RoundTrip(t *testing.T) {
	aut := nfa.FromParts(3, []nfa.State{0}, []nfa.State{2})
	aut.Delta.Add(0, 0, 1)
	aut.Delta.Add(1, 1, 2)
	aut.Delta.Add(1, 0, 1)

	var out strings.Builder
	require.NoError(t, WriteNfa(&out, aut))

	parsed, err := ParseNfa(strings.NewReader(out.String()), automata.NewIntAlphabet(2))
	require.NoError(t, err)
	assert.True(t, aut.IsIdentical(parsed))
}

func TestWriteNft_RoundTrip(t *testing.T) {
	aut := nft.New(2, 2)
	aut.Initial.Insert(0)
	aut.Final.Insert(0)
	aut.Levels.Set(1, 1)
	aut.Delta.Add(0, 0, 1)
	aut.Delta.Add(1, 1, 0)

	var out strings.Builder
	require.NoError(t, WriteNft(&out, aut))
	assert.Contains(t, out.String(), "%LevelsCnt 2")

	parsed, err := ParseNft(strings.NewReader(out.String()), automata.NewIntAlphabet(2))
	require.NoError(t, err)
	assert.True(t, aut.IsIdentical(parsed))
}
