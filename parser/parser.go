// Package parser reads and writes the explicit textual interchange format
// of the automata library: @NFA-explicit for automata and @NFT-explicit
// for transducers. Sections are introduced by %-directives, the body holds
// one "src sym tgt" transition per line, and every distinct state name
// allocates a fresh state.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
	"github.com/coregx/automata/nft"
)

const (
	nfaHeader = "@NFA-explicit"
	nftHeader = "@NFT-explicit"
)

// document is the raw parsed shape shared by automata and transducers.
type document struct {
	header      string
	initial     []string
	finalTokens []string
	levels      map[string]nft.Level
	levelsCnt   int
	hasLevels   bool
	body        [][]string
}

func readDocument(r io.Reader) (*document, error) {
	doc := &document{levels: make(map[string]nft.Level)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "@") {
			if doc.header != "" {
				return nil, &automata.ParseError{Line: lineNo, Message: "duplicate type header " + line}
			}
			doc.header = line
			continue
		}
		if doc.header == "" {
			return nil, &automata.ParseError{Line: lineNo, Message: "missing type header"}
		}

		if strings.HasPrefix(line, "%") {
			fields := strings.Fields(line)
			switch fields[0] {
			case "%Alphabet-auto":
				// Symbols are integers; nothing to record.
			case "%Initial":
				doc.initial = append(doc.initial, fields[1:]...)
			case "%Final":
				doc.finalTokens = append(doc.finalTokens, fields[1:]...)
			case "%Levels":
				doc.hasLevels = true
				for _, field := range fields[1:] {
					name, levelStr, ok := strings.Cut(field, ":")
					if !ok {
						return nil, &automata.ParseError{Line: lineNo, Message: "malformed level assignment " + field}
					}
					level, err := strconv.ParseUint(levelStr, 10, 32)
					if err != nil {
						return nil, &automata.ParseError{Line: lineNo, Message: "malformed level in " + field}
					}
					doc.levels[name] = nft.Level(level)
				}
			case "%LevelsCnt":
				if len(fields) != 2 {
					return nil, &automata.ParseError{Line: lineNo, Message: "%LevelsCnt expects one value"}
				}
				cnt, err := strconv.Atoi(fields[1])
				if err != nil || cnt < 1 {
					return nil, &automata.ParseError{Line: lineNo, Message: "malformed %LevelsCnt value " + fields[1]}
				}
				doc.levelsCnt = cnt
				doc.hasLevels = true
			default:
				return nil, &automata.ParseError{Line: lineNo, Message: "unknown directive " + fields[0]}
			}
			continue
		}

		fields := strings.Fields(line)
		switch len(fields) {
		case 3:
			doc.body = append(doc.body, fields)
		case 2:
			return nil, &automata.ParseError{Line: lineNo,
				Message: "epsilon transitions are not supported in the explicit format"}
		default:
			return nil, &automata.ParseError{Line: lineNo,
				Message: fmt.Sprintf("transition line must have 3 fields, got %d", len(fields))}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &automata.ParseError{Message: err.Error()}
	}
	if doc.header == "" {
		return nil, &automata.ParseError{Message: "missing type header"}
	}
	return doc, nil
}

// stateNames allocates a fresh dense state per distinct name, in first-use
// order.
type stateNames struct {
	byName map[string]nfa.State
	order  []string
}

func newStateNames() *stateNames {
	return &stateNames{byName: make(map[string]nfa.State)}
}

func (n *stateNames) get(name string) nfa.State {
	if state, ok := n.byName[name]; ok {
		return state
	}
	state := nfa.State(len(n.order))
	n.byName[name] = state
	n.order = append(n.order, name)
	return state
}

// resolveFinal evaluates the %Final tokens. Supported forms: a plain list
// of state names, \true (all states), \false (no state), and conjunctions
// of negated state literals like "!q0 & !q1".
func resolveFinal(tokens []string, names *stateNames, final func(nfa.State)) error {
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) == 1 && tokens[0] == `\false` {
		return nil
	}
	if len(tokens) == 1 && tokens[0] == `\true` {
		for _, name := range names.order {
			final(names.byName[name])
		}
		return nil
	}

	negated := false
	for _, token := range tokens {
		if strings.HasPrefix(token, "!") {
			negated = true
			break
		}
	}
	if !negated {
		for _, token := range tokens {
			final(names.get(token))
		}
		return nil
	}

	excluded := make(map[nfa.State]struct{})
	expectLiteral := true
	for _, token := range tokens {
		if expectLiteral {
			if !strings.HasPrefix(token, "!") || len(token) == 1 {
				return &automata.ParseError{Message: "unsupported %Final expression token " + token}
			}
			excluded[names.get(token[1:])] = struct{}{}
			expectLiteral = false
			continue
		}
		if token != "&" {
			return &automata.ParseError{Message: "unsupported %Final expression token " + token}
		}
		expectLiteral = true
	}
	if expectLiteral {
		return &automata.ParseError{Message: "dangling & in %Final expression"}
	}
	for _, name := range names.order {
		state := names.byName[name]
		if _, ok := excluded[state]; !ok {
			final(state)
		}
	}
	return nil
}

// buildBody translates the transition lines, allocating states and
// symbols.
func buildBody(doc *document, names *stateNames, alphabet automata.Alphabet,
	add func(nfa.State, automata.Symbol, nfa.State)) error {
	for _, line := range doc.body {
		source := names.get(line[0])
		symbol, err := alphabet.TranslateSymbol(line[1])
		if err != nil {
			return err
		}
		target := names.get(line[2])
		add(source, symbol, target)
	}
	return nil
}

// ParseNfa reads an @NFA-explicit section. alphabet may be nil; an
// on-the-fly alphabet is then created and attached to the result.
func ParseNfa(r io.Reader, alphabet automata.Alphabet) (*nfa.Nfa, error) {
	doc, err := readDocument(r)
	if err != nil {
		return nil, err
	}
	if doc.header != nfaHeader {
		return nil, &automata.ParseError{Message: "expecting type " + nfaHeader + ", got " + doc.header}
	}
	if alphabet == nil {
		alphabet = automata.NewOnTheFlyAlphabet()
	}

	names := newStateNames()
	aut := nfa.New(0)
	aut.Alphabet = alphabet

	for _, name := range doc.initial {
		aut.Initial.Insert(names.get(name))
	}
	if err := buildBody(doc, names, alphabet, aut.Delta.Add); err != nil {
		return nil, err
	}
	if err := resolveFinal(doc.finalTokens, names, func(s nfa.State) { aut.Final.Insert(s) }); err != nil {
		return nil, err
	}
	aut.Delta.Allocate(len(names.order))
	return aut, nil
}

// ParseNft reads an @NFT-explicit section. States missing from %Levels
// default to level 0; %LevelsCnt declares the level count and defaults to
// one past the largest assigned level.
func ParseNft(r io.Reader, alphabet automata.Alphabet) (*nft.Nft, error) {
	doc, err := readDocument(r)
	if err != nil {
		return nil, err
	}
	if doc.header != nftHeader {
		return nil, &automata.ParseError{Message: "expecting type " + nftHeader + ", got " + doc.header}
	}
	if alphabet == nil {
		alphabet = automata.NewOnTheFlyAlphabet()
	}

	names := newStateNames()
	levelsCnt := doc.levelsCnt
	if levelsCnt == 0 {
		maxLevel := nft.Level(0)
		for _, level := range doc.levels {
			if level > maxLevel {
				maxLevel = level
			}
		}
		levelsCnt = int(maxLevel) + 1
	}
	aut := nft.New(0, levelsCnt)
	aut.Alphabet = alphabet

	for _, name := range doc.initial {
		aut.Initial.Insert(names.get(name))
	}
	if err := buildBody(doc, names, alphabet, aut.Delta.Add); err != nil {
		return nil, err
	}
	if err := resolveFinal(doc.finalTokens, names, func(s nfa.State) { aut.Final.Insert(s) }); err != nil {
		return nil, err
	}
	aut.Delta.Allocate(len(names.order))

	for s := 0; s < len(names.order); s++ {
		aut.Levels.Set(nfa.State(s), 0)
	}
	for name, level := range doc.levels {
		state, ok := names.byName[name]
		if !ok {
			return nil, &automata.ParseError{Message: "level assigned to unknown state " + name}
		}
		if int(level) >= levelsCnt {
			return nil, &automata.ParseError{
				Message: fmt.Sprintf("level %d of state %s exceeds %%LevelsCnt %d", level, name, levelsCnt)}
		}
		aut.Levels.Set(state, level)
	}
	return aut, nil
}

// WriteNfa emits the @NFA-explicit section of aut.
func WriteNfa(w io.Writer, aut *nfa.Nfa) error {
	if _, err := fmt.Fprintln(w, nfaHeader); err != nil {
		return err
	}
	return writeCommon(w, &writerView{
		initial: aut.Initial.Values(),
		final:   aut.Final.Values(),
		delta:   &aut.Delta,
	})
}

// WriteNft emits the @NFT-explicit section of aut, including the level
// assignments of the live states.
func WriteNft(w io.Writer, aut *nft.Nft) error {
	if _, err := fmt.Fprintln(w, nftHeader); err != nil {
		return err
	}
	view := &writerView{
		initial: aut.Initial.Values(),
		final:   aut.Final.Values(),
		delta:   &aut.Delta,
	}
	if err := writeCommonHead(w, view); err != nil {
		return err
	}

	live := make([]bool, aut.NumOfStates())
	for _, s := range aut.Initial.Values() {
		live[s] = true
	}
	for _, s := range aut.Final.Values() {
		live[s] = true
	}
	for it := aut.Delta.Transitions(); it.Next(); {
		trans := it.Current()
		live[trans.Source] = true
		live[trans.Target] = true
	}
	var levelLine strings.Builder
	levelLine.WriteString("%Levels")
	for s, ok := range live {
		if ok {
			fmt.Fprintf(&levelLine, " q%d:%d", s, aut.Levels.Get(nfa.State(s)))
		}
	}
	if _, err := fmt.Fprintln(w, levelLine.String()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%%LevelsCnt %d\n", aut.NumOfLevels); err != nil {
		return err
	}
	return writeBody(w, view)
}

type writerView struct {
	initial []nfa.State
	final   []nfa.State
	delta   *nfa.Delta
}

func writeCommon(w io.Writer, view *writerView) error {
	if err := writeCommonHead(w, view); err != nil {
		return err
	}
	return writeBody(w, view)
}

func writeCommonHead(w io.Writer, view *writerView) error {
	if _, err := fmt.Fprintln(w, "%Alphabet-auto"); err != nil {
		return err
	}
	if len(view.initial) > 0 {
		var line strings.Builder
		line.WriteString("%Initial")
		for _, s := range view.initial {
			fmt.Fprintf(&line, " q%d", s)
		}
		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return err
		}
	}
	if len(view.final) > 0 {
		var line strings.Builder
		line.WriteString("%Final")
		for _, s := range view.final {
			fmt.Fprintf(&line, " q%d", s)
		}
		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeBody(w io.Writer, view *writerView) error {
	for it := view.delta.Transitions(); it.Next(); {
		trans := it.Current()
		if _, err := fmt.Fprintf(w, "q%d %d q%d\n", trans.Source, trans.Symbol, trans.Target); err != nil {
			return err
		}
	}
	return nil
}
