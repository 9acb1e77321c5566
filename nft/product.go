package nft

import (
	"fmt"

	"github.com/projectdiscovery/gologger"

	"github.com/coregx/automata"
	"github.com/coregx/automata/nfa"
	"github.com/coregx/automata/synciter"
)

// Product constructs the level-aware product of two transducers with equal
// level counts. Pairs at the same level behave as the classical product,
// with DONT_CARE on one side matching any concrete symbol of the other;
// pairs at different levels advance only the side that lags, level 0
// counting as "just wrapped" and therefore larger than any non-zero level.
//
// lhsFirstAux and rhsFirstAux are optional auxiliary-state thresholds
// (MaxState disables them): no product pair is created when both
// components are at or above their threshold. Composition passes the
// pre-insertion state counts here to suppress self-loop × self-loop
// artefacts. finalCondition decides finality of a pair; productMap, when
// non-nil, receives the pair correspondence.
func Product(lhs, rhs *Nft, finalCondition func(nfa.State, nfa.State) bool,
	productMap nfa.ProductMap, lhsFirstAux, rhsFirstAux nfa.State) (*Nft, error) {
	if lhs.NumOfLevels != rhs.NumOfLevels {
		return nil, fmt.Errorf("product: %w: %d levels vs %d levels",
			automata.ErrLevelMismatch, lhs.NumOfLevels, rhs.NumOfLevels)
	}

	product := New(0, lhs.NumOfLevels)
	product.Alphabet = lhs.Alphabet

	storage := nfa.NewProductStorage(lhs.NumOfStates(), rhs.NumOfStates(), productMap)
	worklist := make([]nfa.State, 0)

	// Mint the product state of a target pair unless both components are
	// auxiliary, and record the target in the symbol post being built.
	addTargetPair := func(lhsTarget, rhsTarget nfa.State, symbolPost *nfa.SymbolPost) {
		if lhsTarget >= lhsFirstAux && rhsTarget >= rhsFirstAux {
			return
		}
		target := storage.Get(lhsTarget, rhsTarget)
		if target == nfa.MaxState {
			target = product.AddState()

			// The product state takes the minimum of the two levels,
			// except that level 0 means the last level was completed and
			// loses to any non-zero level.
			lhsLevel := lhs.Levels.Get(lhsTarget)
			rhsLevel := rhs.Levels.Get(rhsTarget)
			switch {
			case lhsLevel == 0:
				product.Levels.Set(target, rhsLevel)
			case rhsLevel == 0:
				product.Levels.Set(target, lhsLevel)
			case lhsLevel < rhsLevel:
				product.Levels.Set(target, lhsLevel)
			default:
				product.Levels.Set(target, rhsLevel)
			}

			storage.Put(lhsTarget, rhsTarget, target)
			worklist = append(worklist, target)
			if finalCondition(lhsTarget, rhsTarget) {
				product.Final.Insert(target)
			}
		}
		symbolPost.Targets.Insert(target)
	}

	// insertSymbolPost merges a finished symbol post into the product row.
	insertSymbolPost := func(source nfa.State, symbolPost nfa.SymbolPost) {
		if symbolPost.Targets.Empty() {
			return
		}
		product.Delta.MutableStatePost(source).Insert(symbolPost)
	}

	// processDontCare pairs a DONT_CARE move of one side with every
	// concrete move of the other: the concrete symbol wins and labels the
	// product transition.
	processDontCare := func(dcarePost, specificPost nfa.StatePost, dcareOnLhs bool, source nfa.State) {
		pos, found := dcarePost.Find(automata.DontCare)
		if !found {
			return
		}
		for _, specific := range specificPost {
			symbolPost := nfa.SymbolPost{Symbol: specific.Symbol}
			for _, dcareTarget := range dcarePost[pos].Targets.Slice() {
				for _, specificTarget := range specific.Targets.Slice() {
					if dcareOnLhs {
						addTargetPair(dcareTarget, specificTarget, &symbolPost)
					} else {
						addTargetPair(specificTarget, dcareTarget, &symbolPost)
					}
				}
			}
			insertSymbolPost(source, symbolPost)
		}
	}

	for _, lhsInit := range lhs.Initial.Values() {
		for _, rhsInit := range rhs.Initial.Values() {
			init := product.AddState()
			product.Levels.Set(init, 0)
			storage.Put(lhsInit, rhsInit, init)
			worklist = append(worklist, init)
			product.Initial.Insert(init)
			if finalCondition(lhsInit, rhsInit) {
				product.Final.Insert(init)
			}
		}
	}

	it := synciter.NewUniversal(nfa.CompareSymbolPost, 2)
	for len(worklist) > 0 {
		source := worklist[0]
		worklist = worklist[1:]
		lhsSource, rhsSource := storage.Pair(source)
		lhsLevel := lhs.Levels.Get(lhsSource)
		rhsLevel := rhs.Levels.Get(rhsSource)

		switch {
		case lhsLevel == rhsLevel:
			// Classical product at a shared level.
			it.Reset()
			it.PushBack(lhs.Delta.StatePost(lhsSource))
			it.PushBack(rhs.Delta.StatePost(rhsSource))
			for it.Advance() {
				moves := it.Current()
				symbolPost := nfa.SymbolPost{Symbol: moves[0].Symbol}
				for _, lhsTarget := range moves[0].Targets.Slice() {
					for _, rhsTarget := range moves[1].Targets.Slice() {
						addTargetPair(lhsTarget, rhsTarget, &symbolPost)
					}
				}
				insertSymbolPost(source, symbolPost)
			}
			processDontCare(lhs.Delta.StatePost(lhsSource), rhs.Delta.StatePost(rhsSource), true, source)
			processDontCare(rhs.Delta.StatePost(rhsSource), lhs.Delta.StatePost(lhsSource), false, source)

		case (lhsLevel < rhsLevel && lhsLevel != 0) || rhsLevel == 0:
			// The rhs component is deeper and must wait; only lhs advances.
			for _, sp := range lhs.Delta.StatePost(lhsSource) {
				symbolPost := nfa.SymbolPost{Symbol: sp.Symbol}
				for _, target := range sp.Targets.Slice() {
					addTargetPair(target, rhsSource, &symbolPost)
				}
				insertSymbolPost(source, symbolPost)
			}

		default:
			// The lhs component is deeper and must wait; only rhs advances.
			for _, sp := range rhs.Delta.StatePost(rhsSource) {
				symbolPost := nfa.SymbolPost{Symbol: sp.Symbol}
				for _, target := range sp.Targets.Slice() {
					addTargetPair(lhsSource, target, &symbolPost)
				}
				insertSymbolPost(source, symbolPost)
			}
		}
	}

	gologger.Debug().Msgf("nft product: %d x %d operands -> %d pair states",
		lhs.NumOfStates(), rhs.NumOfStates(), product.NumOfStates())
	return product, nil
}

// Intersection builds the transducer accepting the intersection of the two
// relations: the level-aware product with conjunction of final
// memberships.
func Intersection(lhs, rhs *Nft, productMap nfa.ProductMap, lhsFirstAux, rhsFirstAux nfa.State) (*Nft, error) {
	if lhs.Initial.Empty() || lhs.Final.Empty() || rhs.Initial.Empty() || rhs.Final.Empty() {
		if lhs.NumOfLevels != rhs.NumOfLevels {
			return nil, fmt.Errorf("intersection: %w: %d levels vs %d levels",
				automata.ErrLevelMismatch, lhs.NumOfLevels, rhs.NumOfLevels)
		}
		return New(0, lhs.NumOfLevels), nil
	}
	return Product(lhs, rhs, func(l, r nfa.State) bool {
		return lhs.Final.Contains(l) && rhs.Final.Contains(r)
	}, productMap, lhsFirstAux, rhsFirstAux)
}
