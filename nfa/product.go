package nfa

import (
	"github.com/projectdiscovery/gologger"

	"github.com/coregx/automata/synciter"
)

// MaxProductMatrixSize bounds the dense pair-matrix representation of
// product state bookkeeping; above it a vector of hash maps is used. Both
// representations yield identical results.
const MaxProductMatrixSize = 50_000_000

// StatePair is a product state expressed through its constituents.
type StatePair struct {
	Lhs State
	Rhs State
}

// ProductMap is the optional user-visible pair-to-state correspondence of
// a product construction. It is not used internally and costs extra to
// fill; pass nil when not needed.
type ProductMap map[StatePair]State

// ProductStorage tracks the pair-to-product-state mapping during a product
// construction, choosing between a dense matrix and a vector of hash maps
// by input size, plus the inverted product-to-pair arrays the worklist
// loop reads.
type ProductStorage struct {
	matrix     [][]State
	vecMap     []map[State]State
	toLhs      []State
	toRhs      []State
	productMap ProductMap
}

// NewProductStorage sizes the storage for the given operand state counts.
func NewProductStorage(lhsStates, rhsStates int, productMap ProductMap) *ProductStorage {
	s := &ProductStorage{productMap: productMap}
	if lhsStates*rhsStates <= MaxProductMatrixSize {
		s.matrix = make([][]State, lhsStates)
		for i := range s.matrix {
			row := make([]State, rhsStates)
			for j := range row {
				row[j] = MaxState
			}
			s.matrix[i] = row
		}
	} else {
		s.vecMap = make([]map[State]State, lhsStates)
	}
	return s
}

// Get returns the product state of the pair, or MaxState when absent.
func (s *ProductStorage) Get(lhs, rhs State) State {
	if s.matrix != nil {
		return s.matrix[lhs][rhs]
	}
	if m := s.vecMap[lhs]; m != nil {
		if state, ok := m[rhs]; ok {
			return state
		}
	}
	return MaxState
}

// Put records the product state of the pair.
func (s *ProductStorage) Put(lhs, rhs, product State) {
	if s.matrix != nil {
		s.matrix[lhs][rhs] = product
	} else {
		if s.vecMap[lhs] == nil {
			s.vecMap[lhs] = make(map[State]State)
		}
		s.vecMap[lhs][rhs] = product
	}
	for int(product) >= len(s.toLhs) {
		s.toLhs = append(s.toLhs, MaxState)
		s.toRhs = append(s.toRhs, MaxState)
	}
	s.toLhs[product] = lhs
	s.toRhs[product] = rhs
	if s.productMap != nil {
		s.productMap[StatePair{Lhs: lhs, Rhs: rhs}] = product
	}
}

// Pair returns the constituent pair of a product state.
func (s *ProductStorage) Pair(product State) (State, State) {
	return s.toLhs[product], s.toRhs[product]
}

// Product constructs the generic product of lhs and rhs: states are the
// reachable pairs, transitions go over the symbols shared by both sides
// (found with a universal synchronized iterator), and a pair is final iff
// finalCondition holds. productMap, when non-nil, receives the pair
// correspondence; the internal storage is released when the call returns.
func Product(lhs, rhs *Nfa, finalCondition func(State, State) bool, productMap ProductMap) *Nfa {
	product := New(0)
	product.Alphabet = lhs.Alphabet

	storage := NewProductStorage(lhs.NumOfStates(), rhs.NumOfStates(), productMap)
	worklist := make([]State, 0)

	// Mint the product state of a target pair if it is new and record the
	// target in the symbol post under construction.
	addTargetPair := func(lhsTarget, rhsTarget State, symbolPost *SymbolPost) {
		target := storage.Get(lhsTarget, rhsTarget)
		if target == MaxState {
			target = product.AddState()
			storage.Put(lhsTarget, rhsTarget, target)
			worklist = append(worklist, target)
			if finalCondition(lhsTarget, rhsTarget) {
				product.Final.Insert(target)
			}
		}
		symbolPost.Targets.Insert(target)
	}

	for _, lhsInit := range lhs.Initial.Values() {
		for _, rhsInit := range rhs.Initial.Values() {
			init := product.AddState()
			storage.Put(lhsInit, rhsInit, init)
			worklist = append(worklist, init)
			product.Initial.Insert(init)
			if finalCondition(lhsInit, rhsInit) {
				product.Final.Insert(init)
			}
		}
	}

	it := synciter.NewUniversal(CompareSymbolPost, 2)
	for len(worklist) > 0 {
		source := worklist[0]
		worklist = worklist[1:]
		lhsSource, rhsSource := storage.Pair(source)

		it.Reset()
		it.PushBack(lhs.Delta.StatePost(lhsSource))
		it.PushBack(rhs.Delta.StatePost(rhsSource))
		for it.Advance() {
			moves := it.Current()
			symbolPost := SymbolPost{Symbol: moves[0].Symbol}
			for _, lhsTarget := range moves[0].Targets.Slice() {
				for _, rhsTarget := range moves[1].Targets.Slice() {
					addTargetPair(lhsTarget, rhsTarget, &symbolPost)
				}
			}
			if symbolPost.Targets.Empty() {
				continue
			}
			// Symbols arrive in ascending order from the iterator, so the
			// row grows by plain appends.
			product.Delta.MutableStatePost(source).PushBack(symbolPost)
		}
	}

	gologger.Debug().Msgf("product: %d x %d operands -> %d pair states",
		lhs.NumOfStates(), rhs.NumOfStates(), product.NumOfStates())
	return product
}

// Intersection builds the automaton accepting L(lhs) ∩ L(rhs): the product
// with conjunction of final memberships.
func Intersection(lhs, rhs *Nfa, productMap ProductMap) *Nfa {
	if lhs.Initial.Empty() || lhs.Final.Empty() || rhs.Initial.Empty() || rhs.Final.Empty() {
		return New(0)
	}
	return Product(lhs, rhs, func(l, r State) bool {
		return lhs.Final.Contains(l) && rhs.Final.Contains(r)
	}, productMap)
}
