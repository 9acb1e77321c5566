// Package simlib computes simulation preorders over explicit labelled
// transition systems. It backs the simulation-based reduction of automata:
// the caller encodes the automaton as an LTS (adding fresh-symbol
// self-loops on final states so finals cannot be simulated by non-finals)
// and receives the forward direct simulation as a binary relation.
package simlib

// BinaryRelation is a dense boolean relation over states 0..n-1.
// rel.Get(q, p) means "p simulates q".
type BinaryRelation struct {
	size int
	bits []bool
}

// NewBinaryRelation creates an empty relation over size states.
func NewBinaryRelation(size int) *BinaryRelation {
	return &BinaryRelation{size: size, bits: make([]bool, size*size)}
}

// Size returns the number of states the relation ranges over.
func (r *BinaryRelation) Size() int { return r.size }

// Get reports whether (q, p) is in the relation.
func (r *BinaryRelation) Get(q, p int) bool { return r.bits[q*r.size+p] }

// Set writes membership of (q, p).
func (r *BinaryRelation) Set(q, p int, value bool) { r.bits[q*r.size+p] = value }

// Clone returns a deep copy.
func (r *BinaryRelation) Clone() *BinaryRelation {
	clone := NewBinaryRelation(r.size)
	copy(clone.bits, r.bits)
	return clone
}

// RestrictToSymmetric keeps only the symmetric kernel: (q, p) survives iff
// (p, q) is also present. For a simulation preorder this is the mutual
// simulation equivalence.
func (r *BinaryRelation) RestrictToSymmetric() {
	for q := 0; q < r.size; q++ {
		for p := q + 1; p < r.size; p++ {
			if r.Get(q, p) != r.Get(p, q) {
				r.Set(q, p, false)
				r.Set(p, q, false)
			}
		}
	}
}

// QuotientProjection fills proj so that proj[q] is the representative of
// q's equivalence class: the smallest state equivalent to q. The relation
// must be an equivalence (restrict it to its symmetric kernel first).
func (r *BinaryRelation) QuotientProjection(proj []uint32) {
	for q := 0; q < r.size; q++ {
		proj[q] = uint32(q)
		for p := 0; p < q; p++ {
			if r.Get(q, p) && r.Get(p, q) {
				proj[q] = uint32(p)
				break
			}
		}
	}
}

// ltsTransition is one labelled edge of the LTS.
type ltsTransition struct {
	source uint32
	symbol uint32
	target uint32
}

// ExplicitLTS is a labelled transition system under construction. Fill it
// with AddTransition, call Init once, then ComputeSimulation.
type ExplicitLTS struct {
	numStates   int
	transitions []ltsTransition
	// post[i][state] lists the targets of state over symbols[i], built by
	// Init.
	post    []map[uint32][]uint32
	symbols []uint32
}

// NewExplicitLTS creates an LTS over numStates states.
func NewExplicitLTS(numStates int) *ExplicitLTS {
	return &ExplicitLTS{numStates: numStates}
}

// AddTransition records the edge source -symbol-> target.
func (l *ExplicitLTS) AddTransition(source, symbol, target uint32) {
	l.transitions = append(l.transitions, ltsTransition{source: source, symbol: symbol, target: target})
}

// Init freezes the transition list into per-symbol adjacency.
func (l *ExplicitLTS) Init() {
	bySymbol := make(map[uint32]map[uint32][]uint32)
	for _, t := range l.transitions {
		adjacency, ok := bySymbol[t.symbol]
		if !ok {
			adjacency = make(map[uint32][]uint32)
			bySymbol[t.symbol] = adjacency
			l.symbols = append(l.symbols, t.symbol)
		}
		adjacency[t.source] = append(adjacency[t.source], t.target)
	}
	// Deterministic symbol order for the refinement loop.
	for i := 1; i < len(l.symbols); i++ {
		for j := i; j > 0 && l.symbols[j-1] > l.symbols[j]; j-- {
			l.symbols[j-1], l.symbols[j] = l.symbols[j], l.symbols[j-1]
		}
	}
	l.post = make([]map[uint32][]uint32, len(l.symbols))
	for i, sym := range l.symbols {
		l.post[i] = bySymbol[sym]
	}
}

// ComputeSimulation returns the greatest forward simulation: rel(q, p)
// holds iff for every q -a-> q' there is p -a-> p' with rel(q', p').
// Computed as a greatest-fixpoint refinement from the label-compatibility
// over-approximation.
func (l *ExplicitLTS) ComputeSimulation() *BinaryRelation {
	rel := NewBinaryRelation(l.numStates)

	// Initial over-approximation: p may simulate q only if p moves on
	// every symbol q moves on.
	for q := 0; q < l.numStates; q++ {
		for p := 0; p < l.numStates; p++ {
			compatible := true
			for i := range l.symbols {
				if len(l.post[i][uint32(q)]) > 0 && len(l.post[i][uint32(p)]) == 0 {
					compatible = false
					break
				}
			}
			rel.Set(q, p, compatible)
		}
	}

	changed := true
	for changed {
		changed = false
		for q := 0; q < l.numStates; q++ {
			for p := 0; p < l.numStates; p++ {
				if !rel.Get(q, p) {
					continue
				}
				if !l.simulatesStep(rel, uint32(q), uint32(p)) {
					rel.Set(q, p, false)
					changed = true
				}
			}
		}
	}
	return rel
}

// simulatesStep checks the one-step simulation condition of (q, p) under
// the current relation.
func (l *ExplicitLTS) simulatesStep(rel *BinaryRelation, q, p uint32) bool {
	for i := range l.symbols {
		for _, qTarget := range l.post[i][q] {
			matched := false
			for _, pTarget := range l.post[i][p] {
				if rel.Get(int(qTarget), int(pTarget)) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}
