package action

import "github.com/marbl/meryl-sub000/kmer"

// Op is a comparison operator used by selector atoms.
type Op int

const (
	OpLT Op = iota
	OpLE
	OpEQ
	OpNE
	OpGE
	OpGT
)

func compareOp(op Op, a, b int64) bool {
	switch op {
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpGE:
		return a >= b
	case OpGT:
		return a > b
	default:
		return false
	}
}

// Operand names what a Value/Label atom's side reads.
type Operand struct {
	IsConst    bool
	Const      uint64
	InputIndex int // meaningful when !IsConst: -1 means "the output k-mer's own value/label" (see DESIGN.md), >=0 means a designated input.
}

// OpConst builds a constant operand.
func OpConst(c uint64) Operand { return Operand{IsConst: true, Const: c} }

// OpOutput builds an operand reading the tentative output value/label,
// approximated (per DESIGN.md's Open Question resolution) as the value/
// label of the lowest-indexed input present in this round's active list.
func OpOutput() Operand { return Operand{InputIndex: -1} }

// OpInput builds an operand reading the value/label of a designated
// input's current k-mer.
func OpInput(i int) Operand { return Operand{InputIndex: i} }

func (o Operand) resolveValue(active []activeEntry, cur []current) uint64 {
	if o.IsConst {
		return o.Const
	}
	if o.InputIndex < 0 {
		if idx := firstActiveIdx(active); idx >= 0 {
			return uint64(active[idx].value)
		}
		return 0
	}
	return cur[o.InputIndex].asUint64
}

func (o Operand) resolveLabel(active []activeEntry, cur []current) uint64 {
	if o.IsConst {
		return o.Const
	}
	if o.InputIndex < 0 {
		if idx := firstActiveIdx(active); idx >= 0 {
			return active[idx].label
		}
		return 0
	}
	return cur[o.InputIndex].label
}

func firstActiveIdx(active []activeEntry) int {
	best := -1
	for i, a := range active {
		if best < 0 || a.inputIdx < active[best].inputIdx {
			best = i
		}
	}
	return best
}

// Base is one of the four DNA bases, used by BaseAtom's subset.
type Base byte

const (
	BaseA Base = 'A'
	BaseC Base = 'C'
	BaseG Base = 'G'
	BaseT Base = 'T'
)

// Atom is one atomic predicate in a selector product.
type Atom struct {
	Kind   AtomKind
	Op     Op
	Lhs    Operand
	Rhs    Operand
	Bases  []Base // for AtomBases: which bases to count.
	N      int    // for AtomPresentInAtLeast / AtomPresentInInput.
	Negate bool
}

// AtomKind discriminates the selector atom families of spec.md §4.5.
type AtomKind int

const (
	AtomValue AtomKind = iota
	AtomLabel
	AtomBases
	AtomPresentInAtLeast
	AtomPresentInAll
	AtomPresentInInput
)

func countBases(k kmer.Kmer, s kmer.Schema, bases []Base) int64 {
	str := k.String(s)
	want := map[byte]bool{}
	for _, b := range bases {
		want[byte(b)] = true
	}
	n := int64(0)
	for i := 0; i < len(str); i++ {
		if want[str[i]] {
			n++
		}
	}
	return n
}

func evalAtom(a Atom, s kmer.Schema, k kmer.Kmer, active []activeEntry, cur []current, nInputs int) bool {
	var result bool
	switch a.Kind {
	case AtomValue:
		result = compareOp(a.Op, int64(a.Lhs.resolveValue(active, cur)), int64(a.Rhs.resolveValue(active, cur)))
	case AtomLabel:
		result = compareOp(a.Op, int64(a.Lhs.resolveLabel(active, cur)), int64(a.Rhs.resolveLabel(active, cur)))
	case AtomBases:
		lhs := countBases(k, s, a.Bases)
		rhs := int64(a.Rhs.resolveValue(active, cur))
		result = compareOp(a.Op, lhs, rhs)
	case AtomPresentInAtLeast:
		result = len(active) >= a.N
	case AtomPresentInAll:
		result = len(active) >= nInputs
	case AtomPresentInInput:
		result = false
		for _, e := range active {
			if e.inputIdx == a.N {
				result = true
				break
			}
		}
	}
	if a.Negate {
		return !result
	}
	return result
}

// Product is a conjunction (AND) of atoms; Selector is the disjunction
// (OR, "sum-of-products") of Products. An empty Selector (no products)
// always emits.
type Product struct {
	Atoms  []Atom
	Negate bool
}

// Selector is a sum-of-products boolean filter evaluated against the
// current round's active list.
type Selector struct {
	Products []Product
}

// Eval reports whether sel accepts the current round.
func (sel Selector) Eval(s kmer.Schema, k kmer.Kmer, active []activeEntry, cur []current, nInputs int) bool {
	if len(sel.Products) == 0 {
		return true
	}
	for _, p := range sel.Products {
		v := true
		for _, a := range p.Atoms {
			if !evalAtom(a, s, k, active, cur, nInputs) {
				v = false
				break
			}
		}
		if p.Negate {
			v = !v
		}
		if v {
			return true
		}
	}
	return false
}
