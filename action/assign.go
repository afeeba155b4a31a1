package action

import (
	"github.com/marbl/meryl-sub000/countarray"
)

// ValueRule names a value-assign rule (spec.md §4.5).
type ValueRule int

const (
	ValueNOP ValueRule = iota
	ValueSet
	ValueSelected
	ValueFirst
	ValueMin
	ValueMax
	ValueAdd
	ValueSub
	ValueMul
	ValueDiv
	ValueDivRoundUp
	ValueMod
	ValueCount
)

// LabelRule names a label-assign rule (spec.md §4.5).
type LabelRule int

const (
	LabelNOP LabelRule = iota
	LabelSet
	LabelSelected
	LabelFirst
	LabelMin
	LabelMax
	LabelAnd
	LabelOr
	LabelXor
	LabelDifference
	LabelLightest
	LabelHeaviest
	LabelInvert
	LabelShiftPlus
	LabelShiftMinus
	LabelRotatePlus
	LabelRotateMinus
)

// Source resolves to either a literal constant or "the value/label of the
// k-mer from a designated input", generalizing spec.md §4.5's bare
// constant c to also cover input-relative rules like the subtract alias
// ("c minus all active values" with c taken dynamically from input 0).
type Source struct {
	Const     uint64
	FromInput int // >= 0 selects an input index; < 0 means use Const.
}

// Const returns a Source with a fixed literal value.
func Const(c uint64) Source { return Source{Const: c, FromInput: -1} }

// FromInput returns a Source that reads the current value/label of input
// index i (regardless of whether i is in this round's active list).
func FromInput(i int) Source { return Source{FromInput: i} }

func (s Source) resolve(cur []current) uint64 {
	if s.FromInput < 0 {
		return s.Const
	}
	return cur[s.FromInput].asUint64
}

// ValueAssign pairs a rule with its operand.
type ValueAssign struct {
	Rule ValueRule
	C    Source
}

// LabelAssign pairs a rule with its operand.
type LabelAssign struct {
	Rule LabelRule
	C    Source
}

// current is the per-input state the compute loop maintains: the last
// k-mer read from that input and whether the input is exhausted, plus a
// value/label snapshot (value widened into asUint64 for Source.resolve).
type current struct {
	ok       bool
	value    uint32
	label    uint64
	asUint64 uint64
}

// valueChosenIndex returns the active-list index the rule would have
// naturally selected a single input from (First/Min/Max), or -1 if the
// rule does not select one input (used to resolve ValueSelected /
// LabelSelected, see DESIGN.md's Open Question resolution).
func valueChosenIndex(rule ValueRule, active []activeEntry) int {
	switch rule {
	case ValueFirst:
		for i, a := range active {
			if a.inputIdx == 0 {
				return i
			}
		}
		return -1
	case ValueMin:
		best := -1
		for i, a := range active {
			if best < 0 || a.value < active[best].value {
				best = i
			}
		}
		return best
	case ValueMax:
		best := -1
		for i, a := range active {
			if best < 0 || a.value > active[best].value {
				best = i
			}
		}
		return best
	default:
		return -1
	}
}

func labelChosenIndex(rule LabelRule, active []activeEntry) int {
	switch rule {
	case LabelFirst:
		for i, a := range active {
			if a.inputIdx == 0 {
				return i
			}
		}
		return -1
	case LabelMin:
		best := -1
		for i, a := range active {
			if best < 0 || a.label < active[best].label {
				best = i
			}
		}
		return best
	case LabelMax:
		best := -1
		for i, a := range active {
			if best < 0 || a.label > active[best].label {
				best = i
			}
		}
		return best
	case LabelLightest:
		best := -1
		for i, a := range active {
			if best < 0 || popcount(a.label) < popcount(active[best].label) {
				best = i
			}
		}
		return best
	case LabelHeaviest:
		best := -1
		for i, a := range active {
			if best < 0 || popcount(a.label) > popcount(active[best].label) {
				best = i
			}
		}
		return best
	default:
		return -1
	}
}

func popcount(v uint64) int {
	n := 0
	for v != 0 {
		n++
		v &= v - 1
	}
	return n
}

// evalValue computes the output value for one emitted k-mer.
func evalValue(a ValueAssign, active []activeEntry, cur []current, labelChosen int) uint32 {
	switch a.Rule {
	case ValueNOP:
		return 0
	case ValueSet:
		return uint32(a.C.resolve(cur))
	case ValueSelected:
		idx := labelChosen
		if idx < 0 {
			idx = 0
		}
		if idx >= len(active) {
			return 0
		}
		return active[idx].value
	case ValueFirst:
		idx := valueChosenIndex(ValueFirst, active)
		if idx < 0 {
			return 0
		}
		return active[idx].value
	case ValueMin:
		m := uint32(a.C.resolve(cur))
		for _, e := range active {
			if e.value < m {
				m = e.value
			}
		}
		return m
	case ValueMax:
		m := uint32(a.C.resolve(cur))
		for _, e := range active {
			if e.value > m {
				m = e.value
			}
		}
		return m
	case ValueAdd:
		sum := uint32(a.C.resolve(cur))
		for _, e := range active {
			sum = countarray.SaturatingAdd(sum, e.value)
		}
		return sum
	case ValueSub:
		if a.C.FromInput >= 0 {
			// C names a base input (e.g. the subtract alias): result is
			// that input's value minus every other active input's value.
			base := uint64(a.C.resolve(cur))
			var sub uint64
			for _, e := range active {
				if e.inputIdx == a.C.FromInput {
					continue
				}
				sub += uint64(e.value)
			}
			if base <= sub {
				return 0
			}
			return uint32(base - sub)
		}
		// C is a literal constant (e.g. the decrease alias): result is
		// the sum of active values minus the constant. This is the
		// inverse of the abridged Sub(c) table row; see DESIGN.md for
		// why decrease resolves this way.
		c := a.C.resolve(cur)
		var sum uint64
		for _, e := range active {
			sum += uint64(e.value)
		}
		if sum <= c {
			return 0
		}
		return uint32(sum - c)
	case ValueMul:
		prod := uint64(a.C.resolve(cur))
		if prod == 0 {
			prod = 1
		}
		for _, e := range active {
			prod *= uint64(e.value)
			if prod > uint64(countarray.ValueMax) {
				return countarray.ValueMax
			}
		}
		return uint32(prod)
	case ValueDiv:
		c := a.C.resolve(cur)
		if c == 0 {
			return 0
		}
		idx := valueChosenIndex(ValueFirst, active)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(active) {
			return 0
		}
		return uint32(uint64(active[idx].value) / c)
	case ValueDivRoundUp:
		c := a.C.resolve(cur)
		if c == 0 {
			return 0
		}
		idx := valueChosenIndex(ValueFirst, active)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(active) {
			return 0
		}
		v := uint64(active[idx].value)
		q := v / c
		if v%c != 0 {
			q++
		} else if v == 0 {
			q = 0
		}
		if v > 0 && v < c {
			q = 1
		}
		return uint32(q)
	case ValueMod:
		c := a.C.resolve(cur)
		if c == 0 {
			return 0
		}
		idx := valueChosenIndex(ValueFirst, active)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(active) {
			return 0
		}
		return uint32(uint64(active[idx].value) % c)
	case ValueCount:
		return uint32(len(active))
	default:
		return 0
	}
}

// evalLabel computes the output label for one emitted k-mer.
func evalLabel(a LabelAssign, active []activeEntry, cur []current, labelWidth int, valueChosen int) uint64 {
	mask := uint64(0)
	if labelWidth > 0 && labelWidth < 64 {
		mask = (uint64(1) << uint(labelWidth)) - 1
	} else if labelWidth >= 64 {
		mask = ^uint64(0)
	}
	switch a.Rule {
	case LabelNOP:
		return 0
	case LabelSet:
		if a.C.FromInput >= 0 {
			return cur[a.C.FromInput].label & mask
		}
		return a.C.resolve(cur) & mask
	case LabelSelected:
		idx := valueChosen
		if idx < 0 {
			idx = 0
		}
		if idx >= len(active) {
			return 0
		}
		return active[idx].label
	case LabelFirst:
		idx := labelChosenIndex(LabelFirst, active)
		if idx < 0 {
			return 0
		}
		return active[idx].label
	case LabelMin:
		idx := labelChosenIndex(LabelMin, active)
		if idx < 0 {
			return 0
		}
		return active[idx].label
	case LabelMax:
		idx := labelChosenIndex(LabelMax, active)
		if idx < 0 {
			return 0
		}
		return active[idx].label
	case LabelLightest:
		idx := labelChosenIndex(LabelLightest, active)
		if idx < 0 {
			return 0
		}
		return active[idx].label
	case LabelHeaviest:
		idx := labelChosenIndex(LabelHeaviest, active)
		if idx < 0 {
			return 0
		}
		return active[idx].label
	case LabelAnd:
		v := mask
		for _, e := range active {
			v &= e.label
		}
		return v
	case LabelOr:
		var v uint64
		for _, e := range active {
			v |= e.label
		}
		return v
	case LabelXor:
		var v uint64
		for _, e := range active {
			v ^= e.label
		}
		return v
	case LabelDifference:
		// label of input 0 with every other active input's label bits
		// cleared: the set-difference reading of "Difference".
		var base uint64
		for _, e := range active {
			if e.inputIdx == 0 {
				base = e.label
			}
		}
		for _, e := range active {
			if e.inputIdx != 0 {
				base &^= e.label
			}
		}
		return base
	case LabelInvert:
		idx := labelChosenIndex(LabelFirst, active)
		var v uint64
		if idx >= 0 {
			v = active[idx].label
		}
		return (^v) & mask
	case LabelShiftPlus:
		idx := labelChosenIndex(LabelFirst, active)
		if idx < 0 {
			return 0
		}
		n := a.C.resolve(cur)
		return (active[idx].label << n) & mask
	case LabelShiftMinus:
		idx := labelChosenIndex(LabelFirst, active)
		if idx < 0 {
			return 0
		}
		n := a.C.resolve(cur)
		return (active[idx].label >> n) & mask
	case LabelRotatePlus:
		idx := labelChosenIndex(LabelFirst, active)
		if idx < 0 || labelWidth == 0 {
			return 0
		}
		n := uint(a.C.resolve(cur)) % uint(labelWidth)
		v := active[idx].label & mask
		return ((v << n) | (v >> (uint(labelWidth) - n))) & mask
	case LabelRotateMinus:
		idx := labelChosenIndex(LabelFirst, active)
		if idx < 0 || labelWidth == 0 {
			return 0
		}
		n := uint(a.C.resolve(cur)) % uint(labelWidth)
		v := active[idx].label & mask
		return ((v >> n) | (v << (uint(labelWidth) - n))) & mask
	default:
		return 0
	}
}
