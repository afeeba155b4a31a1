package action

// Alias constructors desugar the named operations of spec.md §4.5 and
// its Aliases subsection (plus the additional aliases original_source/'s
// merylCommandBuilder-isAlias.C enumerates, see SPEC_FULL.md) into the
// Template primitives.

func presentInAny() Selector {
	return Selector{Products: []Product{{Atoms: []Atom{{Kind: AtomPresentInAtLeast, N: 1}}}}}
}

func presentInAll() Selector {
	return Selector{Products: []Product{{Atoms: []Atom{{Kind: AtomPresentInAll}}}}}
}

func presentInInput(i int) Selector {
	return Selector{Products: []Product{{Atoms: []Atom{{Kind: AtomPresentInInput, N: i}}}}}
}

func presentOnlyInInput0() Selector {
	return Selector{Products: []Product{{Atoms: []Atom{
		{Kind: AtomPresentInInput, N: 0},
		{Kind: AtomPresentInAtLeast, N: 2, Negate: true},
	}}}}
}

// Union emits every k-mer present in any input, value = number of inputs
// that had it, label = OR of their labels.
func Union() *Template {
	return &Template{Name: "union", ValueAssign: ValueAssign{Rule: ValueCount}, LabelAssign: LabelAssign{Rule: LabelOr}, Selector: presentInAny()}
}

// UnionMin/UnionMax/UnionSum are Union with an alternate value-assign.
func UnionMin() *Template {
	return &Template{Name: "union-min", ValueAssign: ValueAssign{Rule: ValueMin, C: Const(uint64(^uint32(0)))}, LabelAssign: LabelAssign{Rule: LabelOr}, Selector: presentInAny()}
}
func UnionMax() *Template {
	return &Template{Name: "union-max", ValueAssign: ValueAssign{Rule: ValueMax, C: Const(0)}, LabelAssign: LabelAssign{Rule: LabelOr}, Selector: presentInAny()}
}
func UnionSum() *Template {
	return &Template{Name: "union-sum", ValueAssign: ValueAssign{Rule: ValueAdd, C: Const(0)}, LabelAssign: LabelAssign{Rule: LabelOr}, Selector: presentInAny()}
}

// Intersect emits only k-mers present in every input.
func Intersect() *Template {
	return &Template{Name: "intersect", ValueAssign: ValueAssign{Rule: ValueFirst}, LabelAssign: LabelAssign{Rule: LabelAnd}, Selector: presentInAll()}
}
func IntersectMin() *Template {
	return &Template{Name: "intersect-min", ValueAssign: ValueAssign{Rule: ValueMin, C: Const(uint64(^uint32(0)))}, LabelAssign: LabelAssign{Rule: LabelAnd}, Selector: presentInAll()}
}
func IntersectMax() *Template {
	return &Template{Name: "intersect-max", ValueAssign: ValueAssign{Rule: ValueMax, C: Const(0)}, LabelAssign: LabelAssign{Rule: LabelAnd}, Selector: presentInAll()}
}
func IntersectSum() *Template {
	return &Template{Name: "intersect-sum", ValueAssign: ValueAssign{Rule: ValueAdd, C: Const(0)}, LabelAssign: LabelAssign{Rule: LabelAnd}, Selector: presentInAll()}
}

// Subtract emits k-mers present in input 0, value = input0's value minus
// every other active input's value (floored at zero).
func Subtract() *Template {
	return &Template{Name: "subtract", ValueAssign: ValueAssign{Rule: ValueSub, C: FromInput(0)}, LabelAssign: LabelAssign{Rule: LabelDifference}, Selector: presentInInput(0)}
}

// Difference emits k-mers present in input 0 and no other input.
func Difference() *Template {
	return &Template{Name: "difference", ValueAssign: ValueAssign{Rule: ValueFirst}, LabelAssign: LabelAssign{Rule: LabelFirst}, Selector: presentOnlyInInput0()}
}

func cmpTemplate(name string, op Op) *Template {
	return &Template{
		Name:        name,
		ValueAssign: ValueAssign{Rule: ValueFirst},
		LabelAssign: LabelAssign{Rule: LabelFirst},
		Selector: Selector{Products: []Product{{Atoms: []Atom{
			{Kind: AtomValue, Op: op, Lhs: OpOutput(), Rhs: OpConst(0)},
		}}}},
	}
}

// LessThan/GreaterThan/EqualTo/NotEqualTo filter a single input's k-mers
// by comparing their value to c.
func LessThan(c uint64) *Template    { t := cmpTemplate("less-than", OpLT); t.Selector.Products[0].Atoms[0].Rhs = OpConst(c); return t }
func GreaterThan(c uint64) *Template { t := cmpTemplate("greater-than", OpGT); t.Selector.Products[0].Atoms[0].Rhs = OpConst(c); return t }
func EqualTo(c uint64) *Template     { t := cmpTemplate("equal-to", OpEQ); t.Selector.Products[0].Atoms[0].Rhs = OpConst(c); return t }
func NotEqualTo(c uint64) *Template  { t := cmpTemplate("not-equal-to", OpNE); t.Selector.Products[0].Atoms[0].Rhs = OpConst(c); return t }

// Increase/Decrease add/subtract a constant from every k-mer's value
// (single input, always selected).
func Increase(c uint64) *Template {
	return &Template{Name: "increase", ValueAssign: ValueAssign{Rule: ValueAdd, C: Const(c)}, LabelAssign: LabelAssign{Rule: LabelFirst}}
}
func Decrease(c uint64) *Template {
	return &Template{Name: "decrease", ValueAssign: ValueAssign{Rule: ValueSub, C: Const(c)}, LabelAssign: LabelAssign{Rule: LabelFirst}}
}
