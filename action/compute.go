// Package action implements the operation DAG of spec.md §4.5: a
// Template holds a node's static parameters (inputs, value/label assign
// rules, selector), and Compute is its per-slice instantiation, one of
// 64 running in parallel (spec.md §9's template/compute split, recast
// here as the driver owning dense arrays of both rather than
// cross-referencing pointers).
package action

import (
	"github.com/marbl/meryl-sub000/kmer"
)

// SliceInput is anything that can stream (k-mer, value, label) triples in
// ascending order for one slice: a database slice reader, a sorted list
// file, a sequence-derived CountArray result, or another action's
// Compute (for chained inputs).
type SliceInput interface {
	// Next advances to, and returns, the next triple. ok is false once
	// the input is exhausted for this slice.
	Next() (k kmer.Kmer, value uint32, label uint64, ok bool)
}

// Template is the command-time, slice-independent description of one
// action-tree node.
type Template struct {
	Name        string
	ValueAssign ValueAssign
	LabelAssign LabelAssign
	Selector    Selector
}

// activeEntry is one member of a round's active list: an input whose
// current k-mer equals the round's minimum.
type activeEntry struct {
	inputIdx int
	value    uint32
	label    uint64
}

// Compute is one slice's running instance of a Template. It satisfies
// SliceInput so action trees nest: an action's inputs can themselves be
// Computes of upstream actions.
type Compute struct {
	tmpl   *Template
	schema kmer.Schema
	inputs []SliceInput

	cur    []current
	curKey []kmer.Kmer // last k-mer read from each input, meaningful iff cur[i].ok.

	activeLastRound []bool
	started         bool
}

// NewCompute instantiates tmpl for one slice over the given inputs, in
// the same order Template.ValueAssign/LabelAssign/Selector reference
// them by index.
func NewCompute(tmpl *Template, schema kmer.Schema, inputs []SliceInput) *Compute {
	n := len(inputs)
	return &Compute{
		tmpl:            tmpl,
		schema:          schema,
		inputs:          inputs,
		cur:             make([]current, n),
		curKey:          make([]kmer.Kmer, n),
		activeLastRound: allTrue(n),
	}
}

func allTrue(n int) []bool {
	b := make([]bool, n)
	for i := range b {
		b[i] = true
	}
	return b
}

// Next runs the per-slice compute loop (spec.md §4.5) until it either
// emits a k-mer or exhausts every input.
func (c *Compute) Next() (kmer.Kmer, uint32, uint64, bool) {
	for {
		for i, advance := range c.activeLastRound {
			if !advance {
				continue
			}
			k, v, l, ok := c.inputs[i].Next()
			c.cur[i] = current{ok: ok, value: v, label: l, asUint64: uint64(v)}
			c.curKey[i] = k
			c.activeLastRound[i] = false
		}

		minIdx := -1
		for i, cu := range c.cur {
			if !cu.ok {
				continue
			}
			if minIdx < 0 || c.curKey[i].Less(c.curKey[minIdx]) {
				minIdx = i
			}
		}
		if minIdx < 0 {
			return kmer.Kmer{}, 0, 0, false
		}
		minKey := c.curKey[minIdx]

		var active []activeEntry
		for i, cu := range c.cur {
			if cu.ok && c.curKey[i].Compare(minKey) == 0 {
				active = append(active, activeEntry{inputIdx: i, value: cu.value, label: cu.label})
				c.activeLastRound[i] = true
			}
		}

		if !c.tmpl.Selector.Eval(c.schema, minKey, active, c.cur, len(c.inputs)) {
			continue
		}

		valueChosen := valueChosenIndex(c.tmpl.ValueAssign.Rule, active)
		labelChosen := labelChosenIndex(c.tmpl.LabelAssign.Rule, active)
		outValue := evalValue(c.tmpl.ValueAssign, active, c.cur, labelChosen)
		outLabel := evalLabel(c.tmpl.LabelAssign, active, c.cur, c.schema.LabelWidth, valueChosen)
		return minKey, outValue, outLabel, true
	}
}
