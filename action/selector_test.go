package action

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marbl/meryl-sub000/kmer"
)

func TestSelectorEmptyAlwaysEmits(t *testing.T) {
	var sel Selector
	require.True(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, nil, nil, 2))
}

func TestSelectorPresentInAllRequiresEveryInput(t *testing.T) {
	sel := presentInAll()
	active := []activeEntry{{inputIdx: 0}, {inputIdx: 1}}
	require.True(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, active, nil, 2))
	require.False(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, active[:1], nil, 2))
}

func TestSelectorPresentOnlyInInput0(t *testing.T) {
	sel := presentOnlyInInput0()
	onlyZero := []activeEntry{{inputIdx: 0}}
	require.True(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, onlyZero, nil, 2))
	both := []activeEntry{{inputIdx: 0}, {inputIdx: 1}}
	require.False(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, both, nil, 2))
}

func TestSelectorValueComparisonAgainstConst(t *testing.T) {
	sel := Selector{Products: []Product{{Atoms: []Atom{
		{Kind: AtomValue, Op: OpGT, Lhs: OpOutput(), Rhs: OpConst(5)},
	}}}}
	active := []activeEntry{{inputIdx: 0, value: 10}}
	require.True(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, active, nil, 1))

	low := []activeEntry{{inputIdx: 0, value: 1}}
	require.False(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, low, nil, 1))
}

func TestSelectorProductsAreOred(t *testing.T) {
	sel := Selector{Products: []Product{
		{Atoms: []Atom{{Kind: AtomPresentInInput, N: 0}}},
		{Atoms: []Atom{{Kind: AtomPresentInInput, N: 1}}},
	}}
	onlyOne := []activeEntry{{inputIdx: 1}}
	require.True(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, onlyOne, nil, 2))
}

func TestSelectorAtomsWithinAProductAreAnded(t *testing.T) {
	sel := Selector{Products: []Product{{Atoms: []Atom{
		{Kind: AtomPresentInInput, N: 0},
		{Kind: AtomPresentInInput, N: 1},
	}}}}
	onlyOne := []activeEntry{{inputIdx: 0}}
	require.False(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, onlyOne, nil, 2))
	both := []activeEntry{{inputIdx: 0}, {inputIdx: 1}}
	require.True(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, both, nil, 2))
}

func TestSelectorBasesCountsMatchingBasesInKmer(t *testing.T) {
	s := kmer.Schema{K: 4}
	k, ok := kmer.FromACGT(s, "AACG")
	require.True(t, ok)
	sel := Selector{Products: []Product{{Atoms: []Atom{
		{Kind: AtomBases, Op: OpEQ, Bases: []Base{BaseA}, Rhs: OpConst(2)},
	}}}}
	require.True(t, sel.Eval(s, k, nil, nil, 1))
}

func TestSelectorNegateFlipsAtomResult(t *testing.T) {
	sel := Selector{Products: []Product{{Atoms: []Atom{
		{Kind: AtomPresentInInput, N: 0, Negate: true},
	}}}}
	present := []activeEntry{{inputIdx: 0}}
	require.False(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, present, nil, 1))
	absent := []activeEntry{{inputIdx: 1}}
	require.True(t, sel.Eval(kmer.Schema{K: 4}, kmer.Kmer{}, absent, nil, 2))
}
