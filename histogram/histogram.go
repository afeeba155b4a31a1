// Package histogram implements the per-slice value-distribution
// accumulator used by the Histogram and Statistics actions (spec.md
// §4.5). Each of the 64 parallel slice workers owns a private
// Accumulator; a single thread folds them together once every worker has
// joined (spec.md §5 "Shared mutable state").
package histogram

import (
	"fmt"
	"io"
	"sort"
)

// Accumulator tallies, for every value observed, how many distinct
// k-mers had that value.
type Accumulator struct {
	counts map[uint32]uint64
	total  uint64 // sum of value * occurrences, i.e. total k-mer count.
	unique uint64 // distinct k-mers with value == 1.
}

// New returns an empty Accumulator.
func New() *Accumulator { return &Accumulator{counts: map[uint32]uint64{}} }

// Add folds one distinct k-mer's value into the accumulator.
func (a *Accumulator) Add(value uint32) {
	a.counts[value]++
	a.total += uint64(value)
	if value == 1 {
		a.unique++
	}
}

// Merge folds other into a. Used to combine the 64 per-slice
// accumulators at end of run.
func (a *Accumulator) Merge(other *Accumulator) {
	for v, n := range other.counts {
		a.counts[v] += n
	}
	a.total += other.total
	a.unique += other.unique
}

// Distinct returns the number of distinct k-mers tallied.
func (a *Accumulator) Distinct() uint64 {
	var n uint64
	for _, c := range a.counts {
		n += c
	}
	return n
}

// Total returns sum(value * occurrences) across all tallied k-mers.
func (a *Accumulator) Total() uint64 { return a.total }

// Unique returns the number of distinct k-mers whose value is exactly 1.
func (a *Accumulator) Unique() uint64 { return a.unique }

// sortedPairs returns (value, occurrences) pairs ascending by value.
func (a *Accumulator) sortedPairs() [][2]uint64 {
	out := make([][2]uint64, 0, len(a.counts))
	for v, n := range a.counts {
		out = append(out, [2]uint64{uint64(v), n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// WriteHistogram emits one "value\toccurrences\n" line per distinct
// value seen, ascending by value (spec.md §4.5).
func (a *Accumulator) WriteHistogram(w io.Writer) error {
	for _, p := range a.sortedPairs() {
		if _, err := fmt.Fprintf(w, "%d\t%d\n", p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

// WriteStatistics emits the summary report: total k-mers, distinct
// k-mers, unique (value=1) k-mers, and the cumulative distribution of
// distinct-k-mer count by value (spec.md §4.5).
func (a *Accumulator) WriteStatistics(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "total\t%d\n", a.total); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "distinct\t%d\n", a.Distinct()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "unique\t%d\n", a.unique); err != nil {
		return err
	}
	var cum uint64
	for _, p := range a.sortedPairs() {
		cum += p[1]
		if _, err := fmt.Fprintf(w, "cumulative\t%d\t%d\n", p[0], cum); err != nil {
			return err
		}
	}
	return nil
}
