// Package dbformat implements the sliced, delta-encoded, bit-packed
// on-disk database format of spec.md §4.4: one merylIndex file carrying
// scalar metadata and statistics, plus 64 slice data files each holding a
// sequence of blocks.
package dbformat

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"sort"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/marbl/meryl-sub000/bitstream"
	"github.com/marbl/meryl-sub000/kmer"
)

// NumSlices is the fixed number of on-disk slice files, regardless of k
// or counting mode (spec.md §3, §9 "The 64-way slicing").
const NumSlices = 64

// SlicePrefixBits is the width of the slice-selecting prefix: the top 6
// bits of every k-mer, always, giving exactly NumSlices slices.
const SlicePrefixBits = 6

// magic1/magic2 are fixed 64-bit constants whose hex digits read as ASCII
// (most significant byte first), so a corrupted or unrelated file is
// rejected immediately. Serialize stores words little-endian, so a byte
// dump of the file shows each constant's bytes in reverse order.
const (
	magic1 = uint64(0x6d65727949646178) // "meryIdax"
	magic2 = uint64(0x782d76310000abcd) // "x-v1" + version tag bytes
)

// FormatVersion is bumped whenever the on-disk layout changes
// incompatibly.
const FormatVersion = 1

// Statistics summarizes the value distribution of a database, sufficient
// to re-emit the histogram without scanning the data files (spec.md §6).
type Statistics struct {
	TotalKmers    uint64          // sum of value*occurrences over all distinct k-mers.
	DistinctKmers uint64          // count of distinct k-mers.
	UniqueKmers   uint64          // count of distinct k-mers with value == 1.
	Histogram     map[uint32]uint64 // value -> number of distinct k-mers with that value.
}

// NewStatistics returns an empty Statistics accumulator.
func NewStatistics() Statistics {
	return Statistics{Histogram: map[uint32]uint64{}}
}

// Add folds one distinct (value, occurrences=1) k-mer into the
// statistics. Called once per emitted k-mer during a write.
func (s *Statistics) Add(value uint32) {
	s.DistinctKmers++
	s.TotalKmers += uint64(value)
	if value == 1 {
		s.UniqueKmers++
	}
	s.Histogram[value]++
}

// Merge folds other into s, used to combine 64 per-slice accumulators at
// end of run.
func (s *Statistics) Merge(other Statistics) {
	s.TotalKmers += other.TotalKmers
	s.DistinctKmers += other.DistinctKmers
	s.UniqueKmers += other.UniqueKmers
	for v, n := range other.Histogram {
		s.Histogram[v] += n
	}
}

// sortedHistogram returns the histogram as (value, occurrences) pairs
// sorted ascending by value, matching the on-disk and print order.
func (s Statistics) sortedHistogram() [][2]uint64 {
	out := make([][2]uint64, 0, len(s.Histogram))
	for v, n := range s.Histogram {
		out = append(out, [2]uint64{uint64(v), n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Index is the decoded content of the merylIndex file.
type Index struct {
	Schema           kmer.Schema
	SlicePrefixBits  int
	BlockPrefixBits  int
	ValueWidth       uint
	Stats            Statistics
}

// IndexFileName is the fixed name of the index file within a database
// directory.
const IndexFileName = "merylIndex"

// WriteIndex serializes idx to dir/merylIndex.
func WriteIndex(ctx context.Context, dir string, idx Index) error {
	b := bitstream.New(0)
	b.WriteBinary(64, magic1)
	b.WriteBinary(64, magic2)
	b.WriteBinary(8, uint64(idx.Schema.K))
	b.WriteBinary(8, uint64(idx.Schema.LabelWidth))
	b.WriteBinary(8, uint64(idx.SlicePrefixBits))
	b.WriteBinary(8, uint64(idx.BlockPrefixBits))
	b.WriteBinary(8, uint64(idx.ValueWidth))
	b.WriteBinary(8, uint64(FormatVersion))
	b.WriteBinary(64, idx.Stats.TotalKmers)
	b.WriteBinary(64, idx.Stats.DistinctKmers)
	b.WriteBinary(64, idx.Stats.UniqueKmers)
	hist := idx.Stats.sortedHistogram()
	b.WriteBinary(32, uint64(len(hist)))
	for _, pair := range hist {
		b.WriteBinary(32, pair[0])
		b.WriteBinary(64, pair[1])
	}
	var out []byte
	b.Serialize(&out)
	path := filepath.Join(dir, IndexFileName)
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "dbformat: create %s", path)
	}
	if _, err := f.Writer(ctx).Write(out); err != nil {
		f.Close(ctx) // nolint: errcheck
		return errors.Wrapf(err, "dbformat: write %s", path)
	}
	return errors.Wrapf(f.Close(ctx), "dbformat: close %s", path)
}

// ReadIndex opens dir/merylIndex and validates its magic.
func ReadIndex(ctx context.Context, dir string) (Index, error) {
	path := filepath.Join(dir, IndexFileName)
	f, err := file.Open(ctx, path)
	if err != nil {
		return Index{}, errors.Wrapf(err, "dbformat: open index in %s", dir)
	}
	defer f.Close(ctx) // nolint: errcheck
	raw, err := ioutil.ReadAll(f.Reader(ctx))
	if err != nil {
		return Index{}, errors.Wrapf(err, "dbformat: read index in %s", dir)
	}
	b, _ := bitstream.Deserialize(raw)
	if got := b.ReadBinary(64); got != magic1 {
		return Index{}, errors.Errorf("dbformat: %s is not a meryl database (bad magic1 %x)", dir, got)
	}
	if got := b.ReadBinary(64); got != magic2 {
		return Index{}, errors.Errorf("dbformat: %s is not a meryl database (bad magic2 %x)", dir, got)
	}
	var idx Index
	idx.Schema.K = int(b.ReadBinary(8))
	idx.Schema.LabelWidth = int(b.ReadBinary(8))
	idx.SlicePrefixBits = int(b.ReadBinary(8))
	idx.BlockPrefixBits = int(b.ReadBinary(8))
	idx.ValueWidth = uint(b.ReadBinary(8))
	_ = b.ReadBinary(8) // format version; only FormatVersion is currently defined.
	idx.Stats = NewStatistics()
	idx.Stats.TotalKmers = b.ReadBinary(64)
	idx.Stats.DistinctKmers = b.ReadBinary(64)
	idx.Stats.UniqueKmers = b.ReadBinary(64)
	n := b.ReadBinary(32)
	for i := uint64(0); i < n; i++ {
		v := uint32(b.ReadBinary(32))
		c := b.ReadBinary(64)
		idx.Stats.Histogram[v] = c
	}
	if err := idx.Schema.Validate(); err != nil {
		return Index{}, errors.Wrapf(err, "dbformat: corrupt index in %s", dir)
	}
	return idx, nil
}
