package dbformat

import (
	"context"
	"io/ioutil"
	"path/filepath"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/marbl/meryl-sub000/bitstream"
	"github.com/marbl/meryl-sub000/kmer"
)

// Triple is one (k-mer, value, label) record as produced by a reader.
type Triple struct {
	Kmer  kmer.Kmer
	Value uint32
	Label uint64
}

// SliceReader streams the triples of one slice data file in ascending
// order, decoding one block at a time into a small arena.
type SliceReader struct {
	schema          kmer.Schema
	blockPrefixBits int
	valueBits       uint

	data    *bitstream.BitStream
	pending []Record
	prefix  uint64
	pi      int
}

// NewSliceReader opens slice sliceIndex of the database at dir.
func NewSliceReader(ctx context.Context, dir string, sliceIndex int, schema kmer.Schema, blockPrefixBits int, valueBits uint) (*SliceReader, error) {
	path := filepath.Join(dir, SliceDataFileName(sliceIndex))
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "dbformat: open %s", path)
	}
	defer f.Close(ctx) // nolint: errcheck
	raw, err := ioutil.ReadAll(f.Reader(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "dbformat: read %s", path)
	}
	if err := verifySliceChecksum(ctx, dir, sliceIndex, raw); err != nil {
		return nil, err
	}
	data, _ := bitstream.Deserialize(raw)
	return &SliceReader{schema: schema, blockPrefixBits: blockPrefixBits, valueBits: valueBits, data: data}, nil
}

// verifySliceChecksum reads slice sliceIndex's mini-index file and
// confirms its leading farm hash matches raw, the data file's bytes.
// Only that hash is read; the BlockIndexEntry table after it is not
// decoded (AnalyzeSlice finds block boundaries by decoding the data file
// itself). The checksum alone is enough to catch a truncated or corrupted
// data file before it is ever decoded as k-mers.
func verifySliceChecksum(ctx context.Context, dir string, sliceIndex int, raw []byte) error {
	path := filepath.Join(dir, SliceIndexFileName(sliceIndex))
	f, err := file.Open(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "dbformat: open %s", path)
	}
	defer f.Close(ctx) // nolint: errcheck
	idxRaw, err := ioutil.ReadAll(f.Reader(ctx))
	if err != nil {
		return errors.Wrapf(err, "dbformat: read %s", path)
	}
	idx, _ := bitstream.Deserialize(idxRaw)
	want := idx.ReadBinary(64)
	got := farm.Hash64(raw)
	if want != got {
		return errors.Errorf("dbformat: slice %d checksum mismatch: data file hash %x, mini-index recorded %x", sliceIndex, got, want)
	}
	return nil
}

// Next returns the next triple in ascending order, or ok=false at end of
// slice.
func (r *SliceReader) Next() (Triple, bool) {
	for r.pi >= len(r.pending) {
		if r.data.Pos() >= r.data.Len() {
			return Triple{}, false
		}
		suffixBits := uint(r.schema.Width() - r.blockPrefixBits)
		r.prefix, r.pending = decodeBlock(r.data, r.blockPrefixBits, suffixBits, r.valueBits, uint(r.schema.LabelWidth))
		r.pi = 0
		if len(r.pending) == 0 {
			continue
		}
	}
	rec := r.pending[r.pi]
	r.pi++
	k := kmer.FromPrefixSuffix(r.schema, r.prefix, r.blockPrefixBits, 0, rec.Suffix)
	return Triple{Kmer: k, Value: rec.Value, Label: rec.Label}, true
}

// DatabaseReader reads all 64 slices of a database in slice-index order,
// which (per spec.md §3's invariant) is the database's total sorted
// order.
type DatabaseReader struct {
	dir   string
	idx   Index
	slice int
	cur   *SliceReader
}

// OpenDatabase validates the index file and returns a reader positioned
// before the first slice.
func OpenDatabase(ctx context.Context, dir string) (*DatabaseReader, error) {
	idx, err := ReadIndex(ctx, dir)
	if err != nil {
		return nil, err
	}
	return &DatabaseReader{dir: dir, idx: idx}, nil
}

// Index returns the database's decoded index metadata.
func (d *DatabaseReader) Index() Index { return d.idx }

// Next returns the next triple in total sorted order across all slices,
// or ok=false once every slice is exhausted.
func (d *DatabaseReader) Next(ctx context.Context) (Triple, bool, error) {
	for {
		if d.cur == nil {
			if d.slice >= NumSlices {
				return Triple{}, false, nil
			}
			sr, err := NewSliceReader(ctx, d.dir, d.slice, d.idx.Schema, d.idx.BlockPrefixBits, d.idx.ValueWidth)
			if err != nil {
				return Triple{}, false, err
			}
			d.cur = sr
		}
		if t, ok := d.cur.Next(); ok {
			return t, true, nil
		}
		d.cur = nil
		d.slice++
	}
}

// Lookup scans the database for a specific k-mer and reports its value,
// label, and whether it was found. This is a linear scan over the owning
// slice's blocks that stops at the first k-mer greater than target; the
// slice's mini-index is not consulted.
func Lookup(ctx context.Context, dir string, target kmer.Kmer) (value uint32, label uint64, found bool, err error) {
	idx, err := ReadIndex(ctx, dir)
	if err != nil {
		return 0, 0, false, err
	}
	sliceIdx := int(target.Prefix(idx.Schema, SlicePrefixBits))
	sr, err := NewSliceReader(ctx, dir, sliceIdx, idx.Schema, idx.BlockPrefixBits, idx.ValueWidth)
	if err != nil {
		return 0, 0, false, err
	}
	for {
		t, ok := sr.Next()
		if !ok {
			return 0, 0, false, nil
		}
		c := t.Kmer.Compare(target)
		if c == 0 {
			return t.Value, t.Label, true, nil
		}
		if c > 0 {
			return 0, 0, false, nil
		}
	}
}
