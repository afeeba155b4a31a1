package dbformat

import (
	"context"
	"fmt"
	"path/filepath"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/marbl/meryl-sub000/bitstream"
	"github.com/marbl/meryl-sub000/kmer"
)

// SliceDataFileName returns the on-disk name of slice i's data file.
func SliceDataFileName(i int) string { return fmt.Sprintf("0x%06x.merylData", i) }

// SliceIndexFileName returns the on-disk name of slice i's mini-index.
func SliceIndexFileName(i int) string { return fmt.Sprintf("0x%06x.merylIndex", i) }

// BlockIndexEntry is one entry of a slice's mini-index: the prefix of a
// block and its bit offset within the slice's data file, for O(1) seek.
type BlockIndexEntry struct {
	Prefix   uint64
	BitOffset uint64
}

// StreamWriter writes one of the 64 slice files plus its mini-index.
// Writers for distinct slices never touch each other's files or state
// and may run fully in parallel (spec.md §4.4 "Writers MAY safely run in
// parallel").
type StreamWriter struct {
	dir             string
	sliceIndex      int
	schema          kmer.Schema
	blockPrefixBits int
	valueBits       uint

	blockTarget int
	data        *bitstream.BitStream
	miniIndex   []BlockIndexEntry

	curPrefix  uint64
	curHasRec  bool
	curRecords []Record
}

// NewStreamWriter returns a writer for slice sliceIndex inside dir. dir
// must already exist (created atomically by the database writer, see
// CreateDatabase).
func NewStreamWriter(dir string, sliceIndex int, schema kmer.Schema, blockPrefixBits int, valueBits uint, blockTarget int) *StreamWriter {
	return &StreamWriter{
		dir:             dir,
		sliceIndex:      sliceIndex,
		schema:          schema,
		blockPrefixBits: blockPrefixBits,
		valueBits:       valueBits,
		blockTarget:     blockTarget,
		data:            bitstream.New(0),
	}
}

// AddMer buffers one k-mer into the currently open block, flushing the
// previous block first if k's block prefix differs. Callers must present
// k-mers in ascending order (the order the action tree / CountArray
// already guarantees).
func (w *StreamWriter) AddMer(k kmer.Kmer, value uint32, label uint64) {
	prefix := k.Prefix(w.schema, w.blockPrefixBits)
	if w.curHasRec && prefix != w.curPrefix {
		w.flushBlock()
	}
	w.curPrefix = prefix
	w.curHasRec = true
	_, lo := k.Suffix(w.schema, w.blockPrefixBits)
	w.curRecords = append(w.curRecords, Record{Suffix: lo, Value: value, Label: label})
	if len(w.curRecords) >= w.blockTarget {
		w.flushBlock()
	}
}

func (w *StreamWriter) flushBlock() {
	if !w.curHasRec {
		return
	}
	w.miniIndex = append(w.miniIndex, BlockIndexEntry{Prefix: w.curPrefix, BitOffset: w.data.Len()})
	suffixBits := uint(w.schema.Width() - w.blockPrefixBits)
	encodeBlock(w.data, w.curPrefix, w.blockPrefixBits, suffixBits, w.valueBits, uint(w.schema.LabelWidth), w.curRecords)
	w.curRecords = w.curRecords[:0]
	w.curHasRec = false
}

// Close flushes the final partial block, writes the data file and the
// mini-index (the latter prefixed with a farm hash of the data file's
// bytes, checked by NewSliceReader), and releases the writer's buffers.
func (w *StreamWriter) Close(ctx context.Context) error {
	w.flushBlock()
	var out []byte
	w.data.Serialize(&out)
	dataPath := filepath.Join(w.dir, SliceDataFileName(w.sliceIndex))
	if err := writeFile(ctx, dataPath, out); err != nil {
		return err
	}
	idx := bitstream.New(0)
	idx.WriteBinary(64, farm.Hash64(out))
	idx.WriteBinary(64, uint64(len(w.miniIndex)))
	for _, e := range w.miniIndex {
		idx.WriteBinary(64, e.Prefix)
		idx.WriteBinary(64, e.BitOffset)
	}
	var idxOut []byte
	idx.Serialize(&idxOut)
	idxPath := filepath.Join(w.dir, SliceIndexFileName(w.sliceIndex))
	if err := writeFile(ctx, idxPath, idxOut); err != nil {
		return err
	}
	w.data = nil
	return nil
}

// writeFile is the file.Create/Writer/Close dance every on-disk blob
// in this package goes through, factored out since StreamWriter writes
// two of them (data + mini-index).
func writeFile(ctx context.Context, path string, data []byte) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "dbformat: create %s", path)
	}
	if _, err := f.Writer(ctx).Write(data); err != nil {
		f.Close(ctx) // nolint: errcheck
		return errors.Wrapf(err, "dbformat: write %s", path)
	}
	return errors.Wrapf(f.Close(ctx), "dbformat: close %s", path)
}
