package dbformat

import (
	"math/bits"

	"github.com/grailbio/base/log"
	"github.com/marbl/meryl-sub000/bitstream"
)

// Record is one (k-mer, value, label) triple local to a block, expressed
// as a k-mer-prefix-stripped suffix plus its annotations.
type Record struct {
	Suffix uint64
	Value  uint32
	Label  uint64
}

// maxSuffixBits bounds the in-block residual width this implementation
// supports: a block prefix must be chosen wide enough that the residual
// fits in one machine word. Mer sizes beyond 32 (2k=64) simply need a
// correspondingly wider block prefix; this is a deliberate scope
// reduction from the original's arbitrary-width residual, noted in
// DESIGN.md.
const maxSuffixBits = 64

// kmerCodingType and countCodingType tag the two block-local encoding
// schemes (spec.md §4.4 items 3-4). Exactly one scheme of each exists
// today; the tag bytes exist so a future scheme can be introduced
// without breaking readers of old blocks.
const (
	kmerCodingType  = 0
	countCodingType = 0
)

func ceilLog2(n uint64) uint {
	if n <= 1 {
		return 0
	}
	return uint(bits.Len64(n - 1))
}

// encodeBlock appends one block (prefix || sorted records) to w following
// spec.md §4.4: an Elias-Fano-like split of each suffix into a
// delta-unary-coded high part and a fixed-width binary low part, followed
// by fixed-width value and (optionally) label streams.
func encodeBlock(w *bitstream.BitStream, blockPrefix uint64, blockPrefixBits int, suffixBits uint, valueBits uint, labelBits uint, records []Record) {
	if suffixBits > maxSuffixBits {
		log.Panicf("dbformat: block suffix width %d exceeds %d; widen the block prefix", suffixBits, maxSuffixBits)
	}
	w.WriteBinary(uint(blockPrefixBits), blockPrefix)
	w.WriteBinary(64, uint64(len(records)))
	if len(records) == 0 {
		return
	}
	w.WriteBinary(8, kmerCodingType)
	unaryBits := ceilLog2(uint64(len(records)))
	binaryBits := suffixBits - unaryBits
	var prevHigh uint64
	for _, r := range records {
		high := r.Suffix >> binaryBits
		low := r.Suffix & ((uint64(1) << binaryBits) - 1)
		if high < prevHigh {
			log.Panicf("dbformat: suffixes not sorted within block (high %d < prev %d)", high, prevHigh)
		}
		w.WriteUnary(high - prevHigh)
		w.WriteBinary(uint(binaryBits), low)
		prevHigh = high
	}
	w.WriteBinary(8, countCodingType)
	for _, r := range records {
		w.WriteBinary(uint(valueBits), uint64(r.Value))
	}
	if labelBits > 0 {
		for _, r := range records {
			w.WriteBinary(uint(labelBits), r.Label)
		}
	}
}

// decodeBlock reads one block from r, returning its stored prefix and
// records in file order (which is also sorted, ascending, order).
func decodeBlock(r *bitstream.BitStream, blockPrefixBits int, suffixBits uint, valueBits uint, labelBits uint) (blockPrefix uint64, records []Record) {
	blockPrefix = r.ReadBinary(uint(blockPrefixBits))
	n := r.ReadBinary(64)
	if n == 0 {
		return blockPrefix, nil
	}
	if got := r.ReadBinary(8); got != kmerCodingType {
		log.Panicf("dbformat: unsupported kmer coding type %d", got)
	}
	unaryBits := ceilLog2(n)
	binaryBits := suffixBits - unaryBits
	records = make([]Record, n)
	var prevHigh uint64
	for i := range records {
		delta := r.ReadUnary()
		high := prevHigh + delta
		low := r.ReadBinary(uint(binaryBits))
		records[i].Suffix = (high << binaryBits) | low
		prevHigh = high
	}
	if got := r.ReadBinary(8); got != countCodingType {
		log.Panicf("dbformat: unsupported count coding type %d", got)
	}
	for i := range records {
		records[i].Value = uint32(r.ReadBinary(uint(valueBits)))
	}
	if labelBits > 0 {
		for i := range records {
			records[i].Label = r.ReadBinary(uint(labelBits))
		}
	}
	return blockPrefix, records
}
