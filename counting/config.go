// Package counting implements the counting driver of spec.md §4.7: mode
// selection between direct-array and partitioned-sort counting, the
// 64-way parallel slice pipeline, and emission into a dbformat
// database.
package counting

import (
	"github.com/pkg/errors"

	"github.com/marbl/meryl-sub000/dbformat"
	"github.com/marbl/meryl-sub000/kmer"
)

// Mode selects the counting algorithm (spec.md §4.7).
type Mode int

const (
	// ModeAuto picks the mode per spec.md's heuristic: direct-array when
	// it comfortably fits the memory budget, partitioned-sort otherwise.
	ModeAuto Mode = iota
	ModeDirectArray
	ModePartitionedSort
)

// Config holds the parameters of one counting run.
type Config struct {
	Schema kmer.Schema

	// Memory is the allowed-memory budget in bytes.
	Memory uint64
	// Threads is the worker pool size for the 64-way slice phase; 0
	// means "use the number of available CPUs".
	Threads int
	// CountSuffix, if non-empty, restricts emission to forward k-mers
	// ending in this exact base sequence.
	CountSuffix string
	// Mode overrides automatic mode selection; ModeAuto applies the
	// spec.md heuristic.
	Mode Mode

	// ValueWidth bounds the fixed-width value field used by the on-disk
	// block encoder in both counting modes (0 means 32); 32 covers every
	// count this driver ever produces (occurrence counts saturate at
	// countarray.ValueMax, a uint32).
	ValueWidth uint
}

// directArrayBytes returns the size, in bytes, of the direct-array
// counter's base array for mer size k: one byte per one of 4^k keys.
func directArrayBytes(k int) uint64 {
	return uint64(1) << uint(2*k)
}

// ChooseMode resolves cfg.Mode to a concrete Mode, applying spec.md
// §4.7's heuristic when cfg.Mode is ModeAuto: direct-array counting is
// used only when its base array comfortably fits the memory budget
// (spec.md's "4^k * 1 bytes comfortably fits in M"; "comfortably"
// taken as leaving at least half the budget for everything else, since
// the direct-array path still needs overflow planes and I/O buffers).
func ChooseMode(cfg Config) Mode {
	if cfg.Mode != ModeAuto {
		return cfg.Mode
	}
	if directArrayBytes(cfg.Schema.K)*2 <= cfg.Memory {
		return ModeDirectArray
	}
	return ModePartitionedSort
}

// bucketOverhead estimates the fixed per-bucket cost (struct headers,
// partially-filled trailing page) of one CountArray prefix bucket.
const bucketOverhead = 256

// maxBlockSuffixBits bounds how few bits a block prefix may leave for
// the in-block residual (dbformat's block codec requires the residual
// to fit one machine word); ChoosePrefixWidth never returns a width
// narrower than schema.Width()-64 so the chosen bucket suffix width
// stays encodable.
const maxBlockSuffixBits = 64

// ChoosePrefixWidth picks the partitioned-sort prefix width wp (spec.md
// §4.7): the smallest width, starting from the narrowest width that
// keeps both every bucket mapped cleanly onto a slice
// (dbformat.SlicePrefixBits) and its suffix storage within one machine
// word (maxBlockSuffixBits), whose estimated total memory (struct
// overhead per bucket, plus estimated suffix storage) fits the budget.
// estimatedKmers is a rough upper bound on the number of (prefix,
// suffix) pairs that will be accumulated before a flush.
func ChoosePrefixWidth(schema kmer.Schema, memory uint64, estimatedKmers uint64) (int, error) {
	width := schema.Width()
	start := dbformat.SlicePrefixBits
	if width-maxBlockSuffixBits > start {
		start = width - maxBlockSuffixBits
	}
	for wp := start; wp <= width; wp++ {
		nPrefix := uint64(1) << uint(wp)
		suffixWidth := uint64(width - wp)
		est := nPrefix*bucketOverhead + estimatedKmers*suffixWidth/8
		if est <= memory {
			return wp, nil
		}
	}
	return 0, errors.Errorf("counting: no prefix width fits memory budget of %d bytes", memory)
}
