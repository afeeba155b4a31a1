// Package countarray implements the per-prefix accumulator that collects
// raw k-mer suffixes (plus optional per-occurrence value/label) during
// counting, then sorts and reduces them into a distinct, sorted list.
package countarray

import (
	"sort"

	"github.com/grailbio/base/log"
	"github.com/marbl/meryl-sub000/bitstream"
)

// ValueMax is the saturating sentinel for the value type (spec.md §3:
// "a bounded non-negative integer ... max = a sentinel 'saturated'
// value").
const ValueMax = ^uint32(0)

// SaturatingAdd returns a+b, clamped to ValueMax on overflow.
func SaturatingAdd(a, b uint32) uint32 {
	sum := uint64(a) + uint64(b)
	if sum > uint64(ValueMax) {
		return ValueMax
	}
	return uint32(sum)
}

// Mode selects how CountArray reduces runs of equal suffixes (spec.md
// §4.3 step 4).
type Mode int

const (
	// ModeCount reduces a run to its length (the default occurrence
	// counter): value becomes the run length, label the OR of all labels
	// in the run.
	ModeCount Mode = iota
	// ModeMultiSet performs no reduction: every input triple is preserved.
	ModeMultiSet
	// ModeImportedSum sums the input values of a run with saturating
	// addition, keeping the OR of labels.
	ModeImportedSum
)

// pageBits is the target page size: one 4KiB OS page, minus a small
// header, expressed in bits. Growing by fixed pages (rather than
// doubling) keeps resident memory close to the accounted-for estimate
// (see design notes on "Suffix storage segmentation").
const pageBits = (4096 - 64) * 8

// pagedBits is a bit stream split across fixed-size pages; no single
// logical entry straddles a page boundary, so pages can be individually
// freed once consumed.
type pagedBits struct {
	pages []*bitstream.BitStream
}

func (p *pagedBits) currentPage(reserve uint64) *bitstream.BitStream {
	if len(p.pages) == 0 || p.pages[len(p.pages)-1].Len()+reserve > pageBits {
		p.pages = append(p.pages, bitstream.New(pageBits))
	}
	return p.pages[len(p.pages)-1]
}

func (p *pagedBits) writeBinary(w uint, v uint64) { p.currentPage(uint64(w)).WriteBinary(w, v) }
func (p *pagedBits) writeEliasDelta(v uint64) {
	// An Elias-delta code for a 32-bit value is at most ~40 bits; reserve
	// generously so a code is never split across a page boundary.
	p.currentPage(80).WriteEliasDelta(v)
}

func (p *pagedBits) sizeBytes() uint64 {
	var n uint64
	for _, pg := range p.pages {
		n += uint64(len(pg.Words())) * 8
	}
	return n
}

func (p *pagedBits) reset() { p.pages = nil }

// pagedBitsReader reads pagedBits sequentially, advancing across page
// boundaries transparently.
type pagedBitsReader struct {
	pages []*bitstream.BitStream
	idx   int
}

func (p *pagedBits) reader() *pagedBitsReader {
	for _, pg := range p.pages {
		pg.Reset()
	}
	return &pagedBitsReader{pages: p.pages}
}

func (r *pagedBitsReader) advance() {
	for r.idx < len(r.pages) && r.pages[r.idx].Pos() >= r.pages[r.idx].Len() {
		r.idx++
	}
}

func (r *pagedBitsReader) readBinary(w uint) uint64 {
	if w == 0 {
		return 0
	}
	r.advance()
	return r.pages[r.idx].ReadBinary(w)
}

func (r *pagedBitsReader) readEliasDelta() uint64 {
	r.advance()
	return r.pages[r.idx].ReadEliasDelta()
}

// Entry is one reduced (or raw, in multi-set mode) k-mer record local to
// a CountArray bucket: Suffix is the k-mer with the bucket's prefix
// stripped off.
type Entry struct {
	Suffix uint64
	Value  uint32
	Label  uint64
}

// CountArray accumulates the suffixes of every incoming k-mer sharing one
// prefix. One instance exists per addressable prefix during counting; it
// is destroyed once its block has been written (spec.md §3 "Lifecycles").
type CountArray struct {
	Prefix      uint64
	SuffixWidth uint
	LabelWidth  uint
	Mode        Mode

	// HasValue/AdaptiveValue configure whether an occurrence value is
	// carried per entry, and if so whether it is Elias-delta coded
	// (adaptive, for unbounded import values) or fixed-width binary
	// (known bound, e.g. always 1 for a freshly-scanned sequence file).
	HasValue      bool
	AdaptiveValue bool
	ValueWidth    uint // used only when !AdaptiveValue

	suffixes pagedBits
	values   pagedBits
	labels   pagedBits
	n        int

	lastSize uint64
}

// New returns an empty CountArray bucket for the given prefix.
func New(prefix uint64, suffixWidth uint, labelWidth uint, mode Mode) *CountArray {
	return &CountArray{Prefix: prefix, SuffixWidth: suffixWidth, LabelWidth: labelWidth, Mode: mode}
}

// Add appends one occurrence of suffix (with an implicit value of 1 and
// label 0) to the bucket. Used by the direct scan of a sequence file.
func (c *CountArray) Add(suffix uint64) {
	c.suffixes.writeBinary(c.SuffixWidth, suffix)
	c.n++
}

// AddValued appends one occurrence of suffix with an explicit value and
// label, e.g. when importing an already-valued k-mer from another
// database (multi-set or imported-sum modes).
func (c *CountArray) AddValued(suffix uint64, value uint32, label uint64) {
	c.suffixes.writeBinary(c.SuffixWidth, suffix)
	c.HasValue = true
	if c.AdaptiveValue {
		c.values.writeEliasDelta(uint64(value) + 1) // +1: Elias-delta requires n>=1.
	} else {
		c.values.writeBinary(c.ValueWidth, uint64(value))
	}
	if c.LabelWidth > 0 {
		c.labels.writeBinary(c.LabelWidth, label)
	}
	c.n++
}

// Len returns the number of occurrences appended so far (before
// reduction).
func (c *CountArray) Len() int { return c.n }

// UsedSizeDelta returns the number of bytes allocated by this bucket
// since the last call (or since creation, on the first call). The
// counting driver sums these across all buckets to decide when to flush.
func (c *CountArray) UsedSizeDelta() uint64 {
	cur := c.suffixes.sizeBytes() + c.values.sizeBytes() + c.labels.sizeBytes()
	delta := cur - c.lastSize
	c.lastSize = cur
	return delta
}

// Flush unpacks the accumulated occurrences, sorts them, reduces
// adjacent-equal-suffix runs per c.Mode, and returns the distinct sorted
// entries. The bucket's storage is released: a fresh Flush call after
// this returns an empty result until more occurrences are added.
func (c *CountArray) Flush() []Entry {
	raw := make([]Entry, c.n)
	sr := c.suffixes.reader()
	var vr, lr *pagedBitsReader
	if c.HasValue {
		vr = c.values.reader()
	}
	if c.LabelWidth > 0 {
		lr = c.labels.reader()
	}
	for i := 0; i < c.n; i++ {
		e := Entry{Suffix: sr.readBinary(c.SuffixWidth), Value: 1}
		if vr != nil {
			if c.AdaptiveValue {
				e.Value = uint32(vr.readEliasDelta() - 1)
			} else {
				e.Value = uint32(vr.readBinary(c.ValueWidth))
			}
		}
		if lr != nil {
			e.Label = lr.readBinary(c.LabelWidth)
		}
		raw[i] = e
	}

	// Tie-break: suffix ascending, value ascending, label ascending.
	sort.Slice(raw, func(i, j int) bool {
		if raw[i].Suffix != raw[j].Suffix {
			return raw[i].Suffix < raw[j].Suffix
		}
		if raw[i].Value != raw[j].Value {
			return raw[i].Value < raw[j].Value
		}
		return raw[i].Label < raw[j].Label
	})

	var out []Entry
	switch c.Mode {
	case ModeMultiSet:
		out = raw
	case ModeCount:
		out = reduceRuns(raw, func(run []Entry) Entry {
			e := Entry{Suffix: run[0].Suffix, Value: uint32(len(run))}
			for _, r := range run {
				e.Label |= r.Label
			}
			return e
		})
	case ModeImportedSum:
		out = reduceRuns(raw, func(run []Entry) Entry {
			e := Entry{Suffix: run[0].Suffix}
			for _, r := range run {
				e.Value = SaturatingAdd(e.Value, r.Value)
				e.Label |= r.Label
			}
			return e
		})
	default:
		log.Panicf("countarray: unknown mode %v", c.Mode)
	}

	c.suffixes.reset()
	c.values.reset()
	c.labels.reset()
	c.n = 0
	c.lastSize = 0
	return out
}

func reduceRuns(raw []Entry, reduce func([]Entry) Entry) []Entry {
	out := make([]Entry, 0, len(raw))
	i := 0
	for i < len(raw) {
		j := i + 1
		for j < len(raw) && raw[j].Suffix == raw[i].Suffix {
			j++
		}
		out = append(out, reduce(raw[i:j]))
		i = j
	}
	return out
}
