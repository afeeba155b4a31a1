package counting

import (
	"github.com/marbl/meryl-sub000/countarray"
	"github.com/marbl/meryl-sub000/kmer"
)

// directArray implements spec.md §4.7's direct-array counting: a dense
// 4^k-entry array of low-8-bit counters, with carries promoted into a
// small number of 1-bit-per-key overflow planes rather than widening
// every counter up front. Chosen only for small k, where 4^k bytes is
// cheap; see ChooseMode.
type directArray struct {
	base   []uint8
	planes []bitset // planes[i] holds bit i+8 of every key's count.
}

// bitset is a flat, 1-bit-per-key array.
type bitset []uint64

func newBitset(n uint64) bitset { return make(bitset, (n+63)/64) }

func (b bitset) get(i uint64) bool { return b[i/64]&(1<<(i%64)) != 0 }
func (b bitset) set(i uint64)      { b[i/64] |= 1 << (i % 64) }
func (b bitset) clear(i uint64)    { b[i/64] &^= 1 << (i % 64) }

func newDirectArray(k int) *directArray {
	n := directArrayBytes(k)
	return &directArray{base: allocLarge(n)}
}

// increment adds one occurrence of key, ripple-carrying through the
// overflow planes exactly like a binary counter's carry chain.
func (d *directArray) increment(key uint64) {
	d.base[key]++
	if d.base[key] != 0 {
		return
	}
	n := uint64(len(d.base))
	for p := 0; ; p++ {
		if p == len(d.planes) {
			d.planes = append(d.planes, newBitset(n))
		}
		pl := d.planes[p]
		if !pl.get(key) {
			pl.set(key)
			return
		}
		pl.clear(key)
	}
}

// count reconstructs key's total occurrence count, saturating at
// countarray.ValueMax.
func (d *directArray) count(key uint64) uint32 {
	total := uint64(d.base[key])
	for p, pl := range d.planes {
		if pl.get(key) {
			total |= uint64(1) << uint(8+p)
		}
	}
	if total > uint64(countarray.ValueMax) {
		return countarray.ValueMax
	}
	return uint32(total)
}

// canonicalKey packs a canonical k-mer's 2k bits into a plain uint64
// index, valid because the direct-array path is only chosen when
// 2*k <= 64 fits comfortably in memory (k well under 32 in practice).
func canonicalKey(s kmer.Schema, c kmer.Kmer) uint64 {
	_, lo := c.Suffix(s, 0)
	return lo
}

// emit calls fn once for every key with a non-zero count, in ascending
// key order — ascending key order is ascending k-mer order for this
// packing, matching the emission order every other counting path
// produces (spec.md §5 "within a slice, k-mers are emitted in strictly
// ascending order").
func (d *directArray) emit(fn func(key uint64, value uint32)) {
	for key := range d.base {
		if v := d.count(uint64(key)); v != 0 {
			fn(uint64(key), v)
		}
	}
}
