package kmer

import (
	"strings"

	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
)

// Kmer is a canonical 2-bit-per-base encoding of up to 64 bases, packed
// into a 128-bit unsigned integer: Hi holds the high 64 bits, Lo the low
// 64 bits. Base codes are A=0b00, C=0b01, T=0b10, G=0b11 (the "canonical
// layout" of spec.md §3). String renders this layout; no alternate
// ACGT-alphabetical rendering is provided.
//
// The first base of the sequence occupies the highest-order bits; the
// most recently added base (via AddRight) occupies the lowest-order bits.
// Ordering is the total order of this 128-bit unsigned value.
type Kmer struct {
	Hi, Lo uint64
}

var baseCode = [256]int8{}
var codeBase = [4]byte{'A', 'C', 'T', 'G'}

func init() {
	for i := range baseCode {
		baseCode[i] = -1
	}
	baseCode['A'], baseCode['a'] = 0, 0
	baseCode['C'], baseCode['c'] = 1, 1
	baseCode['T'], baseCode['t'] = 2, 2
	baseCode['G'], baseCode['g'] = 3, 3
}

// BaseCode returns the 2-bit code for an ACGT character (case-insensitive),
// or -1 if ch is not one of A, C, G, T.
func BaseCode(ch byte) int8 { return baseCode[ch] }

// complementCode returns the 2-bit code of the complementary base: A<->T,
// C<->G. Under the canonical layout this is simply XOR 0b10.
func complementCode(code uint64) uint64 { return code ^ 2 }

func shl128(hi, lo uint64, n uint) (uint64, uint64) {
	switch {
	case n == 0:
		return hi, lo
	case n >= 128:
		return 0, 0
	case n >= 64:
		return lo << (n - 64), 0
	default:
		return (hi << n) | (lo >> (64 - n)), lo << n
	}
}

func shr128(hi, lo uint64, n uint) (uint64, uint64) {
	switch {
	case n == 0:
		return hi, lo
	case n >= 128:
		return 0, 0
	case n >= 64:
		return 0, hi >> (n - 64)
	default:
		return hi >> n, (lo >> n) | (hi << (64 - n))
	}
}

// mask zeroes every bit at position >= bits (bits in [0,128]) of (hi,lo).
func mask(hi, lo uint64, bits int) (uint64, uint64) {
	switch {
	case bits >= 128:
		return hi, lo
	case bits == 0:
		return 0, 0
	case bits > 64:
		return hi & ((uint64(1) << uint(bits-64)) - 1), lo
	default:
		return 0, lo & ((uint64(1) << uint(bits)) - 1)
	}
}

// Compare returns -1, 0, or 1 as k < other, k == other, k > other under the
// 2k-bit unsigned total order.
func (k Kmer) Compare(other Kmer) int {
	if k.Hi != other.Hi {
		if k.Hi < other.Hi {
			return -1
		}
		return 1
	}
	if k.Lo != other.Lo {
		if k.Lo < other.Lo {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether k sorts before other.
func (k Kmer) Less(other Kmer) bool { return k.Compare(other) < 0 }

// AddRight shifts the k-mer left by one base, dropping the outgoing
// (highest) base and inserting code into the lowest two bits, then masks
// to the schema's width. code must be 0..3 (see BaseCode).
func (k Kmer) AddRight(s Schema, code uint64) Kmer {
	hi, lo := shl128(k.Hi, k.Lo, 2)
	lo |= code
	hi, lo = mask(hi, lo, s.Width())
	return Kmer{hi, lo}
}

// AddLeft shifts the k-mer right by one base, dropping the outgoing
// (lowest) base and inserting code at the top of the schema's window.
func (k Kmer) AddLeft(s Schema, code uint64) Kmer {
	hi, lo := shr128(k.Hi, k.Lo, 2)
	w := s.Width()
	topHi, topLo := shl128(0, code, uint(w-2))
	hi |= topHi
	lo |= topLo
	hi, lo = mask(hi, lo, w)
	return Kmer{hi, lo}
}

// ReverseComplement returns the reverse complement of k under schema s.
func (k Kmer) ReverseComplement(s Schema) Kmer {
	cur := k
	var rhi, rlo uint64
	for i := 0; i < s.K; i++ {
		code := cur.Lo & 3
		comp := complementCode(code)
		cur.Hi, cur.Lo = shr128(cur.Hi, cur.Lo, 2)
		rhi, rlo = shl128(rhi, rlo, 2)
		rlo |= comp
	}
	rhi, rlo = mask(rhi, rlo, s.Width())
	return Kmer{rhi, rlo}
}

// Canonical returns the lexicographically smaller of k and its reverse
// complement.
func (k Kmer) Canonical(s Schema) Kmer {
	rc := k.ReverseComplement(s)
	if rc.Less(k) {
		return rc
	}
	return k
}

// FromACGT packs an ACGT string (must have len(seq) == s.K, all valid
// bases) into a Kmer. Returns false if any character is not ACGT.
func FromACGT(s Schema, seq string) (Kmer, bool) {
	if len(seq) != s.K {
		log.Panicf("kmer: FromACGT length %d != schema K %d", len(seq), s.K)
	}
	var hi, lo uint64
	b := gunsafe.StringToBytes(seq)
	for _, ch := range b {
		c := baseCode[ch]
		if c < 0 {
			return Kmer{}, false
		}
		hi, lo = shl128(hi, lo, 2)
		lo |= uint64(c)
	}
	return Kmer{hi, lo}, true
}

// String renders k as an ACGT string under the canonical bit layout.
func (k Kmer) String(s Schema) string {
	var sb strings.Builder
	sb.Grow(s.K)
	cur := k
	// Extract codes from the low end (last base) first, then reverse.
	codes := make([]byte, s.K)
	for i := s.K - 1; i >= 0; i-- {
		codes[i] = codeBase[cur.Lo&3]
		cur.Hi, cur.Lo = shr128(cur.Hi, cur.Lo, 2)
	}
	sb.Write(codes)
	return sb.String()
}

// Prefix returns the top nbits bits of the 2k-bit k-mer value, used to
// pick the 64-way slice (nbits == 6) or a finer internal counting prefix.
func (k Kmer) Prefix(s Schema, nbits int) uint64 {
	if nbits == 0 {
		return 0
	}
	shiftBy := uint(s.Width() - nbits)
	hi, lo := shr128(k.Hi, k.Lo, shiftBy)
	_ = hi
	if nbits > 64 {
		log.Panicf("kmer: prefix width %d exceeds 64", nbits)
	}
	if nbits < 64 {
		return lo & ((uint64(1) << uint(nbits)) - 1)
	}
	return lo
}

// Suffix returns the low (2k - nbits) bits of the k-mer, the complement of
// Prefix.
func (k Kmer) Suffix(s Schema, nbits int) (uint64, uint64) {
	rem := s.Width() - nbits
	return mask(k.Hi, k.Lo, rem)
}

// FromPrefixSuffix reconstructs a full k-mer from a prefixBits-wide prefix
// value (right-aligned in prefix) and the remaining low bits (right-
// aligned in suffixLo/suffixHi, together schema.Width()-prefixBits wide).
// Used by the database reader to rebuild a k-mer from a block's stored
// prefix and a decoded in-block residual.
func FromPrefixSuffix(s Schema, prefix uint64, prefixBits int, suffixHi, suffixLo uint64) Kmer {
	suffixBits := s.Width() - prefixBits
	hi, lo := shl128(0, prefix, uint(suffixBits))
	hi |= suffixHi
	lo |= suffixLo
	hi, lo = mask(hi, lo, s.Width())
	return Kmer{hi, lo}
}
