// Package bitstream implements a variable-width, bit-packed append-only
// buffer with random-access reads. It is the backbone of both the
// in-memory count accumulators (countarray) and the on-disk block
// encoding (dbformat).
package bitstream

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/simd"
)

// wordBits is the width of one storage word. Bits are packed least
// significant first: a write that straddles a word boundary puts the
// value's low bits at the top of word i and its high bits at the bottom of
// word i+1.
const wordBits = simd.BitsPerWord

// BitStream is a growable sequence of bits. Bits are appended at the write
// cursor (len) and consumed at an independent read cursor (pos). Both
// cursors are absolute bit offsets from the start of the buffer.
//
// BitStream is not safe for concurrent use; callers that shard work across
// goroutines own one BitStream per shard.
type BitStream struct {
	words []uint64 // word-packed storage, low bit of words[0] is bit 0.
	len   uint64   // number of bits appended so far.
	pos   uint64   // read cursor, in [0, len].
}

// New returns an empty BitStream with capacity for at least nBits bits
// preallocated.
func New(nBits uint64) *BitStream {
	return &BitStream{words: make([]uint64, 0, (nBits+wordBits-1)/wordBits)}
}

// Len returns the number of bits appended so far.
func (b *BitStream) Len() uint64 { return b.len }

// Pos returns the current read cursor.
func (b *BitStream) Pos() uint64 { return b.pos }

func (b *BitStream) ensureWord(i uint64) {
	for uint64(len(b.words)) <= i {
		b.words = append(b.words, 0)
	}
}

// WriteBinary appends the low w bits of v, w in [0,64]. It is a programmer
// error to call this with v having any bit set at position >= w.
func (b *BitStream) WriteBinary(w uint, v uint64) {
	if w == 0 {
		return
	}
	if w > 64 {
		log.Panicf("bitstream: width %d exceeds 64", w)
	}
	if w < 64 && v>>uint(w) != 0 {
		log.Panicf("bitstream: value %d does not fit in %d bits", v, w)
	}
	wi := b.len / wordBits
	bo := uint(b.len % wordBits)
	b.ensureWord(wi)
	b.words[wi] |= (v << bo)
	if bo+w > wordBits {
		spill := bo + w - wordBits
		b.ensureWord(wi + 1)
		b.words[wi+1] |= v >> (wordBits - bo)
		_ = spill
	}
	b.len += uint64(w)
}

// WriteUnary appends n zero bits followed by a terminating one bit.
func (b *BitStream) WriteUnary(n uint64) {
	for n >= 64 {
		b.WriteBinary(64, 0)
		n -= 64
	}
	// n zero bits then a 1, packed as one value of width n+1.
	b.WriteBinary(uint(n)+1, uint64(1)<<n)
}

// WriteEliasDelta appends the Elias-delta code for n, n >= 1.
func (b *BitStream) WriteEliasDelta(n uint64) {
	if n == 0 {
		log.Panicf("bitstream: elias-delta requires n >= 1, got 0")
	}
	// length = number of bits in n (1-based), so 1 has length 1.
	length := uint(bitLen(n))
	// Elias-gamma-code the length of n's binary representation, itself
	// offset by one so that "length of length" is >=1.
	lenOfLen := uint(bitLen(uint64(length)))
	b.WriteUnary(uint64(lenOfLen - 1))
	b.WriteBinary(lenOfLen-1, uint64(length)&((1<<(lenOfLen-1))-1))
	// The leading 1 bit of n is implicit; write the remaining length-1 bits.
	b.WriteBinary(length-1, n&((1<<(length-1))-1))
}

func bitLen(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	if n == 0 {
		n = 1
	}
	return n
}

// ReadBinary reads w bits from the read cursor and advances it.
func (b *BitStream) ReadBinary(w uint) uint64 {
	if w == 0 {
		return 0
	}
	if w > 64 {
		log.Panicf("bitstream: width %d exceeds 64", w)
	}
	if b.pos+uint64(w) > b.len {
		log.Panicf("bitstream: read past end (pos=%d, w=%d, len=%d)", b.pos, w, b.len)
	}
	wi := b.pos / wordBits
	bo := uint(b.pos % wordBits)
	var v uint64
	v = b.words[wi] >> bo
	if bo+w > wordBits {
		v |= b.words[wi+1] << (wordBits - bo)
	}
	if w < 64 {
		v &= (uint64(1) << w) - 1
	}
	b.pos += uint64(w)
	return v
}

// ReadUnary reads a run of zero bits terminated by a one bit and returns
// the run length.
func (b *BitStream) ReadUnary() uint64 {
	var n uint64
	for {
		if b.pos >= b.len {
			log.Panicf("bitstream: read past end in ReadUnary")
		}
		if b.ReadBinary(1) == 1 {
			return n
		}
		n++
	}
}

// ReadEliasDelta reads one Elias-delta code and returns the decoded value.
func (b *BitStream) ReadEliasDelta() uint64 {
	lenOfLenMinus1 := b.ReadUnary()
	lenOfLen := uint(lenOfLenMinus1) + 1
	var length uint64
	if lenOfLen > 1 {
		length = b.ReadBinary(lenOfLen-1) | (uint64(1) << (lenOfLen - 1))
	} else {
		length = 1
	}
	if length == 1 {
		return 1
	}
	rest := b.ReadBinary(uint(length) - 1)
	return rest | (uint64(1) << (length - 1))
}

// Seek sets the read cursor to an absolute bit offset. It is an error to
// seek past the appended length.
func (b *BitStream) Seek(pos uint64) {
	if pos > b.len {
		log.Panicf("bitstream: seek past end (pos=%d, len=%d)", pos, b.len)
	}
	b.pos = pos
}

// Reset rewinds the read cursor to zero without discarding written bits.
func (b *BitStream) Reset() { b.pos = 0 }

// Words exposes the underlying word storage for serialization; callers
// must not mutate the returned slice.
func (b *BitStream) Words() []uint64 { return b.words }

// Serialize writes the full buffer (including its bit length) to sink in a
// simple self-describing form: an 8-byte bit-length followed by
// little-endian 8-byte words.
func (b *BitStream) Serialize(sink *[]byte) {
	buf := make([]byte, 8+8*len(b.words))
	putUint64(buf[0:8], b.len)
	for i, w := range b.words {
		putUint64(buf[8+8*i:16+8*i], w)
	}
	*sink = append(*sink, buf...)
}

// Deserialize reads a buffer previously written by Serialize and returns
// the number of bytes consumed from src.
func Deserialize(src []byte) (*BitStream, int) {
	if len(src) < 8 {
		log.Panicf("bitstream: truncated header")
	}
	n := getUint64(src[0:8])
	nWords := int((n + wordBits - 1) / wordBits)
	need := 8 + 8*nWords
	if len(src) < need {
		log.Panicf("bitstream: truncated body")
	}
	words := make([]uint64, nWords)
	for i := range words {
		words[i] = getUint64(src[8+8*i : 16+8*i])
	}
	return &BitStream{words: words, len: n}, need
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
