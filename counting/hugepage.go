package counting

import (
	"github.com/grailbio/base/log"
	"golang.org/x/sys/unix"
)

// hugePageSize is the size of one transparent huge page on the
// platforms this driver targets.
const hugePageSize = 1 << 21

// allocLarge returns a zeroed n-byte slice for the direct-array
// counter's base array. Below hugePageSize it is a plain
// make([]uint8, n). From hugePageSize up it anonymously mmaps n bytes and
// madvises them for transparent huge pages, the same technique used to
// back a large flat hash table: the base array is one 4^k-byte slice
// touched essentially at random over the whole genome scan, so TLB
// pressure (not allocation cost) is what THP buys back. If the mapping
// fails it falls back to make([]uint8, n), since the counter is still
// correct, just slower, without it; a failed madvise is only logged.
func allocLarge(n uint64) []uint8 {
	if n < hugePageSize {
		return make([]uint8, n)
	}
	data, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		log.Printf("counting: huge-page mmap of %d bytes failed, falling back to heap: %v", n, err)
		return make([]uint8, n)
	}
	if err := unix.Madvise(data, unix.MADV_HUGEPAGE); err != nil {
		log.Printf("counting: madvise(MADV_HUGEPAGE) on %d bytes failed: %v", n, err)
	}
	return data
}
