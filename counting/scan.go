package counting

import (
	"strings"

	"github.com/marbl/meryl-sub000/kmer"
	"github.com/marbl/meryl-sub000/seqio"
)

// scanBufSize is the chunk size used to pull bases from a seqio.Reader.
const scanBufSize = 1 << 16

// scanReader walks every valid k-mer of r under schema s, maintaining
// one kmer.Window across LoadBases calls and resetting it at every
// record boundary the reader reports, then invokes onKmer with the
// canonical orientation of each (matching spec.md §4.7's "stream
// bases, emit canonical ... pairs"). If countSuffix is non-empty, only
// k-mers whose forward orientation ends in that exact base sequence
// are emitted (spec.md §4.7 "count-suffix").
func scanReader(s kmer.Schema, r seqio.Reader, countSuffix string, onKmer func(kmer.Kmer) error) error {
	buf := make([]byte, scanBufSize)
	w := kmer.NewWindow(s)
	for {
		n, eor, err := r.LoadBases(buf)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if w.AddRight(buf[i]) && matchesCountSuffix(w, s, countSuffix) {
				if err := onKmer(w.Canonical()); err != nil {
					return err
				}
			}
		}
		if eor {
			w.Reset()
		}
		if n == 0 {
			return nil
		}
	}
}

func matchesCountSuffix(w *kmer.Window, s kmer.Schema, countSuffix string) bool {
	if countSuffix == "" {
		return true
	}
	fwd := w.Forward().String(s)
	return strings.HasSuffix(fwd, countSuffix)
}
