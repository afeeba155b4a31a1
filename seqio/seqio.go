// Package seqio implements the sequence-input contract the counting
// driver consumes (spec.md §6): records are read one chunk of bases at
// a time rather than slurped whole, so a multi-gigabase input never
// requires a matching in-memory buffer.
//
// This is enrichment beyond spec.md's explicit scope (§6 names the
// interface but leaves format parsing and decompression to the
// driver's discretion); FASTA/FASTQ parsing and transparent
// decompression are added here so cmd/meryl has something real to
// read, grounded on the `klauspost/compress` usage in the teacher's
// own `encoding/pam` block compression.
package seqio

import "io"

// Reader is the minimal interface the counting driver scans: repeated
// LoadBases calls fill buf with up to len(buf) bases from the current
// record. endOfRecord is true when the call reached the end of a
// record (including, trivially, when n==0 and the whole input is
// exhausted) — the caller must reset its k-mer window on that
// boundary, since a k-mer may never straddle two records.
type Reader interface {
	LoadBases(buf []byte) (n int, endOfRecord bool, err error)
}

// ReadCloser is a Reader over one backing file; Close releases the
// underlying file descriptor (and any decompressor wrapping it).
type ReadCloser interface {
	Reader
	io.Closer
}

// multiReader concatenates several Readers end to end, inserting a
// record boundary between them even if the component reader forgot
// to report one at its own EOF. Used to fold several input files into
// one scan, matching spec.md §4.7 "Inputs: one or more sequence files".
type multiReader struct {
	readers []Reader
	idx     int
}

// Concat folds several Readers into one, scanned in order.
func Concat(readers ...Reader) Reader {
	if len(readers) == 1 {
		return readers[0]
	}
	return &multiReader{readers: readers}
}

func (m *multiReader) LoadBases(buf []byte) (int, bool, error) {
	for m.idx < len(m.readers) {
		n, eor, err := m.readers[m.idx].LoadBases(buf)
		if err != nil && err != io.EOF {
			return n, true, err
		}
		if n > 0 {
			return n, eor, nil
		}
		// This reader is exhausted; move to the next and force a
		// boundary so the window resets between files.
		m.idx++
		if m.idx < len(m.readers) {
			return 0, true, nil
		}
	}
	return 0, true, nil
}
