package seqio

import (
	"bufio"
	"bytes"
	"io"
)

// FASTQReader streams the sequence line of each 4-line FASTQ record, a
// record boundary falling after every sequence line (the '+' and
// quality lines carry no bases and are skipped).
type FASTQReader struct {
	src      io.Closer
	br       *bufio.Reader
	pending  []byte
	needSkip int // remaining '+'/quality lines to discard before the next header.
	atEOF    bool
}

// NewFASTQReader wraps r (already decompressed, if needed) as a FASTQ
// base stream. If r implements io.Closer, Close releases it.
func NewFASTQReader(r io.Reader) *FASTQReader {
	c, _ := r.(io.Closer)
	return &FASTQReader{src: c, br: bufio.NewReaderSize(r, 64*1024)}
}

// Close releases the underlying file/decompressor, if any.
func (f *FASTQReader) Close() error {
	if f.src == nil {
		return nil
	}
	return f.src.Close()
}

func (f *FASTQReader) skipPending() {
	for f.needSkip > 0 {
		_, err := f.br.ReadBytes('\n')
		f.needSkip--
		if err == io.EOF {
			f.atEOF = true
			f.needSkip = 0
		}
	}
}

// LoadBases implements Reader.
func (f *FASTQReader) LoadBases(buf []byte) (int, bool, error) {
	n := 0
	for n < len(buf) {
		if len(f.pending) > 0 {
			c := copy(buf[n:], f.pending)
			f.pending = f.pending[c:]
			n += c
			if len(f.pending) == 0 {
				// The record's sequence line is fully delivered.
				return n, true, nil
			}
			continue
		}
		if f.atEOF {
			return n, true, nil
		}
		f.skipPending()
		if f.atEOF {
			return n, true, nil
		}

		header, err := f.br.ReadBytes('\n')
		if len(bytes.TrimSpace(header)) == 0 {
			f.atEOF = true
			return n, true, nil
		}
		if err == io.EOF {
			// Header with no trailing newline and nothing after it:
			// malformed truncated file, treat as end of input.
			f.atEOF = true
			return n, true, nil
		}

		seqLine, err := f.br.ReadBytes('\n')
		seqLine = bytes.TrimRight(seqLine, "\r\n")
		f.needSkip = 2
		if err == io.EOF {
			f.atEOF = true
		}
		if len(seqLine) > 0 {
			f.pending = seqLine
		}
	}
	return n, false, nil
}
