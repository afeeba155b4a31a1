package seqio

import (
	"bufio"
	"bytes"
	"io"
)

// FASTAReader streams the sequence lines of a FASTA file, one chunk of
// bases at a time, treating a '>' header line as a record boundary.
type FASTAReader struct {
	src     io.Closer
	br      *bufio.Reader
	pending []byte
	atEOF   bool
}

// NewFASTAReader wraps r (already decompressed, if needed) as a FASTA
// base stream. If r implements io.Closer, Close releases it.
func NewFASTAReader(r io.Reader) *FASTAReader {
	c, _ := r.(io.Closer)
	return &FASTAReader{src: c, br: bufio.NewReaderSize(r, 64*1024)}
}

// Close releases the underlying file/decompressor, if any.
func (f *FASTAReader) Close() error {
	if f.src == nil {
		return nil
	}
	return f.src.Close()
}

// LoadBases implements Reader.
func (f *FASTAReader) LoadBases(buf []byte) (int, bool, error) {
	n := 0
	for n < len(buf) {
		if len(f.pending) > 0 {
			c := copy(buf[n:], f.pending)
			f.pending = f.pending[c:]
			n += c
			continue
		}
		if f.atEOF {
			return n, true, nil
		}
		line, err := f.br.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")
		if err == io.EOF {
			f.atEOF = true
		} else if err != nil {
			return n, true, err
		}
		if len(line) > 0 && line[0] == '>' {
			if n > 0 {
				// A header ends the record already in progress; the
				// next call starts the new one from the line after it.
				return n, true, nil
			}
			continue
		}
		if len(line) > 0 {
			f.pending = line
		} else if f.atEOF {
			return n, true, nil
		}
	}
	return n, false, nil
}
