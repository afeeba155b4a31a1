package seqio

import (
	"compress/bzip2"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// openRaw opens path and wraps it in a decompressing reader according
// to its extension, giving every format reader a plain io.Reader of
// bases regardless of how the file is stored on disk (spec.md §6
// "optionally transparently decompressed").
func openRaw(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "seqio: open %s", path)
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "seqio: gzip %s", path)
		}
		return &readCloserPair{r: gr, closers: []io.Closer{gr, f}}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "seqio: zstd %s", path)
		}
		return &readCloserPair{r: zr.IOReadCloser(), closers: []io.Closer{zr.IOReadCloser(), f}}, nil
	case strings.HasSuffix(path, ".bz2"):
		// bzip2 has no third-party reader in the pack; the standard
		// library's decoder is read-only, which is all this needs.
		return &readCloserPair{r: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// readCloserPair adapts a bare io.Reader plus one or more underlying
// Closers (the decompressor, then the file) into a single
// io.ReadCloser.
type readCloserPair struct {
	r       io.Reader
	closers []io.Closer
}

func (p *readCloserPair) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *readCloserPair) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// stripSuffix removes a trailing compression extension so format
// detection (FASTA vs FASTQ) can look at the name underneath it.
func stripSuffix(path string) string {
	for _, suf := range []string{".gz", ".zst", ".bz2"} {
		if strings.HasSuffix(path, suf) {
			return path[:len(path)-len(suf)]
		}
	}
	return path
}

// Open returns a ReadCloser for the sequence file at path, chosen by
// extension: *.fa/*.fasta/*.fa.gz/... is read as FASTA, *.fq/*.fastq/...
// as FASTQ, each optionally gzip/zstd/bzip2-compressed.
func Open(path string) (ReadCloser, error) {
	raw, err := openRaw(path)
	if err != nil {
		return nil, err
	}
	name := stripSuffix(path)
	switch {
	case strings.HasSuffix(name, ".fq"), strings.HasSuffix(name, ".fastq"):
		return NewFASTQReader(raw), nil
	default:
		return NewFASTAReader(raw), nil
	}
}
