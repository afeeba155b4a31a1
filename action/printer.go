package action

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/marbl/meryl-sub000/kmer"
)

// Printer writes (k-mer, value[, label]) triples as tab-separated text
// lines (spec.md §4.6). A single Printer is shared by all 64 slice
// workers; WriteLine serializes their output under lock unless the
// caller configured per-slice writers via WithPerSliceWriter (the case
// SplitPath detects).
type Printer struct {
	schema     kmer.Schema
	withLabel  bool
	mu         sync.Mutex
	w          io.Writer
	perSliceFn func(slice int) (io.WriteCloser, error)
}

// NewPrinter returns a Printer that writes every slice's lines to w
// under a single shared lock, the "otherwise" branch of spec.md §4.6.
func NewPrinter(schema kmer.Schema, withLabel bool, w io.Writer) *Printer {
	return &Printer{schema: schema, withLabel: withLabel, w: w}
}

// SplitPath reports whether path contains two or more '#' characters,
// the trigger for per-slice parallel output files (spec.md §4.6).
func SplitPath(path string) bool {
	return strings.Count(path, "#") >= 2
}

// ExpandSlicePath replaces the run of '#' characters in path with the
// zero-padded slice index, width matching the run length.
func ExpandSlicePath(path string, slice int) string {
	start := strings.IndexByte(path, '#')
	if start < 0 {
		return path
	}
	end := start
	for end < len(path) && path[end] == '#' {
		end++
	}
	width := end - start
	return path[:start] + fmt.Sprintf("%0*d", width, slice) + path[end:]
}

// SliceWriter returns the per-slice line writer this Printer's caller should pass
// the triples for one slice to. When the Printer was built over a
// split path, each slice gets an independent, lock-free writer; when
// it was built over a single shared writer, every slice gets the same
// locked writer.
func (p *Printer) SliceWriter(slice int) (*sliceWriter, error) {
	if p.perSliceFn == nil {
		return &sliceWriter{p: p, w: nil}, nil
	}
	wc, err := p.perSliceFn(slice)
	if err != nil {
		return nil, err
	}
	return &sliceWriter{p: p, w: wc}, nil
}

// sliceWriter is the per-slice handle returned by SliceWriter: either
// an independent WriteCloser (split-path case) or a reference back to
// the shared Printer (single-writer case, serialized via p.mu).
type sliceWriter struct {
	p *Printer
	w io.WriteCloser
}

// WriteLine emits one "kmer\tvalue[\tlabel]\n" line.
func (s *sliceWriter) WriteLine(k kmer.Kmer, value uint32, label uint64) error {
	if s.w != nil {
		return writeLine(s.w, s.p, k, value, label)
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return writeLine(s.p.w, s.p, k, value, label)
}

// Close releases the per-slice writer, if one was opened.
func (s *sliceWriter) Close() error {
	if s.w != nil {
		return s.w.Close()
	}
	return nil
}

func writeLine(w io.Writer, p *Printer, k kmer.Kmer, value uint32, label uint64) error {
	var buf strings.Builder
	buf.WriteString(k.String(p.schema))
	buf.WriteByte('\t')
	buf.WriteString(strconv.FormatUint(uint64(value), 10))
	if p.withLabel {
		buf.WriteByte('\t')
		buf.WriteString(strconv.FormatUint(label, 10))
	}
	buf.WriteByte('\n')
	_, err := io.WriteString(w, buf.String())
	return err
}

// WithPerSliceWriter configures p to open an independent writer per
// slice via open, used when the output path was split (SplitPath).
func (p *Printer) WithPerSliceWriter(open func(slice int) (io.WriteCloser, error)) *Printer {
	p.perSliceFn = open
	return p
}

// Drain copies every triple in from to the given per-slice writer,
// closing it once from is exhausted. Intended to be run once per
// slice, in parallel, by the counting driver's worker pool (spec.md
// §5).
func Drain(from SliceInput, sw *sliceWriter) error {
	defer sw.Close()
	for {
		k, v, l, ok := from.Next()
		if !ok {
			return nil
		}
		if err := sw.WriteLine(k, v, l); err != nil {
			return err
		}
	}
}
