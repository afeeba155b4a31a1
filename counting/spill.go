package counting

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/marbl/meryl-sub000/countarray"
)

// runSource is a peekable, ascending-by-Suffix stream of Entries: one
// CountArray.Flush() result held in memory, or a spilled run read back
// from disk. mergeRuns merges several of these the same way
// action.Compute merges several SliceInputs by repeated minimum-pick.
type runSource interface {
	peek() (countarray.Entry, bool, error)
	advance() error
}

// sliceRun is a runSource over an in-memory slice.
type sliceRun struct {
	entries []countarray.Entry
	i       int
}

func (s *sliceRun) peek() (countarray.Entry, bool, error) {
	if s.i >= len(s.entries) {
		return countarray.Entry{}, false, nil
	}
	return s.entries[s.i], true, nil
}
func (s *sliceRun) advance() error { s.i++; return nil }

// spillFile is a run previously written to disk by writeSpill, read
// back sequentially. Its backing file is removed once exhausted.
type spillFile struct {
	path    string
	f       *os.File
	br      *bufio.Reader
	cur     countarray.Entry
	haveCur bool
	done    bool
}

func openSpillFile(path string) (*spillFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "counting: open spill file %s", path)
	}
	return &spillFile{path: path, f: f, br: bufio.NewReaderSize(f, 64*1024)}, nil
}

const spillEntrySize = 20 // 8 (suffix) + 4 (value) + 8 (label)

func (s *spillFile) fill() error {
	if s.haveCur || s.done {
		return nil
	}
	var hdr [spillEntrySize]byte
	if _, err := io.ReadFull(s.br, hdr[:]); err != nil {
		if err == io.EOF {
			s.done = true
			s.f.Close() // nolint: errcheck
			os.Remove(s.path)
			return nil
		}
		return errors.Wrapf(err, "counting: read spill file %s", s.path)
	}
	s.cur = countarray.Entry{
		Suffix: binary.LittleEndian.Uint64(hdr[0:8]),
		Value:  binary.LittleEndian.Uint32(hdr[8:12]),
		Label:  binary.LittleEndian.Uint64(hdr[12:20]),
	}
	s.haveCur = true
	return nil
}

func (s *spillFile) peek() (countarray.Entry, bool, error) {
	if err := s.fill(); err != nil {
		return countarray.Entry{}, false, err
	}
	return s.cur, s.haveCur, nil
}

func (s *spillFile) advance() error {
	s.haveCur = false
	return nil
}

// writeSpill serializes an already-sorted, already-reduced run (one
// CountArray.Flush() result) to a new temp file in dir, implementing
// spec.md §4.7's "flush partial buckets to a spill file" failure mode
// for out-of-memory accumulation.
func writeSpill(dir string, entries []countarray.Entry) (path string, err error) {
	f, err := os.CreateTemp(dir, "meryl-spill-*")
	if err != nil {
		return "", errors.Wrap(err, "counting: create spill file")
	}
	defer f.Close() // nolint: errcheck
	w := bufio.NewWriterSize(f, 64*1024)
	var hdr [spillEntrySize]byte
	for _, e := range entries {
		binary.LittleEndian.PutUint64(hdr[0:8], e.Suffix)
		binary.LittleEndian.PutUint32(hdr[8:12], e.Value)
		binary.LittleEndian.PutUint64(hdr[12:20], e.Label)
		if _, err := w.Write(hdr[:]); err != nil {
			return "", errors.Wrapf(err, "counting: write spill file %s", f.Name())
		}
	}
	if err := w.Flush(); err != nil {
		return "", errors.Wrapf(err, "counting: flush spill file %s", f.Name())
	}
	return f.Name(), nil
}

// mergeRuns streams the ascending-Suffix merge of every source in
// runs, combining entries with equal Suffix across runs exactly as
// CountArray.Flush reduces equal suffixes within one run: ModeMultiSet
// never merges (every entry is distinct by construction), while
// ModeCount/ModeImportedSum sum values with saturation and OR labels.
func mergeRuns(runs []runSource, mode countarray.Mode, emit func(countarray.Entry) error) error {
	for {
		best := -1
		var bestEntry countarray.Entry
		for i, r := range runs {
			e, ok, err := r.peek()
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if best < 0 || e.Suffix < bestEntry.Suffix {
				best, bestEntry = i, e
			}
		}
		if best < 0 {
			return nil
		}
		if mode == countarray.ModeMultiSet {
			if err := emit(bestEntry); err != nil {
				return err
			}
			if err := runs[best].advance(); err != nil {
				return err
			}
			continue
		}
		merged := countarray.Entry{Suffix: bestEntry.Suffix}
		for i, r := range runs {
			for {
				e, ok, err := r.peek()
				if err != nil {
					return err
				}
				if !ok || e.Suffix != bestEntry.Suffix {
					break
				}
				merged.Value = countarray.SaturatingAdd(merged.Value, e.Value)
				merged.Label |= e.Label
				if err := runs[i].advance(); err != nil {
					return err
				}
			}
		}
		if err := emit(merged); err != nil {
			return err
		}
	}
}
