package kmer

// Emission is one complete k-mer observed by the iterator: the 0-based
// position of its first base in the source buffer, and both orientations.
type Emission struct {
	Pos              int
	Forward, Reverse Kmer
}

// Scan walks buf left to right and invokes emit at every position that
// completes a run of k valid (ACGT) bases. It never invokes emit for a
// k-mer that straddles an invalid base: a non-ACGT byte resets the run,
// and the next k-1 positions are skipped.
func Scan(s Schema, buf []byte, emit func(Emission)) {
	w := NewWindow(s)
	for i, ch := range buf {
		if w.AddRight(ch) {
			emit(Emission{Pos: i - s.K + 1, Forward: w.Forward(), Reverse: w.Reverse()})
		}
	}
}

// ScanAll is a convenience wrapper around Scan that collects all
// emissions into a slice. Intended for tests and small inputs; streaming
// callers should use Scan directly to avoid buffering.
func ScanAll(s Schema, buf []byte) []Emission {
	var out []Emission
	Scan(s, buf, func(e Emission) { out = append(out, e) })
	return out
}
