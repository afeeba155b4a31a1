package kmer

// Window tracks a sliding k-mer as bases are shifted in one at a time. It
// mirrors the "kmerizer" pattern from the fusion package, generalized to
// arbitrary k (up to 64) and to both AddRight and AddLeft.
//
// A non-ACGT base resets the count of consecutive valid bases to zero, so
// the next k-1 shifts cannot yet yield a valid (complete) k-mer: Valid()
// only returns true once k consecutive ACGT bases have been shifted in
// since the last reset.
type Window struct {
	schema  Schema
	forward Kmer
	reverse Kmer
	valid   int // consecutive valid bases shifted in so far, capped at schema.K.
}

// NewWindow returns an empty Window for the given schema.
func NewWindow(s Schema) *Window { return &Window{schema: s} }

// Valid reports whether the window currently holds a complete, valid
// k-mer (k consecutive ACGT bases have been added since the last reset).
func (w *Window) Valid() bool { return w.valid >= w.schema.K }

// Forward returns the current forward k-mer. Only meaningful if Valid().
func (w *Window) Forward() Kmer { return w.forward }

// Reverse returns the reverse complement of the current k-mer, maintained
// incrementally. Only meaningful if Valid().
func (w *Window) Reverse() Kmer { return w.reverse }

// Canonical returns the lexicographically smaller of Forward/Reverse.
func (w *Window) Canonical() Kmer {
	if w.reverse.Less(w.forward) {
		return w.reverse
	}
	return w.forward
}

// AddRight shifts in the next base (as read left-to-right in the source
// sequence). Returns whether the window is valid after the shift.
func (w *Window) AddRight(ch byte) bool {
	code := BaseCode(ch)
	if code < 0 {
		w.valid = 0
		w.forward = Kmer{}
		w.reverse = Kmer{}
		return false
	}
	w.forward = w.forward.AddRight(w.schema, uint64(code))
	// The reverse complement of a right-extended window is obtained by
	// prepending the complement of the new base on the left of the RC.
	w.reverse = w.reverse.AddLeft(w.schema, complementCode(uint64(code)))
	if w.valid < w.schema.K {
		w.valid++
	}
	return w.Valid()
}

// AddLeft shifts in the previous base (extending the window leftward,
// e.g. when scanning a sequence right-to-left). Returns whether the
// window is valid after the shift.
func (w *Window) AddLeft(ch byte) bool {
	code := BaseCode(ch)
	if code < 0 {
		w.valid = 0
		w.forward = Kmer{}
		w.reverse = Kmer{}
		return false
	}
	w.forward = w.forward.AddLeft(w.schema, uint64(code))
	w.reverse = w.reverse.AddRight(w.schema, complementCode(uint64(code)))
	if w.valid < w.schema.K {
		w.valid++
	}
	return w.Valid()
}

// Reset clears the window, as if no bases had ever been added.
func (w *Window) Reset() {
	w.valid = 0
	w.forward = Kmer{}
	w.reverse = Kmer{}
}
