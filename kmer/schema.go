// Package kmer implements the fixed-size canonical k-mer codec: packing a
// length-k DNA string into a 128-bit word, reverse complementing it,
// comparing k-mers, and converting to/from ACGT strings.
//
// Rather than a process-wide singleton for (k, label width), every
// k-mer-producing component threads an immutable Schema handle. Opening a
// second database under a different schema is a configuration error, not
// a silent reinterpretation (see Schema.Compatible).
package kmer

import "github.com/pkg/errors"

// Schema pins the parameters that give a k-mer bit pattern its meaning: the
// mer size and the label width. Two k-mer streams can only be compared,
// merged, or written to the same database when their schemas agree.
type Schema struct {
	K          int // mer size, 1..64.
	LabelWidth int // label bitfield width, 0..64.
}

// Validate checks that the schema's fields are within the bounds spec.md
// §3 requires.
func (s Schema) Validate() error {
	if s.K < 1 || s.K > 64 {
		return errors.Errorf("kmer: mer size %d out of range [1,64]", s.K)
	}
	if s.LabelWidth < 0 || s.LabelWidth > 64 {
		return errors.Errorf("kmer: label width %d out of range [0,64]", s.LabelWidth)
	}
	return nil
}

// Compatible reports whether s and other describe the same k-mer bit
// layout. An unset schema (K == 0) is compatible with anything, and
// Adopt should be used to pick it up from the first real schema seen.
func (s Schema) Compatible(other Schema) bool {
	if s.K == 0 {
		return true
	}
	return s.K == other.K && s.LabelWidth == other.LabelWidth
}

// Adopt returns other if s is unset, else s. Callers use this when loading
// additional databases: the first one seen fixes the run's schema, and
// every subsequent one is compared against it with Compatible before Adopt
// (or more precisely, a fatal error is raised on mismatch; Adopt only
// covers the unset case).
func (s Schema) Adopt(other Schema) Schema {
	if s.K == 0 {
		return other
	}
	return s
}

// Width returns the number of bits a packed k-mer occupies: 2*K.
func (s Schema) Width() int { return 2 * s.K }
