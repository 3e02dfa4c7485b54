// Package genome holds reference sequences and reads and writes them as FASTA.
package genome

import (
	"fmt"
	"strings"
)

// Sequence is a named DNA sequence over the alphabet ACGTN (either case).
// Sequences are immutable; edits produce new values.
type Sequence struct {
	id       string
	residues string
}

// AlphabetError reports a residue outside the sequence alphabet.
type AlphabetError struct {
	ID       string
	Residue  byte
	Position int
}

func (e *AlphabetError) Error() string {
	return fmt.Sprintf("sequence %s: residue %q at position %d is not in the alphabet ACGTN", e.ID, e.Residue, e.Position)
}

// NewSequence validates residues and builds a Sequence.
func NewSequence(id, residues string) (Sequence, error) {
	for i := 0; i < len(residues); i++ {
		if !isResidue(residues[i]) {
			return Sequence{}, &AlphabetError{ID: id, Residue: residues[i], Position: i}
		}
	}
	return Sequence{id: id, residues: residues}, nil
}

func isResidue(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		return true
	}
	return false
}

// ID returns the sequence identifier.
func (s Sequence) ID() string { return s.id }

// Residues returns the residue string.
func (s Sequence) Residues() string { return s.residues }

// Len returns the number of residues.
func (s Sequence) Len() int { return len(s.residues) }

// Slice returns residues in the half-open interval [start, end).
func (s Sequence) Slice(start, end int) string {
	return s.residues[start:end]
}

// WithResidues returns a sequence with the same identifier and new residues.
func (s Sequence) WithResidues(residues string) (Sequence, error) {
	return NewSequence(s.id, residues)
}

var complement = [256]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a', 'n': 'n',
}

// ReverseComplement returns the reverse complement, identified as "<id>_complement".
func (s Sequence) ReverseComplement() Sequence {
	n := len(s.residues)
	var b strings.Builder
	b.Grow(n)
	for i := n - 1; i >= 0; i-- {
		b.WriteByte(complement[s.residues[i]])
	}
	return Sequence{id: s.id + "_complement", residues: b.String()}
}
