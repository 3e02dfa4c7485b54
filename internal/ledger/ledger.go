// Package ledger records the edits made to a reference during variant
// integration so that they can be replayed and reverted later.
package ledger

import (
	"errors"
	"fmt"
)

// Entry is one edit. Start and End address the inserted allele in the
// coordinates of the modified sequence.
type Entry struct {
	Contig   string
	Start    int64
	End      int64
	Inserted string // allele written into the sequence
	Original string // reference allele it replaced
	Coverage int    // perfect-match coverage measured when the edit was made
}

// ErrOrder is returned when an entry breaks the grouping or ordering rules.
var ErrOrder = errors.New("ledger order violation")

// Ledger is an ordered list of entries grouped by contig. Within a contig,
// entries are strictly increasing in Start and do not overlap.
type Ledger struct {
	entries []Entry
	spans   map[string][2]int // contig -> [first, last+1) entry indexes
	contigs []string
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{spans: make(map[string][2]int)}
}

// Append adds e after validating it against the previous entry.
func (l *Ledger) Append(e Entry) error {
	if e.Contig == "" {
		return fmt.Errorf("%w: empty contig", ErrOrder)
	}
	if e.Start < 0 || e.End-e.Start != int64(len(e.Inserted)) {
		return fmt.Errorf("%w: %s:%d-%d does not span inserted allele %q", ErrOrder, e.Contig, e.Start, e.End, e.Inserted)
	}
	if e.Coverage < 0 {
		return fmt.Errorf("%w: %s:%d negative coverage %d", ErrOrder, e.Contig, e.Start, e.Coverage)
	}

	span, seen := l.spans[e.Contig]
	switch {
	case !seen:
		l.contigs = append(l.contigs, e.Contig)
		span = [2]int{len(l.entries), len(l.entries)}
	case span[1] != len(l.entries):
		return fmt.Errorf("%w: contig %s is not contiguous", ErrOrder, e.Contig)
	default:
		prev := l.entries[len(l.entries)-1]
		if e.Start < prev.End || e.Start <= prev.Start {
			return fmt.Errorf("%w: %s:%d overlaps or precedes previous edit ending at %d", ErrOrder, e.Contig, e.Start, prev.End)
		}
	}

	l.entries = append(l.entries, e)
	span[1] = len(l.entries)
	l.spans[e.Contig] = span
	return nil
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns all entries in ledger order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Contigs returns the contigs with entries, in ledger order.
func (l *Ledger) Contigs() []string {
	out := make([]string, len(l.contigs))
	copy(out, l.contigs)
	return out
}

// ForContig returns the entries of one contig.
func (l *Ledger) ForContig(contig string) []Entry {
	span, ok := l.spans[contig]
	if !ok {
		return nil
	}
	out := make([]Entry, span[1]-span[0])
	copy(out, l.entries[span[0]:span[1]])
	return out
}
