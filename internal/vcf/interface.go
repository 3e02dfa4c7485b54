// Package vcf provides VCF file parsing functionality.
package vcf

// VariantParser is the interface for sources of variant records.
type VariantParser interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// SliceParser serves records from memory.
type SliceParser struct {
	records []*Record
	pos     int
}

// NewSliceParser creates a parser over records.
func NewSliceParser(records []*Record) *SliceParser {
	return &SliceParser{records: records}
}

// Next returns the next record, or nil, nil after the last one.
func (p *SliceParser) Next() (*Record, error) {
	if p.pos >= len(p.records) {
		return nil, nil
	}
	r := p.records[p.pos]
	p.pos++
	return r, nil
}

// Close is a no-op.
func (p *SliceParser) Close() error { return nil }

// LineNumber returns the number of records served.
func (p *SliceParser) LineNumber() int { return p.pos }
