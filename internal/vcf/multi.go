package vcf

import (
	"errors"
	"fmt"
)

// MultiParser reads several VCF files back to back as a single record
// stream. Files are opened one at a time, in the order given, so callers
// see the records of chunked call sets exactly as if they had been
// concatenated.
type MultiParser struct {
	paths []string
	next  int
	cur   *Parser
}

// NewMultiParser opens the first of paths and returns a parser over all of
// them. The remaining files are opened as the stream reaches them.
func NewMultiParser(paths ...string) (*MultiParser, error) {
	if len(paths) == 0 {
		return nil, errors.New("no vcf files given")
	}
	m := &MultiParser{paths: paths}
	if err := m.advance(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MultiParser) advance() error {
	if m.cur != nil {
		if err := m.cur.Close(); err != nil {
			return fmt.Errorf("close %s: %w", m.Path(), err)
		}
		m.cur = nil
	}
	if m.next >= len(m.paths) {
		return nil
	}
	path := m.paths[m.next]
	m.next++
	p, err := NewParser(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	m.cur = p
	return nil
}

// Next returns the next record across all files, or nil, nil once the last
// file is exhausted.
func (m *MultiParser) Next() (*Record, error) {
	for m.cur != nil {
		r, err := m.cur.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Path(), err)
		}
		if r != nil {
			return r, nil
		}
		if err := m.advance(); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// Path returns the file currently being read, or "" once all are done.
func (m *MultiParser) Path() string {
	if m.cur == nil {
		return ""
	}
	return m.paths[m.next-1]
}

// LineNumber returns the line number within the current file.
func (m *MultiParser) LineNumber() int {
	if m.cur == nil {
		return 0
	}
	return m.cur.LineNumber()
}

// Close closes the file currently open.
func (m *MultiParser) Close() error {
	if m.cur == nil {
		return nil
	}
	err := m.cur.Close()
	m.cur = nil
	return err
}
