// Package output provides report writers for integration and sanitize runs.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/raccoon/internal/sanitize"
)

// DecisionWriter writes sanitize decisions in tab-delimited format.
type DecisionWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewDecisionWriter creates a new tab-delimited decision writer.
func NewDecisionWriter(w io.Writer) *DecisionWriter {
	return &DecisionWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#contig",
			"start",
			"end",
			"inserted",
			"original",
			"recorded_coverage",
			"new_coverage",
			"action",
		},
	}
}

// WriteHeader writes the header line.
func (dw *DecisionWriter) WriteHeader() error {
	_, err := dw.w.WriteString(strings.Join(dw.columns, "\t") + "\n")
	return err
}

// Write writes a single decision.
func (dw *DecisionWriter) Write(d sanitize.Decision) error {
	action := "kept"
	if d.Reverted {
		action = "reverted"
	}
	_, err := fmt.Fprintf(dw.w, "%s\t%d\t%d\t%s\t%s\t%d\t%d\t%s\n",
		d.Contig, d.Start, d.End, d.Inserted, d.Original, d.Recorded, d.New, action)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (dw *DecisionWriter) Flush() error {
	return dw.w.Flush()
}

// WriteDecisions writes a header and every decision, then flushes.
func WriteDecisions(w io.Writer, decisions []sanitize.Decision) error {
	dw := NewDecisionWriter(w)
	if err := dw.WriteHeader(); err != nil {
		return fmt.Errorf("write decision header: %w", err)
	}
	for _, d := range decisions {
		if err := dw.Write(d); err != nil {
			return fmt.Errorf("write decision: %w", err)
		}
	}
	return dw.Flush()
}
