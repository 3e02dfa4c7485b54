package output

import (
	"fmt"
	"io"

	"github.com/inodb/raccoon/internal/integrate"
	"github.com/inodb/raccoon/internal/sanitize"
)

// Counter is a named count reported at the end of a run.
type Counter struct {
	Name  string
	Value int
}

// IntegrateCounters lists integration stats in report order.
func IntegrateCounters(s integrate.Stats) []Counter {
	return []Counter{
		{"records", s.Records},
		{"integrated_snv", s.IntegratedSNV},
		{"integrated_indel", s.IntegratedIndel},
		{"uncovered", s.Uncovered},
		{"filtered", s.Filtered},
		{"skipped", s.Skipped},
		{"overlapping", s.Overlapping},
		{"assembly_length", s.AssemblyLength},
	}
}

// SanitizeCounters lists sanitize stats in report order.
func SanitizeCounters(s sanitize.Stats) []Counter {
	return []Counter{
		{"processed", s.Processed},
		{"reverted", s.Reverted},
		{"kept", s.Kept},
	}
}

// WriteSummary writes a titled, aligned counter listing.
func WriteSummary(w io.Writer, title string, counters []Counter) error {
	if _, err := fmt.Fprintf(w, "\n%s:\n", title); err != nil {
		return err
	}
	for _, c := range counters {
		if _, err := fmt.Fprintf(w, "  %-20s%d\n", c.Name, c.Value); err != nil {
			return err
		}
	}
	return nil
}
