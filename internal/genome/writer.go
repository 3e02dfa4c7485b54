package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write writes every sequence of c as FASTA, wrapping residues at LineWidth.
func Write(w io.Writer, c *Collection) error {
	bw := bufio.NewWriter(w)
	for _, s := range c.Sequences() {
		if err := writeRecord(bw, s); err != nil {
			return fmt.Errorf("write sequence %s: %w", s.ID(), err)
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, s Sequence) error {
	if _, err := w.WriteString(">" + s.ID() + "\n"); err != nil {
		return err
	}
	res := s.Residues()
	for start := 0; start < len(res); start += LineWidth {
		end := min(start+LineWidth, len(res))
		if _, err := w.WriteString(res[start:end]); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes c to path as FASTA.
func WriteFile(path string, c *Collection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fasta file: %w", err)
	}
	if err := Write(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
