// Package coverage counts perfect read alignments over reference intervals.
package coverage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Oracle answers perfect-match coverage queries over half-open intervals.
// Implementations are read-only and safe for concurrent use.
type Oracle interface {
	Coverage(contig string, start, end int64) (int, error)
}

// Func adapts a function to the Oracle interface.
type Func func(contig string, start, end int64) (int, error)

// Coverage calls f.
func (f Func) Coverage(contig string, start, end int64) (int, error) {
	return f(contig, start, end)
}

// Interval is a half-open interval on a contig.
type Interval struct {
	Contig string
	Start  int64
	End    int64
}

// Table is an oracle over precomputed counts. Intervals not in the table
// have zero coverage.
type Table map[Interval]int

// Coverage returns the stored count for the interval.
func (t Table) Coverage(contig string, start, end int64) (int, error) {
	return t[Interval{Contig: contig, Start: start, End: end}], nil
}

// LoadTable reads a tab-separated table of contig, start, end, count.
// Lines starting with '#' are comments.
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coverage table: %w", err)
	}
	defer f.Close()

	t := make(Table)
	scanner := bufio.NewScanner(f)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("coverage table line %d: expected 4 fields, found %d", lineNumber, len(fields))
		}
		start, err1 := strconv.ParseInt(fields[1], 10, 64)
		end, err2 := strconv.ParseInt(fields[2], 10, 64)
		count, err3 := strconv.Atoi(fields[3])
		if err1 != nil || err2 != nil || err3 != nil || count < 0 {
			return nil, fmt.Errorf("coverage table line %d: invalid numeric field", lineNumber)
		}
		t[Interval{Contig: fields[0], Start: start, End: end}] = count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan coverage table: %w", err)
	}
	return t, nil
}
