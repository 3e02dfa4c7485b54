package ledger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const fieldCount = 6

// ParseError represents a malformed ledger line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ledger parse error at line %d: %s", e.Line, e.Message)
}

// Write writes l as tab-separated lines:
// contig, start, end, inserted allele, original allele, coverage.
func Write(w io.Writer, l *Ledger) error {
	bw := bufio.NewWriter(w)
	for _, e := range l.entries {
		if _, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%s\t%s\t%d\n",
			e.Contig, e.Start, e.End, e.Inserted, e.Original, e.Coverage); err != nil {
			return fmt.Errorf("write ledger entry: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile writes l to path.
func WriteFile(path string, l *Ledger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}
	if err := Write(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses a ledger. Blank lines are ignored; any other line must carry
// exactly six fields and respect the ledger ordering rules.
func Read(r io.Reader) (*Ledger, error) {
	scanner := bufio.NewScanner(r)
	l := New()
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		e, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNumber, Message: err.Error()}
		}
		if err := l.Append(e); err != nil {
			return nil, &ParseError{Line: lineNumber, Message: err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}

	return l, nil
}

// Load reads a ledger file.
func Load(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func parseLine(line string) (Entry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != fieldCount {
		return Entry{}, fmt.Errorf("expected %d fields, found %d", fieldCount, len(fields))
	}

	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid start: %s", fields[1])
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid end: %s", fields[2])
	}
	coverage, err := strconv.Atoi(fields[5])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid coverage: %s", fields[5])
	}

	return Entry{
		Contig:   fields[0],
		Start:    start,
		End:      end,
		Inserted: fields[3],
		Original: fields[4],
		Coverage: coverage,
	}, nil
}
