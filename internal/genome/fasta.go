package genome

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// LineWidth is the residue wrap width used when writing FASTA.
const LineWidth = 80

// ParseError represents a structural FASTA error with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fasta parse error at line %d: %s", e.Line, e.Message)
}

// Load reads a FASTA file into a collection.
// Gzipped files are detected by their magic bytes; "-" reads stdin.
func Load(path string, logger *zap.Logger) (*Collection, error) {
	if path == "-" {
		return Read(os.Stdin, logger)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fasta file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read fasta header: %w", err)
	}

	var reader io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return Read(reader, logger)
}

// Read parses FASTA records. The identifier is the first whitespace-delimited
// token of the header line; residues may be wrapped arbitrarily.
//
// A record that violates the alphabet is skipped with a warning. Residues
// before the first header, empty identifiers and duplicate identifiers are
// returned as errors.
func Read(r io.Reader, logger *zap.Logger) (*Collection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	br := bufio.NewReader(r)

	c := NewCollection()
	var (
		currentID  string
		headerLine int
		inRecord   bool
		currentSeq strings.Builder
		lineNumber int
	)

	flush := func() error {
		if !inRecord {
			return nil
		}
		if currentSeq.Len() == 0 {
			logger.Warn("skipping empty sequence record", zap.String("id", currentID))
			return nil
		}
		s, err := NewSequence(currentID, currentSeq.String())
		if err != nil {
			logger.Warn("skipping malformed sequence record", zap.String("id", currentID), zap.Error(err))
			return nil
		}
		if err := c.Add(s); err != nil {
			return &ParseError{Line: headerLine, Message: err.Error()}
		}
		return nil
	}

	for {
		// Lines are read whole; single-line chromosomes have no length cap.
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read fasta: %w", err)
		}
		if err == io.EOF && line == "" {
			break
		}
		lineNumber++
		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return nil, err
			}
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, &ParseError{Line: lineNumber, Message: "empty sequence identifier"}
			}
			currentID = fields[0]
			headerLine = lineNumber
			inRecord = true
			currentSeq.Reset()
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !inRecord {
			return nil, &ParseError{Line: lineNumber, Message: "sequence data before first header"}
		}
		currentSeq.WriteString(line)
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return c, nil
}
