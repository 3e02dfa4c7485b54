package coverage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"go.uber.org/zap"
)

// DefaultMaxMismatches is the largest edit distance (NM) of a perfect alignment.
const DefaultMaxMismatches = 1

var nmTag = sam.NewTag("NM")

// LoadOptions configures LoadIndex.
type LoadOptions struct {
	Mode          Mode
	MaxMismatches int
	Logger        *zap.Logger
}

// DefaultLoadOptions returns span mode with at most one mismatch.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Mode: ModeSpan, MaxMismatches: DefaultMaxMismatches}
}

type recordReader interface {
	Read() (*sam.Record, error)
}

// LoadIndex reads every alignment of a BAM or SAM file and indexes the
// perfect ones. BAM input is recognised by its gzip magic bytes.
func LoadIndex(path string, opts LoadOptions) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alignment file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read alignment header: %w", err)
	}

	var rr recordReader
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		r, err := bam.NewReader(br, 1)
		if err != nil {
			return nil, fmt.Errorf("open bam reader: %w", err)
		}
		defer r.Close()
		rr = r
	} else {
		r, err := sam.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open sam reader: %w", err)
		}
		rr = r
	}

	idx, total, perfect, err := buildIndex(rr, opts)
	if err != nil {
		return nil, fmt.Errorf("read alignments from %s: %w", path, err)
	}

	logger.Info("indexed perfect alignments",
		zap.String("path", path),
		zap.String("mode", opts.Mode.String()),
		zap.Int("alignments", total),
		zap.Int("perfect", perfect))

	return idx, nil
}

func buildIndex(rr recordReader, opts LoadOptions) (*Index, int, int, error) {
	b := NewBuilder(opts.Mode)
	total, perfect := 0, 0
	for {
		rec, err := rr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
		total++
		if !IsPerfect(rec, opts.MaxMismatches) {
			continue
		}
		perfect++
		b.Add(rec.Ref.Name(), int64(rec.Pos), int64(rec.End()))
	}
	return b.Build(), total, perfect, nil
}

// IsPerfect reports whether rec is a mapped, full-length match: a single
// M operation as long as the read, with an NM tag of at most maxMismatches.
// Alignments without an NM tag are not perfect.
func IsPerfect(rec *sam.Record, maxMismatches int) bool {
	if rec.Ref == nil || rec.Flags&sam.Unmapped != 0 {
		return false
	}
	if len(rec.Cigar) != 1 {
		return false
	}
	op := rec.Cigar[0]
	if op.Type() != sam.CigarMatch || op.Len() != rec.Seq.Length || rec.Seq.Length == 0 {
		return false
	}

	aux := rec.AuxFields.Get(nmTag)
	if aux == nil {
		return false
	}
	nm, ok := auxInt(aux.Value())
	return ok && nm <= maxMismatches
}

func auxInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int8:
		return int(n), true
	case uint8:
		return int(n), true
	case int16:
		return int(n), true
	case uint16:
		return int(n), true
	case int32:
		return int(n), true
	case uint32:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}
