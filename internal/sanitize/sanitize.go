// Package sanitize re-checks integrated edits against a fresh alignment of
// reads to the corrected assembly and reverts the ones that lost support.
package sanitize

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/raccoon/internal/coverage"
	"github.com/inodb/raccoon/internal/genome"
	"github.com/inodb/raccoon/internal/ledger"
)

var (
	// ErrUnknownContig is returned when a ledger entry names a contig missing
	// from the corrected collection.
	ErrUnknownContig = errors.New("contig not in corrected sequences")
	// ErrLedgerMismatch is returned when an entry does not address its
	// inserted allele in the corrected sequence.
	ErrLedgerMismatch = errors.New("ledger does not match corrected sequence")
)

// Decision records the outcome for one ledger entry.
type Decision struct {
	Contig   string
	Start    int64
	End      int64
	Inserted string
	Original string
	Recorded int // coverage when the edit was made
	New      int // coverage on the corrected sequence
	Reverted bool
}

// Stats counts sanitize outcomes.
type Stats struct {
	Processed int
	Reverted  int
	Kept      int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Processed += o.Processed
	s.Reverted += o.Reverted
	s.Kept += o.Kept
}

// Result is the outcome of a sanitize pass.
type Result struct {
	Final     *genome.Collection
	Kept      *ledger.Ledger // surviving edits in Final's coordinates
	Decisions []Decision
	Stats     Stats
}

// ContigResult is the outcome for one contig.
type ContigResult struct {
	Sequence  genome.Sequence
	Kept      []ledger.Entry
	Decisions []Decision
	Stats     Stats
}

// ShouldRevert reports whether an edit lost support. Equal coverage keeps
// the edit unless both counts are zero.
func ShouldRevert(recorded, current int) bool {
	return current < recorded || (recorded == 0 && current == 0)
}

// Sanitizer reverts unsupported edits.
type Sanitizer struct {
	coverage coverage.Oracle
	workers  int
	logger   *zap.Logger
}

// NewSanitizer creates a sanitizer that measures support with cov.
func NewSanitizer(cov coverage.Oracle) *Sanitizer {
	return &Sanitizer{coverage: cov, logger: zap.NewNop()}
}

// SetWorkers sets the number of contigs sanitized concurrently. Zero or
// less uses runtime.NumCPU().
func (s *Sanitizer) SetWorkers(n int) { s.workers = n }

// SetLogger sets the logger.
func (s *Sanitizer) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

// SanitizeContig replays entries, which must belong to seq, against seq.
func (s *Sanitizer) SanitizeContig(seq genome.Sequence, entries []ledger.Entry) (ContigResult, error) {
	res := ContigResult{Sequence: seq}
	seqLen := int64(seq.Len())

	var (
		out    strings.Builder
		cursor int64
		shift  int64
	)

	for _, e := range entries {
		if e.End > seqLen {
			return res, fmt.Errorf("%w: %s:%d-%d beyond contig length %d", ErrLedgerMismatch, e.Contig, e.Start, e.End, seqLen)
		}
		if got := seq.Slice(int(e.Start), int(e.End)); !strings.EqualFold(got, e.Inserted) {
			return res, fmt.Errorf("%w: %s:%d-%d holds %q, ledger says %q", ErrLedgerMismatch, e.Contig, e.Start, e.End, got, e.Inserted)
		}

		current, err := s.coverage.Coverage(e.Contig, e.Start, e.End)
		if err != nil {
			return res, fmt.Errorf("measure coverage at %s:%d: %w", e.Contig, e.Start, err)
		}

		d := Decision{
			Contig:   e.Contig,
			Start:    e.Start,
			End:      e.End,
			Inserted: e.Inserted,
			Original: e.Original,
			Recorded: e.Coverage,
			New:      current,
			Reverted: ShouldRevert(e.Coverage, current),
		}
		res.Decisions = append(res.Decisions, d)
		res.Stats.Processed++

		if d.Reverted {
			out.WriteString(seq.Slice(int(cursor), int(e.Start)))
			out.WriteString(e.Original)
			cursor = e.End
			shift += int64(len(e.Original) - len(e.Inserted))
			res.Stats.Reverted++
			s.logger.Debug("reverting edit",
				zap.String("contig", e.Contig),
				zap.Int64("start", e.Start),
				zap.Int("recorded", e.Coverage),
				zap.Int("new", current))
			continue
		}

		res.Kept = append(res.Kept, ledger.Entry{
			Contig:   e.Contig,
			Start:    e.Start + shift,
			End:      e.End + shift,
			Inserted: e.Inserted,
			Original: e.Original,
			Coverage: current,
		})
		res.Stats.Kept++
	}

	if res.Stats.Reverted > 0 {
		out.WriteString(seq.Slice(int(cursor), seq.Len()))
		final, err := seq.WithResidues(out.String())
		if err != nil {
			return res, fmt.Errorf("rebuild contig %s: %w", seq.ID(), err)
		}
		res.Sequence = final
	}

	return res, nil
}

// Sanitize checks every entry of l against corrected. Contigs without
// entries are copied unchanged.
func (s *Sanitizer) Sanitize(ctx context.Context, corrected *genome.Collection, l *ledger.Ledger) (*Result, error) {
	contigs := l.Contigs()
	for _, c := range contigs {
		if !corrected.Has(c) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownContig, c)
		}
	}

	if l.Len() == 0 {
		s.logger.Warn("empty ledger, corrected sequences copied unchanged")
	}

	workers := s.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]ContigResult, len(contigs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, contig := range contigs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seq, _ := corrected.Get(contig)
			r, err := s.SanitizeContig(seq, l.ForContig(contig))
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sanitize edits: %w", err)
	}

	res := &Result{Kept: ledger.New()}
	replacements := make(map[string]genome.Sequence)
	for i, r := range results {
		for _, e := range r.Kept {
			if err := res.Kept.Append(e); err != nil {
				return nil, fmt.Errorf("record kept edit: %w", err)
			}
		}
		res.Decisions = append(res.Decisions, r.Decisions...)
		res.Stats.Add(r.Stats)
		if r.Stats.Reverted > 0 {
			replacements[contigs[i]] = r.Sequence
		}
	}

	final, err := corrected.Replace(replacements)
	if err != nil {
		return nil, fmt.Errorf("assemble sanitized sequences: %w", err)
	}
	res.Final = final

	s.logger.Info("sanitize complete",
		zap.Int("processed", res.Stats.Processed),
		zap.Int("reverted", res.Stats.Reverted),
		zap.Int("kept", res.Stats.Kept))

	return res, nil
}
