// Package integrate folds filtered variant calls into a reference assembly
// and records every applied edit in a ledger.
package integrate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/raccoon/internal/coverage"
	"github.com/inodb/raccoon/internal/filter"
	"github.com/inodb/raccoon/internal/genome"
	"github.com/inodb/raccoon/internal/ledger"
	"github.com/inodb/raccoon/internal/vcf"
)

var (
	// ErrUnknownContig is returned when a record names a contig missing from the reference.
	ErrUnknownContig = errors.New("contig not in reference")
	// ErrDepthMismatch is returned when a multi-allelic record's depth list
	// does not hold one value per allele.
	ErrDepthMismatch = errors.New("allelic depth count does not match alleles")
	// ErrReferenceMismatch is returned when a record's reference allele does
	// not match the reference sequence.
	ErrReferenceMismatch = errors.New("reference allele mismatch")
	// ErrUnsorted is returned when records are not grouped by contig in ascending position.
	ErrUnsorted = errors.New("variants not sorted")
)

// Stats counts integration outcomes.
type Stats struct {
	Records         int
	IntegratedSNV   int
	IntegratedIndel int
	Uncovered       int
	Filtered        int
	Skipped         int
	Overlapping     int
	// AssemblyLength is the corrected length of the last contig in the stream.
	AssemblyLength int
}

// Add accumulates o into s. AssemblyLength takes o's value.
func (s *Stats) Add(o Stats) {
	s.Records += o.Records
	s.IntegratedSNV += o.IntegratedSNV
	s.IntegratedIndel += o.IntegratedIndel
	s.Uncovered += o.Uncovered
	s.Filtered += o.Filtered
	s.Skipped += o.Skipped
	s.Overlapping += o.Overlapping
	s.AssemblyLength = o.AssemblyLength
}

// Result is the outcome of a full integration pass.
type Result struct {
	Corrected *genome.Collection
	Ledger    *ledger.Ledger
	Stats     Stats
}

// Integrator applies accepted variants to a reference.
type Integrator struct {
	coverage   coverage.Oracle
	thresholds filter.Thresholds
	workers    int
	logger     *zap.Logger
}

// NewIntegrator creates an integrator that measures read support with cov.
func NewIntegrator(cov coverage.Oracle) *Integrator {
	return &Integrator{
		coverage:   cov,
		thresholds: filter.DefaultThresholds(),
		logger:     zap.NewNop(),
	}
}

// SetThresholds replaces the variant acceptance thresholds.
func (in *Integrator) SetThresholds(t filter.Thresholds) { in.thresholds = t }

// SetWorkers sets the number of contigs corrected concurrently. Zero or
// less uses runtime.NumCPU().
func (in *Integrator) SetWorkers(n int) { in.workers = n }

// SetLogger sets the logger.
func (in *Integrator) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	in.logger = l
}

// Integrate reads every record from p and corrects ref. Records must be
// grouped by contig with ascending positions. Contigs without accepted
// variants are copied unchanged; the corrected collection keeps ref's order.
func (in *Integrator) Integrate(ctx context.Context, ref *genome.Collection, p vcf.VariantParser) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan WorkItem, 4)
	var readErr error
	go func() {
		defer close(items)
		readErr = batchByContig(ctx, ref, p, items)
	}()

	results := in.ParallelIntegrate(ref, items, in.workers)

	res := &Result{Ledger: ledger.New()}
	replacements := make(map[string]genome.Sequence)

	merge := func(wr WorkResult) error {
		if wr.Err != nil {
			return wr.Err
		}
		cr := wr.Result
		for _, e := range cr.Entries {
			if err := res.Ledger.Append(e); err != nil {
				return fmt.Errorf("record edit: %w", err)
			}
		}
		res.Stats.Add(cr.Stats)
		if cr.Modified() {
			replacements[cr.Contig] = cr.Sequence
		} else {
			in.logger.Info("no accepted variants, contig copied through",
				zap.String("contig", cr.Contig))
		}
		return nil
	}

	err := OrderedCollect(results, func(wr WorkResult) error {
		if err := merge(wr); err != nil {
			cancel()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("integrate variants: %w", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("integrate variants: %w", readErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if res.Stats.Records == 0 {
		in.logger.Warn("no variants called, reference copied unchanged")
	}

	res.Corrected, err = ref.Replace(replacements)
	if err != nil {
		return nil, fmt.Errorf("assemble corrected reference: %w", err)
	}

	in.logger.Info("integration complete",
		zap.Int("records", res.Stats.Records),
		zap.Int("integrated_snv", res.Stats.IntegratedSNV),
		zap.Int("integrated_indel", res.Stats.IntegratedIndel),
		zap.Int("uncovered", res.Stats.Uncovered),
		zap.Int("filtered", res.Stats.Filtered),
		zap.Int("contigs_modified", len(replacements)))

	return res, nil
}

// batchByContig groups consecutive records of the same contig into work items.
func batchByContig(ctx context.Context, ref *genome.Collection, p vcf.VariantParser, items chan<- WorkItem) error {
	seen := make(map[string]bool)
	seq := 0
	var cur *WorkItem

	flush := func() error {
		if cur == nil {
			return nil
		}
		select {
		case items <- *cur:
		case <-ctx.Done():
			return ctx.Err()
		}
		seq++
		cur = nil
		return nil
	}

	for {
		r, err := p.Next()
		if err != nil {
			return fmt.Errorf("read variants: %w", err)
		}
		if r == nil {
			break
		}

		if cur == nil || cur.Contig != r.Chrom {
			if !ref.Has(r.Chrom) {
				return fmt.Errorf("%w: %s (line %d)", ErrUnknownContig, r.Chrom, r.Line)
			}
			if seen[r.Chrom] {
				return fmt.Errorf("%w: contig %s appears again at line %d", ErrUnsorted, r.Chrom, r.Line)
			}
			if err := flush(); err != nil {
				return err
			}
			seen[r.Chrom] = true
			cur = &WorkItem{Seq: seq, Contig: r.Chrom}
		}
		cur.Records = append(cur.Records, r)
	}

	return flush()
}
