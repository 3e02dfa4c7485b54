package integrate

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/raccoon/internal/filter"
	"github.com/inodb/raccoon/internal/genome"
	"github.com/inodb/raccoon/internal/ledger"
	"github.com/inodb/raccoon/internal/vcf"
)

// hetRef matches genotypes carrying the reference allele first ("0/1", "0|2", "0/0").
var hetRef = regexp.MustCompile(`^0[/|]\d+`)

// ContigResult is the outcome of correcting one contig.
type ContigResult struct {
	Contig   string
	Sequence genome.Sequence
	Entries  []ledger.Entry
	Stats    Stats
}

// Modified reports whether any edit was applied.
func (r ContigResult) Modified() bool { return len(r.Entries) > 0 }

// SelectAllele picks the alternate allele to integrate for an accepted record.
//
// Haploid calls and single-alternate records take the first alternate.
// Otherwise the alternate with the largest allelic depth wins; depth index 0
// is the reference and is not a candidate, so depth index i+1 belongs to
// alternate i. Ties go to the lowest alternate index.
func SelectAllele(r *vcf.Record) (string, error) {
	if len(r.Alts) == 0 {
		return "", fmt.Errorf("%s:%d: no alternate allele", r.Chrom, r.Start+1)
	}
	if r.IsHaploid() || len(r.Alts) == 1 {
		return r.Alts[0], nil
	}
	if len(r.AlleleDepths) != len(r.Alts)+1 {
		return "", fmt.Errorf("%w: %s:%d has %d depths for %d alternates",
			ErrDepthMismatch, r.Chrom, r.Start+1, len(r.AlleleDepths), len(r.Alts))
	}

	best := 0
	for i := 1; i < len(r.Alts); i++ {
		if r.AlleleDepths[i+1] > r.AlleleDepths[best+1] {
			best = i
		}
	}
	return r.Alts[best], nil
}

// IntegrateContig folds accepted records into ref. Records must belong to
// ref and be sorted by start.
func (in *Integrator) IntegrateContig(ref genome.Sequence, records []*vcf.Record) (ContigResult, error) {
	res := ContigResult{Contig: ref.ID(), Sequence: ref}
	refLen := int64(ref.Len())

	var (
		mod       strings.Builder
		cursor    int64
		prevStart int64 = -1
	)

	for _, r := range records {
		res.Stats.Records++

		if r.Start < prevStart {
			return res, fmt.Errorf("%w: %s:%d follows position %d", ErrUnsorted, r.Chrom, r.Start+1, prevStart+1)
		}
		prevStart = r.Start

		if hetRef.MatchString(r.Genotype) || !r.HasCalledAlt() {
			res.Stats.Skipped++
			continue
		}

		decision := in.thresholds.Decide(r)
		if !decision.Accepted {
			res.Stats.Filtered++
			continue
		}

		// Only records that would be integrated are checked against the reference.
		if r.End > refLen {
			return res, fmt.Errorf("%w: %s:%d-%d beyond contig length %d", ErrReferenceMismatch, r.Chrom, r.Start+1, r.End, refLen)
		}
		if got := ref.Slice(int(r.Start), int(r.End)); !strings.EqualFold(got, r.Ref) {
			return res, fmt.Errorf("%w: %s:%d has %q, record says %q", ErrReferenceMismatch, r.Chrom, r.Start+1, got, r.Ref)
		}

		allele, err := SelectAllele(r)
		if err != nil {
			return res, err
		}

		if r.Start < cursor {
			in.logger.Warn("skipping variant overlapping a previous edit",
				zap.String("contig", r.Chrom),
				zap.Int64("pos", r.Start+1),
				zap.Int64("previous_end", cursor))
			res.Stats.Overlapping++
			continue
		}

		cov, err := in.coverage.Coverage(r.Chrom, r.Start, r.End)
		if err != nil {
			return res, fmt.Errorf("measure coverage at %s:%d: %w", r.Chrom, r.Start+1, err)
		}
		if cov == 0 {
			res.Stats.Uncovered++
		}

		mod.WriteString(ref.Slice(int(cursor), int(r.Start)))
		mod.WriteString(allele)

		insStart := int64(mod.Len() - len(allele))
		if insStart < 0 {
			insStart = 0
		}
		res.Entries = append(res.Entries, ledger.Entry{
			Contig:   r.Chrom,
			Start:    insStart,
			End:      insStart + int64(len(allele)),
			Inserted: allele,
			Original: r.Ref,
			Coverage: cov,
		})
		cursor = r.End

		if decision.Kind == filter.KindSNV {
			res.Stats.IntegratedSNV++
		} else {
			res.Stats.IntegratedIndel++
		}
	}

	if res.Modified() {
		mod.WriteString(ref.Slice(int(cursor), ref.Len()))
		seq, err := ref.WithResidues(mod.String())
		if err != nil {
			return res, fmt.Errorf("rebuild contig %s: %w", ref.ID(), err)
		}
		res.Sequence = seq
	}
	res.Stats.AssemblyLength = res.Sequence.Len()

	return res, nil
}
