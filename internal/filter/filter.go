// Package filter decides which variant calls are folded into the reference.
package filter

import "github.com/inodb/raccoon/internal/vcf"

// Default thresholds.
const (
	DefaultMinQual = 30.0 // minimum variant quality (phred)
	DefaultMinQD   = 2.0  // minimum quality by depth

	// DefaultMaxAlleleLength bounds indel alleles: six bases plus the
	// upstream anchor base every VCF indel carries.
	DefaultMaxAlleleLength = 7
)

// Kind classifies a variant record.
type Kind int

const (
	KindOther Kind = iota // symbolic, spanning-deletion and missing alleles
	KindSNV
	KindIndel
)

func (k Kind) String() string {
	switch k {
	case KindSNV:
		return "snv"
	case KindIndel:
		return "indel"
	}
	return "other"
}

// Classify returns the kind of r.
func Classify(r *vcf.Record) Kind {
	switch {
	case r.IsSNV():
		return KindSNV
	case r.IsIndel():
		return KindIndel
	}
	return KindOther
}

// Thresholds holds the acceptance gates.
type Thresholds struct {
	MinQual         float64
	MinQD           float64
	MaxAlleleLength int
}

// DefaultThresholds returns the standard gates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinQual:         DefaultMinQual,
		MinQD:           DefaultMinQD,
		MaxAlleleLength: DefaultMaxAlleleLength,
	}
}

// Decision is the filter outcome for one record.
type Decision struct {
	Kind     Kind
	Accepted bool
}

// Decide classifies r and applies the matching predicate.
func (t Thresholds) Decide(r *vcf.Record) Decision {
	kind := Classify(r)
	switch kind {
	case KindSNV:
		return Decision{Kind: kind, Accepted: t.AcceptSNV(r)}
	case KindIndel:
		return Decision{Kind: kind, Accepted: t.AcceptIndel(r)}
	}
	return Decision{Kind: kind}
}

// AcceptSNV reports whether r is a single-base substitution passing the
// quality and quality-by-depth gates. A missing QD rejects.
func (t Thresholds) AcceptSNV(r *vcf.Record) bool {
	return r.IsSNV() && t.passQuality(r)
}

// AcceptIndel reports whether r passes the quality gates and neither its
// reference nor any alternate allele exceeds MaxAlleleLength.
func (t Thresholds) AcceptIndel(r *vcf.Record) bool {
	if !t.passQuality(r) {
		return false
	}
	if len(r.Ref) > t.MaxAlleleLength {
		return false
	}
	for _, alt := range r.Alts {
		if len(alt) > t.MaxAlleleLength {
			return false
		}
	}
	return true
}

func (t Thresholds) passQuality(r *vcf.Record) bool {
	if r.Qual < t.MinQual {
		return false
	}
	qd, ok := r.QD()
	return ok && qd >= t.MinQD
}
