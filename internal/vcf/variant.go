// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"strconv"
	"strings"
)

// Record is a single variant call. Coordinates are 0-based and half-open:
// End - Start equals the length of the reference allele.
type Record struct {
	Chrom        string            // Contig name
	Start        int64             // 0-based start of the reference allele
	End          int64             // Exclusive end of the reference allele
	ID           string            // Variant identifier
	Ref          string            // Reference allele
	Alts         []string          // Alternate alleles in file order
	Qual         float64           // Quality score; 0 when missing
	Filter       string            // Filter status
	Info         map[string]string // INFO key-value pairs; flags map to ""
	Genotype     string            // GT of the first sample, "" when absent
	AlleleDepths []int             // AD of the first sample (INFO AD as fallback); reference first
	Line         int               // Source line number
}

// QD returns the quality-by-depth annotation and whether it is present and numeric.
func (r *Record) QD() (float64, bool) {
	raw, ok := r.Info["QD"]
	if !ok || raw == "" || raw == "." {
		return 0, false
	}
	qd, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return qd, true
}

// GenotypeAlleles splits the genotype on its phased or unphased separators.
func (r *Record) GenotypeAlleles() []string {
	if r.Genotype == "" {
		return nil
	}
	return strings.FieldsFunc(r.Genotype, func(c rune) bool {
		return c == '/' || c == '|'
	})
}

// IsHaploid reports whether the genotype has a single allele token.
func (r *Record) IsHaploid() bool {
	return len(r.GenotypeAlleles()) == 1
}

// HasCalledAlt reports whether any genotype allele refers to an alternate allele.
func (r *Record) HasCalledAlt() bool {
	for _, a := range r.GenotypeAlleles() {
		if a != "0" && a != "." {
			return true
		}
	}
	return false
}

// IsSNV returns true if the reference and every alternate allele are single bases.
func (r *Record) IsSNV() bool {
	if len(r.Ref) != 1 || len(r.Alts) == 0 {
		return false
	}
	for _, alt := range r.Alts {
		if len(alt) != 1 || !isBases(alt) {
			return false
		}
	}
	return true
}

// IsIndel returns true if every alternate allele is a plain sequence and
// either the reference spans more than one base or some alternate differs
// in length from it. Multi-base substitutions (REF "CC", ALT "TT") count.
func (r *Record) IsIndel() bool {
	if len(r.Alts) == 0 {
		return false
	}
	lengthChange := len(r.Ref) > 1
	for _, alt := range r.Alts {
		if !isBases(alt) {
			return false
		}
		if len(alt) != len(r.Ref) {
			lengthChange = true
		}
	}
	return lengthChange
}

// isBases reports whether s is a non-empty run of nucleotide letters.
// Symbolic (<DEL>), spanning deletion (*) and missing (.) alleles are not.
func isBases(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		default:
			return false
		}
	}
	return true
}
