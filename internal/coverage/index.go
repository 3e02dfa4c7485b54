package coverage

import (
	"fmt"
	"sort"
)

// Mode selects which alignments count toward an interval.
type Mode int

const (
	// ModeSpan counts alignments whose footprint covers the whole interval.
	ModeSpan Mode = iota
	// ModeOverlap counts alignments sharing at least one base with the interval.
	ModeOverlap
)

// ParseMode converts a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "span":
		return ModeSpan, nil
	case "overlap":
		return ModeOverlap, nil
	}
	return 0, fmt.Errorf("unknown coverage mode %q (want span or overlap)", s)
}

func (m Mode) String() string {
	if m == ModeOverlap {
		return "overlap"
	}
	return "span"
}

// Index answers coverage queries over perfect alignments held in memory.
// Alignments are loaded once and never modified after Build.
type Index struct {
	mode    Mode
	contigs map[string]*contigIndex
}

// contigIndex keeps alignments sorted by start with a running maximum of
// their ends, so a scan leftwards from the query can stop as soon as no
// earlier alignment reaches far enough.
type contigIndex struct {
	starts    []int64
	ends      []int64
	prefixMax []int64 // prefixMax[i] = max(ends[0..i])
}

// Builder accumulates alignment footprints for an Index.
type Builder struct {
	mode  Mode
	spans map[string][][2]int64
}

// NewBuilder creates a builder for an index with the given mode.
func NewBuilder(mode Mode) *Builder {
	return &Builder{mode: mode, spans: make(map[string][][2]int64)}
}

// Add records a perfect alignment covering [start, end) of contig.
func (b *Builder) Add(contig string, start, end int64) {
	b.spans[contig] = append(b.spans[contig], [2]int64{start, end})
}

// Build sorts the accumulated footprints and returns the index.
func (b *Builder) Build() *Index {
	idx := &Index{mode: b.mode, contigs: make(map[string]*contigIndex, len(b.spans))}
	for contig, spans := range b.spans {
		sort.Slice(spans, func(i, j int) bool {
			if spans[i][0] != spans[j][0] {
				return spans[i][0] < spans[j][0]
			}
			return spans[i][1] < spans[j][1]
		})

		ci := &contigIndex{
			starts:    make([]int64, len(spans)),
			ends:      make([]int64, len(spans)),
			prefixMax: make([]int64, len(spans)),
		}
		for i, s := range spans {
			ci.starts[i] = s[0]
			ci.ends[i] = s[1]
			ci.prefixMax[i] = s[1]
			if i > 0 && ci.prefixMax[i-1] > s[1] {
				ci.prefixMax[i] = ci.prefixMax[i-1]
			}
		}
		idx.contigs[contig] = ci
	}
	return idx
}

// Mode returns the counting mode.
func (idx *Index) Mode() Mode { return idx.mode }

// Alignments returns the number of indexed alignments on contig.
func (idx *Index) Alignments(contig string) int {
	ci, ok := idx.contigs[contig]
	if !ok {
		return 0
	}
	return len(ci.starts)
}

// Coverage counts indexed alignments for [start, end) of contig.
// Contigs without alignments have zero coverage.
func (idx *Index) Coverage(contig string, start, end int64) (int, error) {
	if start < 0 || end < start {
		return 0, fmt.Errorf("invalid interval %s:%d-%d", contig, start, end)
	}
	ci, ok := idx.contigs[contig]
	if !ok {
		return 0, nil
	}

	// Candidates start at or before bound and must end at or after need.
	bound, need := start, end
	if idx.mode == ModeOverlap {
		bound, need = end-1, start+1
	}

	hi := sort.Search(len(ci.starts), func(i int) bool {
		return ci.starts[i] > bound
	})

	count := 0
	for i := hi - 1; i >= 0; i-- {
		if ci.prefixMax[i] < need {
			break
		}
		if ci.ends[i] >= need {
			count++
		}
	}
	return count, nil
}
