package genome

import (
	"fmt"
	"regexp"
	"sort"
)

var invalidIdentifierChar = regexp.MustCompile(`[^a-zA-Z0-9_.\-!?=+():#]`)

// CheckIdentifier rejects identifiers that downstream aligners and variant
// callers mangle: anything outside a-z A-Z 0-9 _ . - ! ? = + ( ) : #.
func CheckIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("empty sequence identifier")
	}
	if loc := invalidIdentifierChar.FindStringIndex(id); loc != nil {
		return fmt.Errorf("sequence identifier %q: invalid character %q", id, id[loc[0]:loc[1]])
	}
	return nil
}

// CheckIdentifiers returns the first identifier error in c, if any.
func CheckIdentifiers(c *Collection) error {
	for _, id := range c.order {
		if err := CheckIdentifier(id); err != nil {
			return err
		}
	}
	return nil
}

// Partition splits the identifiers of c into n groups of roughly equal total
// length. Sequences are assigned shortest first, each to the group with the
// smallest running total; ties go to the lowest group index.
func Partition(c *Collection, n int) ([][]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("partition into %d groups: group count must be positive", n)
	}

	seqs := c.Sequences()
	sort.SliceStable(seqs, func(i, j int) bool {
		return seqs[i].Len() < seqs[j].Len()
	})

	groups := make([][]string, n)
	sums := make([]int, n)
	for _, s := range seqs {
		smallest := 0
		for i := 1; i < n; i++ {
			if sums[i] < sums[smallest] {
				smallest = i
			}
		}
		groups[smallest] = append(groups[smallest], s.ID())
		sums[smallest] += s.Len()
	}
	return groups, nil
}
