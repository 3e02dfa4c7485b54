package genome

import "fmt"

// Collection is an ordered set of uniquely named sequences.
type Collection struct {
	order []string
	byID  map[string]Sequence
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{byID: make(map[string]Sequence)}
}

// Add appends a sequence. Identifiers must be unique.
func (c *Collection) Add(s Sequence) error {
	if _, ok := c.byID[s.id]; ok {
		return fmt.Errorf("duplicate sequence identifier %q", s.id)
	}
	c.order = append(c.order, s.id)
	c.byID[s.id] = s
	return nil
}

// Get returns the sequence with the given identifier.
func (c *Collection) Get(id string) (Sequence, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Has reports whether a sequence with the identifier exists.
func (c *Collection) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// IDs returns identifiers in insertion order.
func (c *Collection) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Sequences returns sequences in insertion order.
func (c *Collection) Sequences() []Sequence {
	out := make([]Sequence, len(c.order))
	for i, id := range c.order {
		out[i] = c.byID[id]
	}
	return out
}

// Len returns the number of sequences.
func (c *Collection) Len() int { return len(c.order) }

// TotalLength returns the summed residue count.
func (c *Collection) TotalLength() int {
	total := 0
	for _, s := range c.byID {
		total += s.Len()
	}
	return total
}

// Replace returns a new collection in the same order where sequences in
// replacements take the place of those with matching identifiers.
// The receiver is not modified.
func (c *Collection) Replace(replacements map[string]Sequence) (*Collection, error) {
	out := &Collection{
		order: make([]string, len(c.order)),
		byID:  make(map[string]Sequence, len(c.byID)),
	}
	copy(out.order, c.order)
	for id, s := range c.byID {
		out.byID[id] = s
	}
	for id, s := range replacements {
		if _, ok := out.byID[id]; !ok {
			return nil, fmt.Errorf("replace sequence %q: not in collection", id)
		}
		out.byID[id] = s
	}
	return out, nil
}
