package tally

import (
	"errors"

	"github.com/ScottSallinen/bentally/graph"
)

// Table maps attribute key -> partition id -> sum of that attribute over the partition's nodes.
// Only partitions present in the tallied assignment appear.
type Table map[string]map[uint16]float64

// Tallier sums node attributes per partition. Columns are coerced once at construction; Tally is safe for
// concurrent use.
type Tallier struct {
	keys    []string
	columns [][]float64
}

func NewTallier(g *graph.Graph, keys []string) (*Tallier, error) {
	if len(keys) == 0 {
		return nil, errors.New("no attribute keys to tally")
	}
	t := &Tallier{keys: keys, columns: make([][]float64, len(keys))}
	for k, key := range keys {
		col, err := g.Column(key)
		if err != nil {
			return nil, err
		}
		t.columns[k] = col
	}
	return t, nil
}

func (t *Tallier) Keys() []string {
	return t.keys
}

func (t *Tallier) Tally(assignment []uint16) (Table, error) {
	n := 0
	if len(t.columns) > 0 {
		n = len(t.columns[0])
	}
	if err := checkLen(assignment, n); err != nil {
		return nil, err
	}

	table := make(Table, len(t.keys))
	for k, key := range t.keys {
		sums := make(map[uint16]float64)
		col := t.columns[k]
		for i, p := range assignment {
			sums[p] += col[i]
		}
		table[key] = sums
	}
	return table, nil
}

// TallyKeys tallies a single assignment. For many assignments over the same graph, build a Tallier once instead.
func TallyKeys(g *graph.Graph, assignment []uint16, keys []string) (Table, error) {
	t, err := NewTallier(g, keys)
	if err != nil {
		return nil, err
	}
	return t.Tally(assignment)
}
