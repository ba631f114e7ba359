// Package graph holds the static dual graph an ensemble partitions: one attribute record per node and the
// deduplicated undirected edge set.
package graph

// Attributes are the properties of one node, as decoded from the graph file.
type Attributes map[string]any

// Edge is an undirected edge with Src < Dst.
type Edge struct {
	Src uint32
	Dst uint32
}

// Graph is read-only once loaded and may be shared by any number of goroutines.
type Graph struct {
	Nodes []Attributes
	Edges []Edge // Sorted by (Src, Dst).
}

func (g *Graph) NumNodes() int {
	return len(g.Nodes)
}

func (g *Graph) NumEdges() int {
	return len(g.Edges)
}

// Column coerces the given attribute of every node to a float64, in node order.
func (g *Graph) Column(key string) ([]float64, error) {
	col := make([]float64, len(g.Nodes))
	for i := range g.Nodes {
		v, err := g.Nodes[i].Float(key)
		if err != nil {
			if me, ok := err.(*MalformedAttributeError); ok {
				me.Node = i
			}
			return nil, err
		}
		col[i] = v
	}
	return col, nil
}
