package tally

import "github.com/ScottSallinen/bentally/graph"

// CutEdges counts the edges whose endpoints lie in different partitions.
func CutEdges(g *graph.Graph, assignment []uint16) (uint32, error) {
	if err := checkLen(assignment, g.NumNodes()); err != nil {
		return 0, err
	}
	cut := uint32(0)
	for _, e := range g.Edges {
		if assignment[e.Src] != assignment[e.Dst] {
			cut++
		}
	}
	return cut, nil
}
