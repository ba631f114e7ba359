package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ScottSallinen/bentally/utils"
)

// networkx adjacency_data layout. Only nodes and adjacency matter here.
type adjacencyJSON struct {
	Directed   bool               `json:"directed"`
	Multigraph bool               `json:"multigraph"`
	Nodes      []Attributes       `json:"nodes"`
	Adjacency  [][]map[string]any `json:"adjacency"`
}

var ErrBadGraph = errors.New("invalid graph description")

// LoadJSON reads a networkx adjacency JSON file.
func LoadJSON(path string) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	watch := utils.Watch{}
	watch.Start()
	g, err := ParseJSON(bufio.NewReaderSize(file, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Msg("Loaded graph " + utils.BaseName(path) + " with " + utils.V(g.NumNodes()) + " nodes and " +
		utils.V(g.NumEdges()) + " edges in (ms) " + utils.V(watch.Elapsed().Milliseconds()))
	return g, nil
}

// ParseJSON decodes a networkx adjacency description. Node i of the graph is the i-th entry of "nodes", and
// adjacency targets are node indexes. Edges are deduplicated across both directions; self loops are dropped
// since they can never be cut.
func ParseJSON(r io.Reader) (*Graph, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw adjacencyJSON
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGraph, err)
	}
	if raw.Directed {
		log.Warn().Msg("Graph is marked directed; edges are treated as undirected.")
	}
	if raw.Multigraph {
		log.Warn().Msg("Graph is marked as a multigraph; parallel edges are collapsed.")
	}
	if len(raw.Adjacency) > len(raw.Nodes) {
		return nil, fmt.Errorf("%w: %d adjacency lists for %d nodes", ErrBadGraph, len(raw.Adjacency), len(raw.Nodes))
	}

	n := int64(len(raw.Nodes))
	ug := simple.NewUndirectedGraph()
	for i := int64(0); i < n; i++ {
		ug.AddNode(simple.Node(i))
	}
	for src, targets := range raw.Adjacency {
		for _, target := range targets {
			dst, err := targetIndex(target, n)
			if err != nil {
				return nil, fmt.Errorf("%w: adjacency of node %d: %v", ErrBadGraph, src, err)
			}
			if dst == int64(src) {
				continue
			}
			ug.SetEdge(simple.Edge{F: simple.Node(src), T: simple.Node(dst)})
		}
	}

	g := &Graph{Nodes: raw.Nodes}
	g.Edges = make([]Edge, 0, ug.Edges().Len())
	for edges := ug.Edges(); edges.Next(); {
		e := edges.Edge()
		a, b := e.From().ID(), e.To().ID()
		g.Edges = append(g.Edges, Edge{Src: uint32(min(a, b)), Dst: uint32(max(a, b))})
	}
	slices.SortFunc(g.Edges, func(x, y Edge) int {
		if x.Src != y.Src {
			return int(x.Src) - int(y.Src)
		}
		return int(x.Dst) - int(y.Dst)
	})
	return g, nil
}

func targetIndex(target map[string]any, n int64) (int64, error) {
	raw, ok := target["id"]
	if !ok {
		return 0, errors.New("missing id")
	}
	var id int64
	var err error
	switch v := raw.(type) {
	case json.Number:
		id, err = v.Int64()
	case string:
		id, err = strconv.ParseInt(v, 10, 64)
	default:
		err = fmt.Errorf("id %#v is not an integer", raw)
	}
	if err != nil {
		return 0, err
	}
	if id < 0 || id >= n {
		return 0, fmt.Errorf("id %d out of range for %d nodes", id, n)
	}
	return id, nil
}
