package network

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// BlockGraph exports a level's aggregated adjacency as a gonum weighted
// undirected graph, for downstream analysis or visualization. Edge weights
// are the inter-block edge multiplicities; self multiplicities are dropped
// since simple graphs carry no self loops. The returned mapping resolves
// gonum node ids back to block ids.
func (net *Network) BlockGraph(level int) (*simple.WeightedUndirectedGraph, map[int64]string, error) {
	nodes, err := net.NodesAtLevel(level)
	if err != nil {
		return nil, nil, err
	}

	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	idToGonum := make(map[string]int64, len(nodes))
	mapping := make(map[int64]string, len(nodes))

	for i, n := range nodes {
		gid := int64(i)
		g.AddNode(simple.Node(gid))
		idToGonum[n.ID] = gid
		mapping[gid] = n.ID
	}

	for _, n := range nodes {
		conns, err := net.ConnectionsToLevel(n, level)
		if err != nil {
			return nil, nil, err
		}
		neighborIDs := make([]string, 0, len(conns))
		for id := range conns {
			neighborIDs = append(neighborIDs, id)
		}
		sort.Strings(neighborIDs)

		from := idToGonum[n.ID]
		for _, nbID := range neighborIDs {
			to, ok := idToGonum[nbID]
			if !ok || from == to {
				continue
			}
			if !g.HasEdgeBetween(from, to) {
				g.SetWeightedEdge(simple.WeightedEdge{
					F: simple.Node(from),
					T: simple.Node(to),
					W: float64(conns[nbID]),
				})
			}
		}
	}

	return g, mapping, nil
}
