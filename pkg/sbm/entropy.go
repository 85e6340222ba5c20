package sbm

import (
	"math"
	"sort"
)

// Entropy computes the degree-corrected microcanonical entropy of the
// block structure over a level:
//
//	-(E + sum_k n_k*ln(k!) + 1/2 * sum_{r,s} e_rs*ln(e_rs/(deg_r*deg_s)))
//
// where E is the total edge count at the level, n_k the number of nodes
// with degree k, and e_rs the edge multiplicity between blocks r and s one
// level up. Lower is a better fit. Pure; no state is mutated.
func (m *Model) Entropy(level int) (float64, error) {
	nodes, err := m.net.NodesAtLevel(level)
	if err != nil {
		return 0, err
	}

	totalEdges := 0.0
	nodesWithDegree := make(map[int]int)
	for _, n := range nodes {
		totalEdges += float64(n.Degree)
		nodesWithDegree[n.Degree]++
	}
	// Each undirected edge was counted from both endpoints.
	totalEdges /= 2

	degreeSum := 0.0
	degrees := make([]int, 0, len(nodesWithDegree))
	for k := range nodesWithDegree {
		degrees = append(degrees, k)
	}
	sort.Ints(degrees)
	for _, k := range degrees {
		lg, _ := math.Lgamma(float64(k) + 1) // ln(k!)
		degreeSum += float64(nodesWithDegree[k]) * lg
	}

	// Pairwise block term. A missing block level means no block structure,
	// which contributes nothing.
	edgeEntropy := 0.0
	blockLevel := level + 1
	if blockLevel < m.net.NumLevels() {
		blocks, err := m.net.NodesAtLevel(blockLevel)
		if err != nil {
			return 0, err
		}
		for _, r := range blocks {
			conns, err := m.net.ConnectionsToLevel(r, blockLevel)
			if err != nil {
				return 0, err
			}
			ids, weights := sortedConnections(conns)
			for i, id := range ids {
				ers := float64(weights[i])
				if ers == 0 {
					continue
				}
				sDegree := float64(m.blockDegree(blockLevel, id))
				edgeEntropy += ers * math.Log(ers/(float64(r.Degree)*sDegree))
			}
		}
	}

	// The half factor absorbs the double counting of unordered block pairs.
	return -(totalEdges + degreeSum + edgeEntropy/2), nil
}
