package sbm

import (
	"fmt"
	"sort"

	"github.com/blockmodel/sbm-inference-service/pkg/network"
)

// sortedConnections flattens a connection map into parallel id/weight
// slices in id order, so weighted sampling consumes the generator
// deterministically.
func sortedConnections(conns map[string]int) ([]string, []int) {
	ids := make([]string, 0, len(conns))
	for id := range conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	weights := make([]int, len(ids))
	for i, id := range ids {
		weights[i] = conns[id]
	}
	return ids, weights
}

// ProposeMove produces a candidate block one level up for a node. A random
// neighbor is sampled proportional to edge multiplicity; with probability
// eps*K/(d + eps*K) — d the neighbor block's degree, K the number of
// candidate blocks — a uniformly random block is returned, which keeps the
// chain ergodic. Otherwise the candidate is sampled from the neighbor
// block's own connections one level up, following the locally inferred
// structure. No state is mutated.
func (m *Model) ProposeMove(n *network.Node) (*network.Node, error) {
	blockLevel := n.Level + 1

	candidates, err := m.net.NodesOfType(n.Type, blockLevel)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, network.LogicError{Op: "propose move", Reason: fmt.Sprintf(
			"no candidate blocks for type %d at level %d", n.Type, blockLevel)}
	}

	conns, err := m.net.ConnectionsToLevel(n, n.Level)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return nil, network.LogicError{Op: "propose move", Reason: fmt.Sprintf(
			"node %q has no neighbors to guide a proposal", n.ID)}
	}

	neighborIDs, weights := sortedConnections(conns)
	neighbor, err := m.net.NodeByID(n.Level, m.smp.WeightedSample(neighborIDs, weights))
	if err != nil {
		return nil, err
	}
	if !neighbor.HasParent() {
		return nil, network.LogicError{Op: "propose move", Reason: fmt.Sprintf(
			"neighbor %q has no block; initialize blocks first", neighbor.ID)}
	}
	neighborBlock, err := m.net.NodeByID(blockLevel, neighbor.Parent)
	if err != nil {
		return nil, err
	}

	ergo := m.cfg.Eps() * float64(len(candidates))
	if m.smp.DrawUnif() < ergo/(float64(neighborBlock.Degree)+ergo) {
		return candidates[m.smp.Intn(len(candidates))], nil
	}

	blockConns, err := m.net.ConnectionsToLevel(neighborBlock, blockLevel)
	if err != nil {
		return nil, err
	}
	blockIDs, blockWeights := sortedConnections(blockConns)
	return m.net.NodeByID(blockLevel, m.smp.WeightedSample(blockIDs, blockWeights))
}
