package sbm

import (
	"math"

	"github.com/blockmodel/sbm-inference-service/pkg/network"
)

// Proposal holds the outcome of scoring a hypothetical move: the change in
// the pairwise entropy sums and the Metropolis-Hastings acceptance
// probability. Ephemeral, never persisted.
type Proposal struct {
	EntropyDelta float64
	AcceptProb   float64
}

// pairTerm accumulates one block pair's e*ln(e/(deg_r*deg_s)) contribution
// before and after the move. edgesFromNode is subtracted from the old
// block's side and added to the new block's side by the caller's sign.
func pairTerm(neighborDegree, edgeCount, edgesFromNode, degreePre, degreePost float64, pre, post *float64) {
	edgeCountPost := edgeCount + edgesFromNode

	if edgeCount > 0 {
		*pre += edgeCount * math.Log(edgeCount/(degreePre*neighborDegree))
	}
	if edgeCountPost > 0 {
		*post += edgeCountPost * math.Log(edgeCountPost/(degreePost*neighborDegree))
	}
}

// ScoreProposal evaluates moving a node from its current block to a
// candidate block one level up, without mutating state. The entropy delta
// is the post-minus-pre change of the half-edge pairwise sums as seen from
// the old and new blocks independently; a block reachable from both sides
// contributes once per side. The acceptance probability folds in the
// proposal-distribution ratio required for detailed balance, clamped to 1.
func (m *Model) ScoreProposal(n, newBlock *network.Node) (Proposal, error) {
	blockLevel := n.Level + 1

	oldBlock, err := m.net.NodeByID(blockLevel, n.Parent)
	if err != nil {
		return Proposal{}, err
	}

	nodeDegree := float64(n.Degree)
	oldDegreePre := float64(oldBlock.Degree)
	newDegreePre := float64(newBlock.Degree)
	oldDegreePost := oldDegreePre - nodeDegree
	newDegreePost := newDegreePre + nodeDegree

	nodeConns, err := m.net.ConnectionsToLevel(n, blockLevel)
	if err != nil {
		return Proposal{}, err
	}
	oldConns, err := m.net.ConnectionsToLevel(oldBlock, blockLevel)
	if err != nil {
		return Proposal{}, err
	}
	newConns, err := m.net.ConnectionsToLevel(newBlock, blockLevel)
	if err != nil {
		return Proposal{}, err
	}

	var entropyPre, entropyPost float64

	oldIDs, oldWeights := sortedConnections(oldConns)
	for i, id := range oldIDs {
		neighborDegree := float64(m.blockDegree(blockLevel, id))
		pairTerm(neighborDegree, float64(oldWeights[i]), -float64(nodeConns[id]),
			oldDegreePre, oldDegreePost, &entropyPre, &entropyPost)
	}

	newIDs, newWeights := sortedConnections(newConns)
	for i, id := range newIDs {
		neighborDegree := float64(m.blockDegree(blockLevel, id))
		pairTerm(neighborDegree, float64(newWeights[i]), float64(nodeConns[id]),
			newDegreePre, newDegreePost, &entropyPre, &entropyPost)
	}

	// Proposal-distribution ratio over the blocks the node itself touches.
	// eps keeps both sums positive regardless of current adjacency.
	eps := m.cfg.Eps()
	var preProb, postProb float64
	nodeIDs, _ := sortedConnections(nodeConns)
	for _, id := range nodeIDs {
		preProb += float64(oldConns[id]) + eps
		postProb += float64(newConns[id]) + eps
	}

	entropyDelta := entropyPost - entropyPre
	acceptProb := math.Exp(m.cfg.Beta()*entropyDelta) * (preProb / postProb)
	if acceptProb > 1 {
		acceptProb = 1
	}

	return Proposal{EntropyDelta: entropyDelta, AcceptProb: acceptProb}, nil
}

// blockDegree returns the live degree of a block by id, 0 when absent.
func (m *Model) blockDegree(level int, id string) int {
	if n, err := m.net.NodeByID(level, id); err == nil {
		return n.Degree
	}
	return 0
}
