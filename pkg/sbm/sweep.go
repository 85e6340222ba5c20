package sbm

import (
	"github.com/blockmodel/sbm-inference-service/pkg/network"
)

// SweepResult reports one MCMC pass over a level: the ids of nodes that
// changed block and the accumulated entropy delta of the accepted moves.
type SweepResult struct {
	Moved        []string
	EntropyDelta float64
}

// Sweep runs one MCMC pass over a level. The visitation order is a single
// uniform shuffle of the level's nodes; each node is visited exactly once.
// A proposal equal to the node's current block is skipped without scoring.
// Accepted moves are committed immediately, so later decisions in the same
// sweep observe them. With variableBlocks set, empty blocks are purged and
// one fresh block for the node's type is provisioned after every decision,
// keeping an escape hatch for block-count growth.
func (m *Model) Sweep(level int, variableBlocks bool) (SweepResult, error) {
	blockLevel := level + 1

	nodes, err := m.net.NodesAtLevel(level)
	if err != nil {
		return SweepResult{}, err
	}
	m.smp.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })

	result := SweepResult{}
	for _, n := range nodes {
		// Isolated nodes carry no information for a proposal.
		if n.Degree == 0 {
			continue
		}
		if !n.HasParent() {
			return SweepResult{}, network.LogicError{Op: "sweep", Reason: "nodes have no blocks; initialize blocks first"}
		}

		proposed, err := m.ProposeMove(n)
		if err != nil {
			return SweepResult{}, err
		}

		if proposed.ID != n.Parent {
			proposal, err := m.ScoreProposal(n, proposed)
			if err != nil {
				return SweepResult{}, err
			}

			if m.smp.DrawUnif() < proposal.AcceptProb {
				if err := m.net.SetParent(n, proposed); err != nil {
					return SweepResult{}, err
				}
				result.Moved = append(result.Moved, n.ID)
				result.EntropyDelta += proposal.EntropyDelta
			}
		}

		if variableBlocks {
			m.net.PurgeEmptyBlocks()
			if _, err := m.net.CreateBlock(n.Type, blockLevel); err != nil {
				return SweepResult{}, err
			}
		}
	}

	m.logger.Debug().
		Int("level", level).
		Int("moved", len(result.Moved)).
		Float64("entropy_delta", result.EntropyDelta).
		Bool("variable_blocks", variableBlocks).
		Msg("Sweep completed")

	return result, nil
}
