package sbm

import (
	"errors"

	"github.com/blockmodel/sbm-inference-service/pkg/network"
)

// MergeStep records one collapse round: the entropy after the round, the
// merges committed, the block count before the round, and a full state
// snapshot of the hierarchy.
type MergeStep struct {
	Entropy   float64               `json:"entropy"`
	Merges    []MergePair           `json:"merges"`
	NumBlocks int                   `json:"num_blocks"`
	State     []network.StateRecord `json:"state"`
}

// Collapse runs repeated agglomerative merge rounds from one block per
// node down to targetBlocks, optionally equilibrating with numSweeps fixed
// block-count MCMC sweeps after each round. Each round shrinks the block
// count by a sigma-derived amount, floored at one merge and capped so the
// target is never undershot. When a round hits the collapsibility limit the
// trajectory accumulated so far is returned instead of an error.
func (m *Model) Collapse(level, numSweeps, targetBlocks int) ([]MergeStep, error) {
	if targetBlocks < 1 {
		return nil, network.LogicError{Op: "collapse", Reason: "target block count must be at least 1"}
	}
	blockLevel := level + 1

	if err := m.InitializeBlocks(level, -1); err != nil {
		return nil, err
	}

	numBlocks, err := m.net.NumNodesAtLevel(blockLevel)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Int("level", level).
		Int("start_blocks", numBlocks).
		Int("target_blocks", targetBlocks).
		Int("equilibration_sweeps", numSweeps).
		Msg("Starting collapse")

	var trajectory []MergeStep
	for numBlocks > targetBlocks {
		numMerges := numBlocks - int(float64(numBlocks)/m.cfg.Sigma())
		if numMerges < 1 {
			numMerges = 1
		}
		if numBlocks-numMerges < targetBlocks {
			numMerges = numBlocks - targetBlocks
		}

		mergeResult, err := m.AgglomerativeMerge(blockLevel, numMerges)
		if err != nil {
			var limit CollapsibilityLimitError
			if errors.As(err, &limit) {
				m.logger.Warn().
					Str("type", limit.Type).
					Int("blocks_left", numBlocks).
					Msg("Collapsibility limit reached, stopping early")
				break
			}
			return nil, err
		}

		step := MergeStep{
			Entropy:   mergeResult.Entropy,
			Merges:    mergeResult.Merges,
			NumBlocks: numBlocks,
		}

		if numSweeps > 0 {
			for j := 0; j < numSweeps; j++ {
				if _, err := m.Sweep(level, false); err != nil {
					return nil, err
				}
			}
			m.net.PurgeEmptyBlocks()
			entropy, err := m.Entropy(level)
			if err != nil {
				return nil, err
			}
			step.Entropy = entropy
		}

		state, err := m.net.ExportState()
		if err != nil {
			return nil, err
		}
		step.State = state
		trajectory = append(trajectory, step)

		numBlocks, err = m.net.NumNodesAtLevel(blockLevel)
		if err != nil {
			return nil, err
		}

		m.logger.Info().
			Int("blocks", numBlocks).
			Int("merges", len(step.Merges)).
			Float64("entropy", step.Entropy).
			Msg("Collapse round completed")
	}

	return trajectory, nil
}
