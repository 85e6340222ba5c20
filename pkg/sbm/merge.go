package sbm

import (
	"fmt"
	"sort"

	"github.com/blockmodel/sbm-inference-service/pkg/network"
)

// CollapsibilityLimitError signals that an agglomerative merge round cannot
// run because some type no longer has at least two blocks to merge. The
// collapse controller recovers from it by stopping early; everything else
// treats it as failure.
type CollapsibilityLimitError struct {
	Type   string
	Blocks int
}

func (e CollapsibilityLimitError) Error() string {
	return fmt.Sprintf("collapsibility limit: type %q has %d block(s), need at least 2", e.Type, e.Blocks)
}

// MergePair records one committed merge: the culled block and the block
// that absorbed its children.
type MergePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// MergeResult reports one agglomerative merge round.
type MergeResult struct {
	Merges  []MergePair
	Entropy float64
}

// mergeCandidate is one scored potential merge.
type mergeCandidate struct {
	from  string
	to    string
	delta float64
}

// MergeBlocks reparents every child of b onto a. b itself is left empty;
// the caller purges it afterward.
func (m *Model) MergeBlocks(a, b *network.Node) error {
	childIDs := make([]string, 0, len(b.Children))
	for id := range b.Children {
		childIDs = append(childIDs, id)
	}
	sort.Strings(childIDs)

	for _, id := range childIDs {
		child, err := m.net.NodeByID(b.Level-1, id)
		if err != nil {
			return err
		}
		if err := m.net.SetParent(child, a); err != nil {
			return err
		}
	}
	return nil
}

// AgglomerativeMerge searches for and commits up to numMerges whole-block
// merges at a block level, ranked by entropy improvement. Every block gets
// a temporary singleton metagroup one level up so the node-level proposal
// and scoring machinery applies at block granularity. Candidates are
// gathered exhaustively in greedy mode, otherwise by sampled proposals.
// Commits are greedy in ranked order; a block can be culled at most once
// per round but may absorb any number of merges. The scaffold is torn down
// afterward and the entropy below the merged level recomputed.
func (m *Model) AgglomerativeMerge(blockLevel, numMerges int) (MergeResult, error) {
	if numMerges < 1 {
		return MergeResult{}, network.LogicError{Op: "agglomerative merge", Reason: "zero merges requested"}
	}
	if blockLevel < 1 {
		return MergeResult{}, network.LogicError{Op: "agglomerative merge", Reason: "merging is only defined on block levels"}
	}
	if err := m.checkMergeable(blockLevel); err != nil {
		return MergeResult{}, err
	}

	metaLevel := blockLevel + 1
	if err := m.InitializeBlocks(blockLevel, -1); err != nil {
		return MergeResult{}, err
	}

	blocks, err := m.net.NodesAtLevel(blockLevel)
	if err != nil {
		return MergeResult{}, err
	}

	var candidates []mergeCandidate
	for _, block := range blocks {
		metagroups, err := m.metagroupsToSearch(block, metaLevel)
		if err != nil {
			return MergeResult{}, err
		}

		for _, metagroup := range metagroups {
			target, err := m.singleChild(metagroup)
			if err != nil {
				return MergeResult{}, err
			}
			if target.ID == block.ID {
				continue
			}

			proposal, err := m.ScoreProposal(block, metagroup)
			if err != nil {
				return MergeResult{}, err
			}
			candidates = append(candidates, mergeCandidate{
				from:  block.ID,
				to:    target.ID,
				delta: proposal.EntropyDelta,
			})
		}
	}

	// Best improvement first: a larger delta of the pairwise sums means a
	// lower resulting entropy. Ties break on ids for reproducibility.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.delta != b.delta {
			return a.delta > b.delta
		}
		if a.from != b.from {
			return a.from < b.from
		}
		return a.to < b.to
	})

	result := MergeResult{}
	culled := make(map[string]bool)
	for _, cand := range candidates {
		if len(result.Merges) >= numMerges {
			break
		}
		if culled[cand.from] || culled[cand.to] {
			continue
		}

		to, err := m.net.NodeByID(blockLevel, cand.to)
		if err != nil {
			return MergeResult{}, err
		}
		from, err := m.net.NodeByID(blockLevel, cand.from)
		if err != nil {
			return MergeResult{}, err
		}
		if err := m.MergeBlocks(to, from); err != nil {
			return MergeResult{}, err
		}
		culled[cand.from] = true
		result.Merges = append(result.Merges, MergePair{From: cand.from, To: cand.to})
	}

	m.net.PurgeEmptyBlocks()
	if err := m.net.RemoveTopLevel(); err != nil {
		return MergeResult{}, err
	}

	entropy, err := m.Entropy(blockLevel - 1)
	if err != nil {
		return MergeResult{}, err
	}
	result.Entropy = entropy

	m.logger.Debug().
		Int("block_level", blockLevel).
		Int("requested", numMerges).
		Int("committed", len(result.Merges)).
		Float64("entropy", result.Entropy).
		Msg("Agglomerative merge round completed")

	return result, nil
}

// checkMergeable verifies that every type present at the level still has
// at least two blocks, before any scaffold is built or scoring done.
func (m *Model) checkMergeable(blockLevel int) error {
	for typeIndex := 0; typeIndex < m.net.NumTypes(); typeIndex++ {
		count, err := m.net.NumNodesOfType(typeIndex, blockLevel)
		if err != nil {
			return err
		}
		if count > 0 && count < 2 {
			name, _ := m.net.TypeName(typeIndex)
			return CollapsibilityLimitError{Type: name, Blocks: count}
		}
	}
	return nil
}

// metagroupsToSearch returns the candidate metagroups for one block:
// every same-type metagroup in greedy mode, a fixed number of sampled
// proposals otherwise.
func (m *Model) metagroupsToSearch(block *network.Node, metaLevel int) ([]*network.Node, error) {
	if m.cfg.Greedy() {
		return m.net.NodesOfType(block.Type, metaLevel)
	}

	out := make([]*network.Node, 0, m.cfg.ChecksPerBlock())
	for i := 0; i < m.cfg.ChecksPerBlock(); i++ {
		metagroup, err := m.ProposeMove(block)
		if err != nil {
			return nil, err
		}
		out = append(out, metagroup)
	}
	return out, nil
}

// singleChild resolves the lone member of a singleton metagroup.
func (m *Model) singleChild(metagroup *network.Node) (*network.Node, error) {
	for id := range metagroup.Children {
		return m.net.NodeByID(metagroup.Level-1, id)
	}
	return nil, network.LogicError{Op: "agglomerative merge", Reason: fmt.Sprintf(
		"metagroup %q has no members", metagroup.ID)}
}
