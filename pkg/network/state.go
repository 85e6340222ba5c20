package network

import (
	"fmt"
	"sort"
)

// StateRecord describes one node's place in the hierarchy: its id, type
// name, level, and the id of its parent block ("" at the top). A dump of
// records for every level below the topmost, together with the level-0
// data, is enough to rebuild the full hierarchy.
type StateRecord struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Parent string `json:"parent"`
	Level  int    `json:"level"`
}

// ExportState dumps the current hierarchy. Nodes of the topmost level are
// not listed directly; they appear in the parent slots of the level below.
// Records are ordered by level then id.
func (net *Network) ExportState() ([]StateRecord, error) {
	if len(net.levels) < 2 {
		return nil, LogicError{Op: "export state", Reason: "no block structure to export"}
	}

	var records []StateRecord
	for level := 0; level < len(net.levels)-1; level++ {
		nodes, err := net.NodesAtLevel(level)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			records = append(records, StateRecord{
				ID:     n.ID,
				Type:   net.types[n.Type],
				Parent: n.Parent,
				Level:  level,
			})
		}
	}
	return records, nil
}

// ImportState rebuilds the block structure from a state dump. Existing
// block levels are discarded first. Level-0 records must reference nodes
// already present; block and parent nodes are created on demand. The
// import finishes with an empty-block purge, so re-importing an exported
// dump reproduces the hierarchy exactly.
func (net *Network) ImportState(records []StateRecord) error {
	net.resetBlockLevels(0)

	sorted := make([]StateRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Level != sorted[j].Level {
			return sorted[i].Level < sorted[j].Level
		}
		return sorted[i].ID < sorted[j].ID
	})

	for _, rec := range sorted {
		typeIndex, err := net.TypeIndex(rec.Type)
		if err != nil {
			return err
		}

		child, err := net.acquireNode(rec.ID, typeIndex, rec.Level, rec.Level == 0)
		if err != nil {
			return err
		}
		if rec.Parent == "" {
			continue
		}
		parent, err := net.acquireNode(rec.Parent, typeIndex, rec.Level+1, false)
		if err != nil {
			return err
		}
		if err := net.SetParent(child, parent); err != nil {
			return err
		}
	}

	net.PurgeEmptyBlocks()
	return nil
}

// acquireNode finds a node, creating it when allowed. Level-0 nodes must
// already exist since the state dump does not carry edges.
func (net *Network) acquireNode(id string, typeIndex, level int, mustExist bool) (*Node, error) {
	net.ensureLevel(level)
	if n := net.nodeAt(level, id); n != nil {
		return n, nil
	}
	if mustExist {
		return nil, LogicError{Op: "import state", Reason: fmt.Sprintf("node %q in state is not present in network", id)}
	}
	return net.addNode(id, typeIndex, level)
}
