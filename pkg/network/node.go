package network

// Node is a single entity in the hierarchy. Level 0 nodes are the observed
// data; nodes at higher levels are inferred blocks. Relations are stored as
// id references resolved through the owning network's per-level tables, so
// a node on its own is just a record.
type Node struct {
	ID       string
	Type     int
	Level    int
	Degree   int
	Parent   string              // id at Level+1, "" when the node has no parent
	Children map[string]struct{} // ids at Level-1
	Edges    map[string]int      // same-level neighbor id -> edge multiplicity
}

func newNode(id string, typeIndex, level int) *Node {
	return &Node{
		ID:       id,
		Type:     typeIndex,
		Level:    level,
		Children: make(map[string]struct{}),
		Edges:    make(map[string]int),
	}
}

// HasParent reports whether the node is assigned to a block one level up.
func (n *Node) HasParent() bool {
	return n.Parent != ""
}

// NumChildren returns the number of members one level down.
func (n *Node) NumChildren() int {
	return len(n.Children)
}
