// Package network owns the multi-type, multi-level node hierarchy the SBM
// engine operates on. Level 0 holds the observed nodes and edges; higher
// levels hold inferred blocks. The network tracks per-type-per-level counts
// incrementally and keeps every node's degree equal to the sum of its edge
// multiplicities (for data nodes) or of its children's degrees (for blocks).
package network

import (
	"fmt"
	"sort"

	"github.com/blockmodel/sbm-inference-service/pkg/sampler"
)

// Network is the arena for all nodes and blocks. It is not safe for
// concurrent use: sweeps and merges mutate it in place.
type Network struct {
	types     []string
	typeIndex map[string]int
	levels    []map[string]*Node
	counts    [][]int // counts[level][typeIndex]
	blockSeq  int
}

// New creates a network with the given node types and an empty data level.
// With no types given a single type "node" is assumed.
func New(types ...string) *Network {
	if len(types) == 0 {
		types = []string{"node"}
	}
	net := &Network{
		types:     types,
		typeIndex: make(map[string]int, len(types)),
	}
	for i, name := range types {
		net.typeIndex[name] = i
	}
	net.ensureLevel(0)
	return net
}

// Types returns the declared type names in index order.
func (net *Network) Types() []string {
	out := make([]string, len(net.types))
	copy(out, net.types)
	return out
}

// NumTypes returns the number of declared node types.
func (net *Network) NumTypes() int { return len(net.types) }

// NumLevels returns the number of levels, including level 0.
func (net *Network) NumLevels() int { return len(net.levels) }

// TypeIndex resolves a type name to its index.
func (net *Network) TypeIndex(name string) (int, error) {
	i, ok := net.typeIndex[name]
	if !ok {
		return 0, LogicError{Op: "type lookup", Reason: fmt.Sprintf("type %q does not exist in network", name)}
	}
	return i, nil
}

// TypeName returns the name for a type index.
func (net *Network) TypeName(typeIndex int) (string, error) {
	if err := net.checkType(typeIndex); err != nil {
		return "", err
	}
	return net.types[typeIndex], nil
}

func (net *Network) checkLevel(level int) error {
	if level < 0 || level >= len(net.levels) {
		return RangeError{What: "level", Requested: level, Limit: len(net.levels)}
	}
	return nil
}

func (net *Network) checkType(typeIndex int) error {
	if typeIndex < 0 || typeIndex >= len(net.types) {
		return RangeError{What: "type", Requested: typeIndex, Limit: len(net.types)}
	}
	return nil
}

// ensureLevel grows the level table so that the given level exists.
func (net *Network) ensureLevel(level int) {
	for len(net.levels) <= level {
		net.levels = append(net.levels, make(map[string]*Node))
		net.counts = append(net.counts, make([]int, len(net.types)))
	}
}

// nodeAt returns the node with the given id at a level, or nil.
func (net *Network) nodeAt(level int, id string) *Node {
	if level < 0 || level >= len(net.levels) {
		return nil
	}
	return net.levels[level][id]
}

// NodeByID fetches a node by id and level.
func (net *Network) NodeByID(level int, id string) (*Node, error) {
	if err := net.checkLevel(level); err != nil {
		return nil, err
	}
	n := net.levels[level][id]
	if n == nil {
		return nil, LogicError{Op: "node lookup", Reason: fmt.Sprintf("node %q not found at level %d", id, level)}
	}
	return n, nil
}

// AddNode adds a node with an explicit id at a level. The level is created
// if it does not exist yet.
func (net *Network) AddNode(id, typeName string, level int) (*Node, error) {
	typeIndex, err := net.TypeIndex(typeName)
	if err != nil {
		return nil, err
	}
	return net.addNode(id, typeIndex, level)
}

func (net *Network) addNode(id string, typeIndex, level int) (*Node, error) {
	if level < 0 {
		return nil, RangeError{What: "level", Requested: level, Limit: len(net.levels)}
	}
	net.ensureLevel(level)
	if _, exists := net.levels[level][id]; exists {
		return nil, LogicError{Op: "add node", Reason: fmt.Sprintf("node %q already exists at level %d", id, level)}
	}
	n := newNode(id, typeIndex, level)
	net.levels[level][id] = n
	net.counts[level][typeIndex]++
	return n, nil
}

// CreateBlock creates a new auto-identified block at a level above 0.
func (net *Network) CreateBlock(typeIndex, level int) (*Node, error) {
	if err := net.checkType(typeIndex); err != nil {
		return nil, err
	}
	if level == 0 {
		return nil, LogicError{Op: "create block", Reason: "blocks cannot be created at the data level"}
	}
	id := fmt.Sprintf("%d-%d_%d", typeIndex, level, net.blockSeq)
	net.blockSeq++
	return net.addNode(id, typeIndex, level)
}

// AddEdge adds one unit of edge multiplicity between two level-0 nodes.
// Both endpoints' degrees, and the degrees of every block above them, are
// updated. Repeated calls raise the multiplicity.
func (net *Network) AddEdge(aID, bID string) error {
	if aID == bID {
		return LogicError{Op: "add edge", Reason: "self edges are not supported"}
	}
	a, err := net.NodeByID(0, aID)
	if err != nil {
		return err
	}
	b, err := net.NodeByID(0, bID)
	if err != nil {
		return err
	}

	a.Edges[bID]++
	b.Edges[aID]++
	net.bumpDegree(a, 1)
	net.bumpDegree(b, 1)
	return nil
}

// bumpDegree adds delta to a node's degree and to every ancestor's.
func (net *Network) bumpDegree(n *Node, delta int) {
	for cur := n; cur != nil; cur = net.parentOf(cur) {
		cur.Degree += delta
	}
}

func (net *Network) parentOf(n *Node) *Node {
	if n == nil || n.Parent == "" {
		return nil
	}
	return net.nodeAt(n.Level+1, n.Parent)
}

// AncestorAt follows parent links from a node up to the requested level.
// Returns nil when the chain ends before reaching it.
func (net *Network) AncestorAt(n *Node, level int) *Node {
	cur := n
	for cur != nil && cur.Level < level {
		cur = net.parentOf(cur)
	}
	if cur != nil && cur.Level == level {
		return cur
	}
	return nil
}

// SetParent assigns a node to a block one level up, detaching it from its
// previous block first. Degrees along both ancestor chains are kept
// consistent with the "block degree equals sum of child degrees" invariant.
func (net *Network) SetParent(child, parent *Node) error {
	if parent == nil {
		return LogicError{Op: "set parent", Reason: "parent is nil"}
	}
	if parent.Level != child.Level+1 {
		return LogicError{Op: "set parent", Reason: fmt.Sprintf(
			"parent %q at level %d cannot adopt node %q at level %d", parent.ID, parent.Level, child.ID, child.Level)}
	}
	if child.Parent == parent.ID {
		return nil
	}

	if old := net.parentOf(child); old != nil {
		net.bumpDegree(old, -child.Degree)
		delete(old.Children, child.ID)
	}

	child.Parent = parent.ID
	parent.Children[child.ID] = struct{}{}
	net.bumpDegree(parent, child.Degree)
	return nil
}

// NodesAtLevel returns every node at a level, sorted by id for
// deterministic iteration.
func (net *Network) NodesAtLevel(level int) ([]*Node, error) {
	if err := net.checkLevel(level); err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(net.levels[level]))
	for _, n := range net.levels[level] {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// nodesFromLevel returns nodes at a level filtered on type membership.
// matchType selects nodes of the type; otherwise nodes not of the type.
func (net *Network) nodesFromLevel(typeIndex, level int, matchType bool) ([]*Node, error) {
	if err := net.checkType(typeIndex); err != nil {
		return nil, err
	}
	all, err := net.NodesAtLevel(level)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, LogicError{Op: "level scan", Reason: fmt.Sprintf("level %d has no nodes", level)}
	}
	out := make([]*Node, 0, len(all))
	for _, n := range all {
		if (n.Type == typeIndex) == matchType {
			out = append(out, n)
		}
	}
	return out, nil
}

// NodesOfType returns every node of a type at a level, sorted by id.
func (net *Network) NodesOfType(typeIndex, level int) ([]*Node, error) {
	return net.nodesFromLevel(typeIndex, level, true)
}

// NodesNotOfType returns every node not of a type at a level, sorted by id.
func (net *Network) NodesNotOfType(typeIndex, level int) ([]*Node, error) {
	return net.nodesFromLevel(typeIndex, level, false)
}

// NumNodesAtLevel returns how many nodes a level holds.
func (net *Network) NumNodesAtLevel(level int) (int, error) {
	if err := net.checkLevel(level); err != nil {
		return 0, err
	}
	return len(net.levels[level]), nil
}

// NumNodesOfType returns the tracked count of nodes of a type at a level.
func (net *Network) NumNodesOfType(typeIndex, level int) (int, error) {
	if err := net.checkLevel(level); err != nil {
		return 0, err
	}
	if err := net.checkType(typeIndex); err != nil {
		return 0, err
	}
	return net.counts[level][typeIndex], nil
}

// ConnectionsToLevel aggregates a node's edge multiplicities, mapping every
// neighbor to its ancestor at the target level. For blocks this aggregates
// over all level-0 descendants, so a block's view of its neighbor blocks is
// always derived from the observed edges.
func (net *Network) ConnectionsToLevel(n *Node, target int) (map[string]int, error) {
	if err := net.checkLevel(target); err != nil {
		return nil, err
	}
	out := make(map[string]int)
	net.gatherConnections(n, target, out)
	return out, nil
}

func (net *Network) gatherConnections(n *Node, target int, out map[string]int) {
	if n.Level == 0 {
		for nbID, mult := range n.Edges {
			nb := net.nodeAt(0, nbID)
			if anc := net.AncestorAt(nb, target); anc != nil {
				out[anc.ID] += mult
			}
		}
		return
	}
	for childID := range n.Children {
		if child := net.nodeAt(n.Level-1, childID); child != nil {
			net.gatherConnections(child, target, out)
		}
	}
}

// resetBlockLevels drops every level above the given one and clears the
// parent assignment of the nodes that remain on top.
func (net *Network) resetBlockLevels(level int) {
	if level+1 >= len(net.levels) {
		return
	}
	for _, n := range net.levels[level] {
		n.Parent = ""
	}
	net.levels = net.levels[:level+1]
	net.counts = net.counts[:level+1]
}

// InitializeBlocks builds a fresh block level above the given one and
// assigns membership. numBlocks < 0 gives every node its own block;
// otherwise numBlocks blocks per type are created and nodes are dealt to
// them in shuffled round-robin order. Any block structure above the level
// is discarded.
func (net *Network) InitializeBlocks(level, numBlocks int, smp *sampler.Sampler) error {
	if err := net.checkLevel(level); err != nil {
		return err
	}
	if len(net.levels[level]) == 0 {
		return LogicError{Op: "initialize blocks", Reason: fmt.Sprintf("level %d has no nodes", level)}
	}
	if numBlocks == 0 {
		return LogicError{Op: "initialize blocks", Reason: "zero blocks requested"}
	}

	net.resetBlockLevels(level)
	blockLevel := level + 1
	net.ensureLevel(blockLevel)

	for typeIndex := range net.types {
		nodes, err := net.NodesOfType(typeIndex, level)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			continue
		}

		perType := numBlocks
		if perType < 0 {
			perType = len(nodes)
		}
		if perType > len(nodes) {
			return LogicError{Op: "initialize blocks", Reason: fmt.Sprintf(
				"cannot create %d blocks for %d nodes of type %q", perType, len(nodes), net.types[typeIndex])}
		}

		blocks := make([]*Node, perType)
		for i := range blocks {
			block, err := net.CreateBlock(typeIndex, blockLevel)
			if err != nil {
				return err
			}
			blocks[i] = block
		}

		// Random assignment only matters when nodes outnumber blocks.
		if numBlocks > 0 {
			smp.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
		}
		for i, n := range nodes {
			if err := net.SetParent(n, blocks[i%perType]); err != nil {
				return err
			}
		}
	}
	return nil
}

// PurgeEmptyBlocks removes every block with no children across all block
// levels. Removal is collected per level and applied afterward; since
// levels are scanned bottom-up, a block emptied by a lower-level removal is
// caught in the same pass.
func (net *Network) PurgeEmptyBlocks() []string {
	var removed []string
	for level := 1; level < len(net.levels); level++ {
		var doomed []string
		for id, block := range net.levels[level] {
			if len(block.Children) == 0 {
				doomed = append(doomed, id)
			}
		}
		sort.Strings(doomed)
		for _, id := range doomed {
			block := net.levels[level][id]
			if parent := net.parentOf(block); parent != nil {
				delete(parent.Children, id)
			}
			delete(net.levels[level], id)
			net.counts[level][block.Type]--
			removed = append(removed, id)
		}
	}
	return removed
}

// RemoveTopLevel tears down the highest level, clearing the parent
// assignment of the level below. Used to discard temporary scaffolding.
func (net *Network) RemoveTopLevel() error {
	top := len(net.levels) - 1
	if top == 0 {
		return LogicError{Op: "remove level", Reason: "no block level to remove"}
	}
	net.resetBlockLevels(top - 1)
	return nil
}
