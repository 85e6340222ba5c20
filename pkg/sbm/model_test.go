package sbm

import (
	"testing"

	"github.com/blockmodel/sbm-inference-service/pkg/network"
)

// testConfig returns a quiet deterministic configuration.
func testConfig(seed int64) *Config {
	cfg := NewConfig()
	cfg.Set("logging.level", "disabled")
	cfg.Set("mcmc.random_seed", seed)
	return cfg
}

// twoTriangles builds six same-type nodes forming two disjoint triangles:
// a-b-c and d-e-f.
func twoTriangles(t *testing.T) *network.Network {
	t.Helper()
	net := network.New("node")
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		if _, err := net.AddNode(id, "node", 0); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range [][2]string{
		{"a", "b"}, {"b", "c"}, {"a", "c"},
		{"d", "e"}, {"e", "f"}, {"d", "f"},
	} {
		if err := net.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return net
}

// assignBlocks creates one block per member list at level 1 and assigns
// the named nodes to it.
func assignBlocks(t *testing.T, net *network.Network, groups ...[]string) []*network.Node {
	t.Helper()
	blocks := make([]*network.Node, len(groups))
	for i, members := range groups {
		first, err := net.NodeByID(0, members[0])
		if err != nil {
			t.Fatal(err)
		}
		block, err := net.CreateBlock(first.Type, 1)
		if err != nil {
			t.Fatalf("CreateBlock: %v", err)
		}
		blocks[i] = block
		for _, id := range members {
			n, err := net.NodeByID(0, id)
			if err != nil {
				t.Fatal(err)
			}
			if err := net.SetParent(n, block); err != nil {
				t.Fatalf("SetParent(%q): %v", id, err)
			}
		}
	}
	return blocks
}
