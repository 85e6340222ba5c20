package sbm

import (
	"reflect"
	"testing"
)

// TestSweepSingleBlockNeverMoves: with one block per type every proposal
// equals the current block and is skipped without scoring, so a sweep can
// never move anything.
func TestSweepSingleBlockNeverMoves(t *testing.T) {
	net := twoTriangles(t)
	assignBlocks(t, net, []string{"a", "b", "c", "d", "e", "f"})
	m := New(net, testConfig(1))

	result, err := m.Sweep(0, false)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(result.Moved) != 0 {
		t.Errorf("expected no moves with a single block, got %v", result.Moved)
	}
	if result.EntropyDelta != 0 {
		t.Errorf("expected zero delta, got %f", result.EntropyDelta)
	}
}

func TestSweepWithoutBlocksFails(t *testing.T) {
	net := twoTriangles(t)
	m := New(net, testConfig(1))
	if _, err := m.Sweep(0, false); err == nil {
		t.Error("expected error sweeping before block initialization")
	}
}

// TestSweepDeterministic: identical seeds must produce identical move
// sequences across independent runs.
func TestSweepDeterministic(t *testing.T) {
	run := func() [][]string {
		net := twoTriangles(t)
		m := New(net, testConfig(99))
		if err := m.InitializeBlocks(0, 2); err != nil {
			t.Fatal(err)
		}
		var moves [][]string
		for i := 0; i < 5; i++ {
			result, err := m.Sweep(0, false)
			if err != nil {
				t.Fatalf("Sweep %d: %v", i, err)
			}
			moves = append(moves, result.Moved)
		}
		return moves
	}

	if first, second := run(), run(); !reflect.DeepEqual(first, second) {
		t.Errorf("sweeps diverged for identical seeds:\n%v\n%v", first, second)
	}
}

// TestSweepKeepsInvariants runs fixed and variable block-count sweeps and
// checks the degree and forest invariants after each.
func TestSweepKeepsInvariants(t *testing.T) {
	tests := []struct {
		name           string
		variableBlocks bool
	}{
		{name: "fixed block count", variableBlocks: false},
		{name: "variable block count", variableBlocks: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := twoTriangles(t)
			m := New(net, testConfig(7))
			if err := m.InitializeBlocks(0, 2); err != nil {
				t.Fatal(err)
			}

			for i := 0; i < 10; i++ {
				if _, err := m.Sweep(0, tt.variableBlocks); err != nil {
					t.Fatalf("Sweep %d: %v", i, err)
				}
				checkModelInvariants(t, m)
			}
		})
	}
}

// TestSweepVariableBlocksProvisions: after a dynamic sweep there is always
// at least one empty block available as an escape hatch.
func TestSweepVariableBlocksProvisions(t *testing.T) {
	net := twoTriangles(t)
	m := New(net, testConfig(13))
	if err := m.InitializeBlocks(0, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Sweep(0, true); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	blocks, err := net.NodesAtLevel(1)
	if err != nil {
		t.Fatal(err)
	}
	empty := 0
	for _, b := range blocks {
		if b.NumChildren() == 0 {
			empty++
		}
	}
	if empty != 1 {
		t.Errorf("expected exactly one provisioned empty block, got %d", empty)
	}
}

// checkModelInvariants verifies degree sums and parent chains across the
// whole hierarchy.
func checkModelInvariants(t *testing.T, m *Model) {
	t.Helper()
	net := m.Network()
	for level := 0; level < net.NumLevels(); level++ {
		nodes, err := net.NodesAtLevel(level)
		if err != nil {
			t.Fatal(err)
		}
		for _, n := range nodes {
			if level == 0 {
				sum := 0
				for _, mult := range n.Edges {
					sum += mult
				}
				if n.Degree != sum {
					t.Errorf("node %q degree %d != adjacency sum %d", n.ID, n.Degree, sum)
				}
			} else {
				sum := 0
				for childID := range n.Children {
					child, err := net.NodeByID(level-1, childID)
					if err != nil {
						t.Fatalf("block %q references missing child %q", n.ID, childID)
					}
					sum += child.Degree
				}
				if n.Degree != sum {
					t.Errorf("block %q degree %d != children sum %d", n.ID, n.Degree, sum)
				}
			}
			if n.HasParent() {
				if _, err := net.NodeByID(level+1, n.Parent); err != nil {
					t.Errorf("node %q has dangling parent %q", n.ID, n.Parent)
				}
			}
		}
	}
}
