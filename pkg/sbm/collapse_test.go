package sbm

import (
	"errors"
	"testing"

	"github.com/blockmodel/sbm-inference-service/pkg/network"
)

func TestCollapseReachesTarget(t *testing.T) {
	net := twoTriangles(t)
	m := New(net, testConfig(29))

	trajectory, err := m.Collapse(0, 0, 2)
	if err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	if len(trajectory) == 0 {
		t.Fatal("expected a non-empty trajectory")
	}

	// Reported pre-round counts are non-increasing and start at one block
	// per node.
	if trajectory[0].NumBlocks != 6 {
		t.Errorf("first round started with %d blocks, want 6", trajectory[0].NumBlocks)
	}
	for i := 1; i < len(trajectory); i++ {
		if trajectory[i].NumBlocks > trajectory[i-1].NumBlocks {
			t.Errorf("block count increased between rounds: %d -> %d",
				trajectory[i-1].NumBlocks, trajectory[i].NumBlocks)
		}
	}

	final, err := net.NumNodesAtLevel(1)
	if err != nil {
		t.Fatal(err)
	}
	if final != 2 {
		t.Errorf("expected 2 blocks after collapse, got %d", final)
	}

	// Every round carries a usable snapshot.
	for i, step := range trajectory {
		if len(step.State) == 0 {
			t.Errorf("round %d has an empty state snapshot", i)
		}
	}
	checkModelInvariants(t, m)
}

func TestCollapseWithEquilibration(t *testing.T) {
	net := twoTriangles(t)
	m := New(net, testConfig(31))

	trajectory, err := m.Collapse(0, 2, 2)
	if err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	if len(trajectory) == 0 {
		t.Fatal("expected a non-empty trajectory")
	}

	// Equilibration sweeps may empty blocks beyond the merge schedule, so
	// the final count can land at or below the target, never above.
	final, err := net.NumNodesAtLevel(1)
	if err != nil {
		t.Fatal(err)
	}
	if final > 2 {
		t.Errorf("expected at most 2 blocks after collapse, got %d", final)
	}
	checkModelInvariants(t, m)
}

// TestCollapseStopsAtLimit: a type that starts with a single block makes
// the first merge round fail; collapse returns the partial trajectory
// instead of an error, leaving more blocks than the target.
func TestCollapseStopsAtLimit(t *testing.T) {
	net := network.New("left", "right")
	for _, id := range []string{"l1", "l2"} {
		if _, err := net.AddNode(id, "left", 0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := net.AddNode("r1", "right", 0); err != nil {
		t.Fatal(err)
	}
	for _, e := range [][2]string{{"l1", "r1"}, {"l2", "r1"}} {
		if err := net.AddEdge(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}

	m := New(net, testConfig(37))
	trajectory, err := m.Collapse(0, 0, 1)
	if err != nil {
		t.Fatalf("expected recovered limit, got error: %v", err)
	}
	if len(trajectory) != 0 {
		t.Errorf("expected empty trajectory at immediate limit, got %d rounds", len(trajectory))
	}

	final, err := net.NumNodesAtLevel(1)
	if err != nil {
		t.Fatal(err)
	}
	if final <= 1 {
		t.Errorf("limit should leave more blocks than the target, got %d", final)
	}
}

func TestCollapseInvalidTarget(t *testing.T) {
	net := twoTriangles(t)
	m := New(net, testConfig(1))

	var logicErr network.LogicError
	if _, err := m.Collapse(0, 0, 0); !errors.As(err, &logicErr) {
		t.Errorf("expected LogicError for target 0, got %v", err)
	}
}

// TestCollapseSnapshotRoundTrip: the snapshot of the last round rebuilds
// the final hierarchy when imported into a fresh network.
func TestCollapseSnapshotRoundTrip(t *testing.T) {
	net := twoTriangles(t)
	m := New(net, testConfig(41))

	trajectory, err := m.Collapse(0, 0, 2)
	if err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	last := trajectory[len(trajectory)-1]

	finalState, err := net.ExportState()
	if err != nil {
		t.Fatal(err)
	}

	fresh := twoTriangles(t)
	if err := fresh.ImportState(last.State); err != nil {
		t.Fatalf("ImportState: %v", err)
	}
	reExported, err := fresh.ExportState()
	if err != nil {
		t.Fatal(err)
	}
	if len(reExported) != len(finalState) {
		t.Errorf("snapshot rebuild has %d records, want %d", len(reExported), len(finalState))
	}
}
