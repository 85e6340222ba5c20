package service

import (
	"testing"

	"github.com/blockmodel/sbm-inference-service/pkg/models"
)

func sampleUpload() models.GraphUpload {
	return models.GraphUpload{
		Name:  "path",
		Types: []string{"left", "right"},
		Nodes: []models.GraphNode{
			{ID: "l1", Type: "left"},
			{ID: "l2", Type: "left"},
			{ID: "r1", Type: "right"},
		},
		Edges: [][2]string{{"l1", "r1"}, {"l2", "r1"}},
	}
}

func TestCreateValidatesUpload(t *testing.T) {
	s := NewDatasetService()

	if _, err := s.Create(models.GraphUpload{}); err == nil {
		t.Error("expected error for empty upload")
	}

	bad := sampleUpload()
	bad.Edges = append(bad.Edges, [2]string{"l1", "ghost"})
	if _, err := s.Create(bad); err == nil {
		t.Error("expected error for edge to unknown node")
	}

	dup := sampleUpload()
	dup.Nodes = append(dup.Nodes, models.GraphNode{ID: "l1", Type: "left"})
	if _, err := s.Create(dup); err == nil {
		t.Error("expected error for duplicate node id")
	}
}

func TestBuildNetworkIsolation(t *testing.T) {
	s := NewDatasetService()
	dataset, err := s.Create(sampleUpload())
	if err != nil {
		t.Fatal(err)
	}

	first, err := s.BuildNetwork(dataset.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.BuildNetwork(dataset.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("expected distinct network instances")
	}

	// Mutating one build must not leak into the next.
	if _, err := first.CreateBlock(0, 1); err != nil {
		t.Fatal(err)
	}
	if second.NumLevels() != 1 {
		t.Errorf("second build has %d levels, want 1", second.NumLevels())
	}
}

func TestUntypedNodesUseDefaultType(t *testing.T) {
	s := NewDatasetService()
	upload := models.GraphUpload{
		Nodes: []models.GraphNode{{ID: "a"}, {ID: "b"}},
		Edges: [][2]string{{"a", "b"}},
	}
	dataset, err := s.Create(upload)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	net, err := s.BuildNetwork(dataset.ID)
	if err != nil {
		t.Fatal(err)
	}
	n, err := net.NodeByID(0, "a")
	if err != nil {
		t.Fatal(err)
	}
	name, err := net.TypeName(n.Type)
	if err != nil {
		t.Fatal(err)
	}
	if name != "node" {
		t.Errorf("default type = %q, want %q", name, "node")
	}
}
