// Package service holds the in-memory dataset registry and the background
// job runner driving the inference engine.
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/blockmodel/sbm-inference-service/pkg/models"
	"github.com/blockmodel/sbm-inference-service/pkg/network"
)

// DatasetService keeps uploaded graphs in memory.
type DatasetService struct {
	mu       sync.RWMutex
	datasets map[string]*models.Dataset
}

// NewDatasetService creates an empty registry.
func NewDatasetService() *DatasetService {
	return &DatasetService{datasets: make(map[string]*models.Dataset)}
}

// Create validates and registers an uploaded graph. The upload is built
// into a network once to catch bad references early.
func (s *DatasetService) Create(upload models.GraphUpload) (*models.Dataset, error) {
	if len(upload.Nodes) == 0 {
		return nil, models.ValidationError{Field: "nodes", Message: "dataset needs at least one node"}
	}
	if _, err := buildNetwork(upload); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	name := upload.Name
	if name == "" {
		name = "Unnamed Dataset"
	}

	dataset := &models.Dataset{
		ID:        uuid.New().String(),
		Name:      name,
		Types:     upload.Types,
		NumNodes:  len(upload.Nodes),
		NumEdges:  len(upload.Edges),
		CreatedAt: time.Now(),
		Upload:    upload,
	}

	s.mu.Lock()
	s.datasets[dataset.ID] = dataset
	s.mu.Unlock()

	log.Info().
		Str("dataset_id", dataset.ID).
		Str("name", dataset.Name).
		Int("nodes", dataset.NumNodes).
		Int("edges", dataset.NumEdges).
		Msg("Dataset registered")

	return dataset, nil
}

// Get retrieves a dataset by id.
func (s *DatasetService) Get(id string) (*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dataset, exists := s.datasets[id]
	if !exists {
		return nil, fmt.Errorf("dataset not found: %s", id)
	}
	return dataset, nil
}

// List returns all registered datasets.
func (s *DatasetService) List() []*models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Dataset, 0, len(s.datasets))
	for _, d := range s.datasets {
		out = append(out, d)
	}
	return out
}

// Delete removes a dataset.
func (s *DatasetService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[id]; !exists {
		return fmt.Errorf("dataset not found: %s", id)
	}
	delete(s.datasets, id)
	return nil
}

// BuildNetwork constructs a fresh hierarchy from a dataset. Every job gets
// its own instance since inference mutates the network in place.
func (s *DatasetService) BuildNetwork(id string) (*network.Network, error) {
	dataset, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return buildNetwork(dataset.Upload)
}

func buildNetwork(upload models.GraphUpload) (*network.Network, error) {
	net := network.New(upload.Types...)
	defaultType := net.Types()[0]
	for _, n := range upload.Nodes {
		typeName := n.Type
		if typeName == "" {
			typeName = defaultType
		}
		if _, err := net.AddNode(n.ID, typeName, 0); err != nil {
			return nil, err
		}
	}
	for _, e := range upload.Edges {
		if err := net.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	return net, nil
}
