// Package models holds the API-facing data structures of the inference
// service: dataset uploads, jobs, and the response envelope.
package models

import (
	"fmt"
	"time"
)

// GraphNode is one observed node in an uploaded dataset.
type GraphNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// GraphUpload is the payload for registering a dataset: declared node
// types, typed nodes, and undirected edges by node id. Repeated edges
// raise the multiplicity.
type GraphUpload struct {
	Name  string      `json:"name"`
	Types []string    `json:"types"`
	Nodes []GraphNode `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// Dataset is a registered graph ready for inference jobs.
type Dataset struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Types     []string    `json:"types"`
	NumNodes  int         `json:"num_nodes"`
	NumEdges  int         `json:"num_edges"`
	CreatedAt time.Time   `json:"created_at"`
	Upload    GraphUpload `json:"-"`
}

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobParameters configures one collapse run. Zero values fall back to the
// engine defaults.
type JobParameters struct {
	TargetBlocks        int     `json:"target_blocks"`
	EquilibrationSweeps int     `json:"equilibration_sweeps"`
	RandomSeed          int64   `json:"random_seed"`
	Eps                 float64 `json:"eps"`
	Beta                float64 `json:"beta"`
	Sigma               float64 `json:"sigma"`
}

// Validate checks the parameter ranges a job can actually run with.
func (p JobParameters) Validate() error {
	if p.TargetBlocks < 1 {
		return ValidationError{Field: "target_blocks", Message: "must be at least 1"}
	}
	if p.EquilibrationSweeps < 0 {
		return ValidationError{Field: "equilibration_sweeps", Message: "must not be negative"}
	}
	if p.Eps < 0 || p.Beta < 0 || p.Sigma < 0 {
		return ValidationError{Field: "mcmc", Message: "eps, beta and sigma must not be negative"}
	}
	return nil
}

// Job is one queued or finished collapse run over a dataset.
type Job struct {
	ID         string        `json:"id"`
	DatasetID  string        `json:"dataset_id"`
	Parameters JobParameters `json:"parameters"`
	Status     JobStatus     `json:"status"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// APIResponse is the uniform JSON envelope for every endpoint.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ValidationError reports a structurally invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}
