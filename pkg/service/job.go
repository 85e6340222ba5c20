package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/blockmodel/sbm-inference-service/pkg/models"
	"github.com/blockmodel/sbm-inference-service/pkg/network"
	"github.com/blockmodel/sbm-inference-service/pkg/sbm"
)

// CollapseResult is the stored outcome of a finished job: the merge
// trajectory, the final fit, and the fitted network for follow-up queries.
type CollapseResult struct {
	Trajectory   []sbm.MergeStep       `json:"trajectory"`
	FinalEntropy float64               `json:"final_entropy"`
	FinalBlocks  int                   `json:"final_blocks"`
	FinalState   []network.StateRecord `json:"final_state"`
	RuntimeMS    int64                 `json:"runtime_ms"`
	Network      *network.Network      `json:"-"`
}

// JobService runs collapse jobs in the background, bounded by a worker
// semaphore, and keeps their results in memory.
type JobService struct {
	mu       sync.RWMutex
	jobs     map[string]*models.Job
	results  map[string]*CollapseResult
	workers  chan struct{}
	datasets *DatasetService
}

// NewJobService creates a job runner over a dataset registry.
func NewJobService(datasets *DatasetService, maxConcurrent int) *JobService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &JobService{
		jobs:     make(map[string]*models.Job),
		results:  make(map[string]*CollapseResult),
		workers:  make(chan struct{}, maxConcurrent),
		datasets: datasets,
	}
}

// Submit queues a new collapse job for a dataset.
func (s *JobService) Submit(datasetID string, params models.JobParameters) (*models.Job, error) {
	if _, err := s.datasets.Get(datasetID); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	now := time.Now()
	job := &models.Job{
		ID:         uuid.New().String(),
		DatasetID:  datasetID,
		Parameters: params,
		Status:     models.JobStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	log.Info().
		Str("job_id", job.ID).
		Str("dataset_id", datasetID).
		Int("target_blocks", params.TargetBlocks).
		Msg("Job submitted")

	go s.process(job.ID)

	return job, nil
}

// Get retrieves a job by id.
func (s *JobService) Get(jobID string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return job, nil
}

// Result retrieves the outcome of a completed job.
func (s *JobService) Result(jobID string) (*CollapseResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.results[jobID]
	if !exists {
		return nil, fmt.Errorf("result not found for job: %s", jobID)
	}
	return result, nil
}

func (s *JobService) setStatus(jobID string, status models.JobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, exists := s.jobs[jobID]; exists {
		job.Status = status
		job.Error = errMsg
		job.UpdatedAt = time.Now()
	}
}

// process runs one job to completion on a worker slot.
func (s *JobService) process(jobID string) {
	s.workers <- struct{}{}
	defer func() { <-s.workers }()

	job, err := s.Get(jobID)
	if err != nil {
		return
	}

	s.setStatus(jobID, models.JobStatusRunning, "")
	start := time.Now()

	result, err := s.run(job)
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Job failed")
		s.setStatus(jobID, models.JobStatusFailed, err.Error())
		return
	}
	result.RuntimeMS = time.Since(start).Milliseconds()

	s.mu.Lock()
	s.results[jobID] = result
	s.mu.Unlock()
	s.setStatus(jobID, models.JobStatusCompleted, "")

	log.Info().
		Str("job_id", jobID).
		Int("final_blocks", result.FinalBlocks).
		Float64("final_entropy", result.FinalEntropy).
		Int64("runtime_ms", result.RuntimeMS).
		Msg("Job completed")
}

// run builds a fresh network and model for the job and collapses it.
func (s *JobService) run(job *models.Job) (*CollapseResult, error) {
	net, err := s.datasets.BuildNetwork(job.DatasetID)
	if err != nil {
		return nil, err
	}

	cfg := sbm.NewConfig()
	params := job.Parameters
	if params.RandomSeed != 0 {
		cfg.Set("mcmc.random_seed", params.RandomSeed)
	}
	if params.Eps > 0 {
		cfg.Set("mcmc.eps", params.Eps)
	}
	if params.Beta > 0 {
		cfg.Set("mcmc.beta", params.Beta)
	}
	if params.Sigma > 0 {
		cfg.Set("merge.sigma", params.Sigma)
	}

	model := sbm.New(net, cfg)
	trajectory, err := model.Collapse(0, params.EquilibrationSweeps, params.TargetBlocks)
	if err != nil {
		return nil, fmt.Errorf("collapse failed: %w", err)
	}

	entropy, err := model.Entropy(0)
	if err != nil {
		return nil, err
	}
	blocks, err := net.NumNodesAtLevel(1)
	if err != nil {
		return nil, err
	}
	state, err := net.ExportState()
	if err != nil {
		return nil, err
	}

	return &CollapseResult{
		Trajectory:   trajectory,
		FinalEntropy: entropy,
		FinalBlocks:  blocks,
		FinalState:   state,
		Network:      net,
	}, nil
}
