package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/blockmodel/sbm-inference-service/pkg/models"
	"github.com/blockmodel/sbm-inference-service/pkg/service"
)

// Handlers contains HTTP request handlers
type Handlers struct {
	datasetService *service.DatasetService
	jobService     *service.JobService
}

// NewHandlers creates new API handlers
func NewHandlers(datasetService *service.DatasetService, jobService *service.JobService) *Handlers {
	return &Handlers{
		datasetService: datasetService,
		jobService:     jobService,
	}
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Service is healthy", map[string]string{"status": "ok"})
}

// CreateDataset registers an uploaded graph
func (h *Handlers) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var upload models.GraphUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dataset, err := h.datasetService.Create(upload)
	if err != nil {
		log.Error().Err(err).Msg("Dataset registration failed")
		WriteErrorResponse(w, http.StatusBadRequest, "Dataset registration failed", err)
		return
	}

	WriteSuccessResponse(w, "Dataset registered successfully", dataset)
}

// ListDatasets lists all datasets
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := h.datasetService.List()
	WriteSuccessResponse(w, "Datasets retrieved successfully", datasets)
}

// GetDataset retrieves a specific dataset
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	datasetID := vars["datasetId"]

	dataset, err := h.datasetService.Get(datasetID)
	if err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "Dataset not found", err)
		return
	}

	WriteSuccessResponse(w, "Dataset retrieved successfully", dataset)
}

// DeleteDataset deletes a dataset
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	datasetID := vars["datasetId"]

	if err := h.datasetService.Delete(datasetID); err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "Dataset deletion failed", err)
		return
	}

	WriteSuccessResponse(w, "Dataset deleted successfully", nil)
}

// StartCollapse queues a collapse job for a dataset
func (h *Handlers) StartCollapse(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	datasetID := vars["datasetId"]

	var params models.JobParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.jobService.Submit(datasetID, params)
	if err != nil {
		log.Error().
			Str("dataset_id", datasetID).
			Err(err).
			Msg("Job submission failed")
		WriteErrorResponse(w, http.StatusBadRequest, "Job submission failed", err)
		return
	}

	WriteSuccessResponse(w, "Job submitted successfully", job)
}

// GetJob retrieves job status
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "Job not found", err)
		return
	}

	WriteSuccessResponse(w, "Job retrieved successfully", job)
}

// GetJobResult retrieves the trajectory and final fit of a completed job
func (h *Handlers) GetJobResult(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]

	result, err := h.jobService.Result(jobID)
	if err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "Result not available", err)
		return
	}

	WriteSuccessResponse(w, "Result retrieved successfully", result)
}

// GetJobState retrieves the final hierarchy assignment of a completed job
func (h *Handlers) GetJobState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]

	result, err := h.jobService.Result(jobID)
	if err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "Result not available", err)
		return
	}

	WriteSuccessResponse(w, "State retrieved successfully", result.FinalState)
}

// BlockGraphEdge is one aggregated edge between blocks.
type BlockGraphEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// BlockGraphResponse is the aggregated block-level graph of a fitted
// hierarchy at one level.
type BlockGraphResponse struct {
	Level  int              `json:"level"`
	Blocks []string         `json:"blocks"`
	Edges  []BlockGraphEdge `json:"edges"`
}

// GetBlockGraph returns the aggregated graph between blocks at a level of
// the fitted hierarchy. Level defaults to 1, the first block level.
func (h *Handlers) GetBlockGraph(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]

	level := 1
	if raw := r.URL.Query().Get("level"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "Invalid level parameter", err)
			return
		}
		level = parsed
	}

	result, err := h.jobService.Result(jobID)
	if err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "Result not available", err)
		return
	}

	g, ids, err := result.Network.BlockGraph(level)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Block graph unavailable", err)
		return
	}

	response := BlockGraphResponse{Level: level}
	for _, id := range ids {
		response.Blocks = append(response.Blocks, id)
	}
	sort.Strings(response.Blocks)

	edges := g.WeightedEdges()
	for edges.Next() {
		e := edges.WeightedEdge()
		response.Edges = append(response.Edges, BlockGraphEdge{
			From:   ids[e.From().ID()],
			To:     ids[e.To().ID()],
			Weight: e.Weight(),
		})
	}

	WriteSuccessResponse(w, "Block graph retrieved successfully", response)
}
