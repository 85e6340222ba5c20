package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes wires the REST endpoints onto a router.
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Dataset management endpoints
	datasets := api.PathPrefix("/datasets").Subrouter()
	datasets.HandleFunc("", handlers.ListDatasets).Methods("GET")
	datasets.HandleFunc("", handlers.CreateDataset).Methods("POST")
	datasets.HandleFunc("/{datasetId}", handlers.GetDataset).Methods("GET")
	datasets.HandleFunc("/{datasetId}", handlers.DeleteDataset).Methods("DELETE")

	// Inference endpoint
	datasets.HandleFunc("/{datasetId}/collapse", handlers.StartCollapse).Methods("POST")

	// Job endpoints
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}/result", handlers.GetJobResult).Methods("GET")
	jobs.HandleFunc("/{jobId}/state", handlers.GetJobState).Methods("GET")
	jobs.HandleFunc("/{jobId}/blockgraph", handlers.GetBlockGraph).Methods("GET")

	// Health check endpoint
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
}
