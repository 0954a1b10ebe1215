package routes

import (
	"ml-dashboard/api/rest/handlers"
	"ml-dashboard/core/jobcontrol"
	"ml-dashboard/core/monitoring"
	"ml-dashboard/core/repository"
	"ml-dashboard/core/tracker"
	"ml-dashboard/core/transport"
	"ml-dashboard/storage"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	r *mux.Router,
	trk *tracker.Tracker,
	control jobcontrol.Client,
	supervisor *transport.Supervisor,
	db *repository.DB,
	usage *monitoring.UsageTracker,
	metrics *monitoring.MetricsExporter,
) {
	jobRepo := repository.NewJobRepository(db)
	transitionRepo := repository.NewTransitionRepository(db)
	checkpointRepo := repository.NewCheckpointRepository(db)
	checkpointStore := storage.NewCheckpointStore(checkpointRepo)

	jobHandler := handlers.NewJobHandler(trk, control, supervisor, jobRepo, transitionRepo, checkpointStore, usage)
	dashboardHandler := handlers.NewDashboardHandler(trk, usage, metrics)

	api := r.PathPrefix("/v1").Subrouter()

	// Job endpoints
	api.HandleFunc("/jobs", jobHandler.SubmitJob).Methods("POST")
	api.HandleFunc("/jobs", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobHandler.DeleteJob).Methods("DELETE")
	api.HandleFunc("/jobs/{id}/pause", jobHandler.PauseJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/resume", jobHandler.ResumeJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/stop", jobHandler.StopJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/reset", jobHandler.ResetJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/transitions", jobHandler.GetJobTransitions).Methods("GET")
	api.HandleFunc("/jobs/{id}/checkpoints", jobHandler.GetJobCheckpoints).Methods("GET")

	// Dashboard endpoints
	api.HandleFunc("/dashboard/summary", dashboardHandler.GetSummary).Methods("GET")
	api.HandleFunc("/models", dashboardHandler.GetModels).Methods("GET")

	// Prometheus scrape endpoint
	r.HandleFunc("/metrics", dashboardHandler.GetMetrics).Methods("GET")
}
