package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ml-dashboard/core/jobcontrol"
	"ml-dashboard/core/models"
	"ml-dashboard/core/monitoring"
	"ml-dashboard/core/repository"
	"ml-dashboard/core/spec"
	"ml-dashboard/core/tracker"
	"ml-dashboard/core/transport"
	"ml-dashboard/storage"

	"github.com/gorilla/mux"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	tracker         *tracker.Tracker
	control         jobcontrol.Client
	supervisor      *transport.Supervisor
	jobRepo         *repository.JobRepository
	transitionRepo  *repository.TransitionRepository
	checkpointStore *storage.CheckpointStore
	usage           *monitoring.UsageTracker
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	trk *tracker.Tracker,
	control jobcontrol.Client,
	supervisor *transport.Supervisor,
	jobRepo *repository.JobRepository,
	transitionRepo *repository.TransitionRepository,
	checkpointStore *storage.CheckpointStore,
	usage *monitoring.UsageTracker,
) *JobHandler {
	return &JobHandler{
		tracker:         trk,
		control:         control,
		supervisor:      supervisor,
		jobRepo:         jobRepo,
		transitionRepo:  transitionRepo,
		checkpointStore: checkpointStore,
		usage:           usage,
	}
}

// SubmitJobRequest represents the request to submit a training job
type SubmitJobRequest struct {
	SpecYAML string `json:"spec_yaml"`
}

// SubmitJobResponse represents the response after submitting a job
type SubmitJobResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitJob handles POST /v1/jobs
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trainingReq, err := spec.ParseTrainingSpec(req.SpecYAML)
	if err != nil {
		http.Error(w, "Invalid training spec: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	jobID, err := h.control.Start(ctx, *trainingReq)
	if err != nil {
		http.Error(w, "Failed to start training: "+err.Error(), http.StatusBadGateway)
		return
	}

	snap := h.tracker.CreateJob(jobID, trainingReq.Name, trainingReq.ModelType, trainingReq.TaskType)
	h.tracker.StartJob(jobID)
	h.supervisor.Watch(context.Background(), jobID)

	resp := SubmitJobResponse{
		ID:        jobID,
		Status:    string(models.JobStatusRunning),
		CreatedAt: snap.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	snap, ok := h.tracker.GetSnapshot(jobID)
	if !ok {
		// The tracker only holds jobs observed this run; fall back to
		// the stored snapshot for older ones.
		stored, err := h.jobRepo.GetSnapshot(jobID)
		if err != nil {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		snap = *stored
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// ListJobs handles GET /v1/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.tracker.List()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// PauseJob handles POST /v1/jobs/{id}/pause
func (h *JobHandler) PauseJob(w http.ResponseWriter, r *http.Request) {
	h.forwardControl(w, r, h.control.Pause, "pause_requested")
}

// ResumeJob handles POST /v1/jobs/{id}/resume
func (h *JobHandler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	h.forwardControl(w, r, h.control.Resume, "resume_requested")
}

// StopJob handles POST /v1/jobs/{id}/stop
func (h *JobHandler) StopJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	snap, ok := h.tracker.GetSnapshot(jobID)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if snap.Status.IsTerminal() {
		// Nothing to stop; report the settled state.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	if err := h.control.Stop(ctx, jobID); err != nil {
		http.Error(w, "Failed to stop training: "+err.Error(), http.StatusBadGateway)
		return
	}

	// The backend will also emit a cancellation event; applying the
	// local transition now keeps the dashboard responsive and the
	// duplicate event is absorbed by the terminal state.
	snap, _ = h.tracker.StopJob(jobID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// DeleteJob handles DELETE /v1/jobs/{id}: archives a settled job,
// removing it from the tracker, the usage window and the database.
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	if snap, ok := h.tracker.GetSnapshot(jobID); ok && !snap.Status.IsTerminal() && snap.Status != models.JobStatusIdle {
		http.Error(w, "Job is still active", http.StatusConflict)
		return
	}

	h.supervisor.Release(jobID)
	h.tracker.Remove(jobID)
	h.usage.Forget(jobID)
	if err := h.jobRepo.DeleteJob(jobID); err != nil {
		http.Error(w, "Failed to delete job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetJob handles POST /v1/jobs/{id}/reset
func (h *JobHandler) ResetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	snap, ok := h.tracker.Reset(jobID)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// GetJobTransitions handles GET /v1/jobs/{id}/transitions
func (h *JobHandler) GetJobTransitions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	transitions, err := h.transitionRepo.ListTransitions(jobID)
	if err != nil {
		http.Error(w, "Failed to load transitions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id":      jobID,
		"transitions": transitions,
	})
}

// GetJobCheckpoints handles GET /v1/jobs/{id}/checkpoints
func (h *JobHandler) GetJobCheckpoints(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	var live []models.Checkpoint
	if snap, ok := h.tracker.GetSnapshot(jobID); ok {
		live = snap.Checkpoints
	}

	checkpoints, err := h.checkpointStore.ListCheckpoints(jobID, live)
	if err != nil {
		http.Error(w, "Failed to load checkpoints: "+err.Error(), http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"job_id":      jobID,
		"checkpoints": checkpoints,
	}
	if latest, err := h.checkpointStore.LatestCheckpoint(jobID, live); err == nil {
		response["latest"] = latest
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *JobHandler) forwardControl(w http.ResponseWriter, r *http.Request, call func(context.Context, string) error, reason string) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	if _, ok := h.tracker.GetSnapshot(jobID); !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	if err := call(ctx, jobID); err != nil {
		http.Error(w, "Backend control call failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	// The resulting pause/resume status event arrives through the
	// transports; the handler only acknowledges the request.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id": jobID,
		"status": "accepted",
		"action": reason,
	})
}
