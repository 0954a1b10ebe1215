// Package jobcontrol is the thin boundary to the training backend's
// job-control API: submit, pause, resume, stop, and the status endpoint
// the poll fallback reads.
package jobcontrol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ml-dashboard/core/models"
)

// JobStatus is the backend's job-status document, as served by its
// GET /jobs/{id} endpoint. It mirrors the last stored state of the job,
// which the poller converts back into transport events.
type JobStatus struct {
	JobID           string               `json:"job_id"`
	Status          string               `json:"status"`
	Progress        *int                 `json:"progress,omitempty"`
	Epoch           *int                 `json:"epoch,omitempty"`
	TotalEpochs     *int                 `json:"total_epochs,omitempty"`
	Metrics         *models.EventMetrics `json:"metrics,omitempty"`
	ElapsedSeconds  *float64             `json:"elapsed_time,omitempty"`
	TrainingHistory []models.EpochRecord `json:"training_history,omitempty"`
	Message         string               `json:"message,omitempty"`
	Error           string               `json:"error,omitempty"`

	// Final result fields, present once the job completed.
	TaskType  string   `json:"task_type,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Precision *float64 `json:"precision,omitempty"`
	Recall    *float64 `json:"recall,omitempty"`
	F1        *float64 `json:"f1,omitempty"`
	MSE       *float64 `json:"mse,omitempty"`
	MAE       *float64 `json:"mae,omitempty"`
	R2        *float64 `json:"r2_score,omitempty"`
}

// Client controls training jobs on the backend
type Client interface {
	Start(ctx context.Context, req models.TrainingRequest) (jobID string, err error)
	Pause(ctx context.Context, jobID string) error
	Resume(ctx context.Context, jobID string) error
	Stop(ctx context.Context, jobID string) error
	Status(ctx context.Context, jobID string) (*JobStatus, error)
}

// HTTPClient talks to the backend's REST API
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a client for the backend at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type startRequest struct {
	DatasetPath  string                 `json:"dataset_path"`
	ModelConfig  map[string]interface{} `json:"model_config"`
	TargetColumn string                 `json:"target_column"`
	TaskType     string                 `json:"task_type"`
}

type startResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Start submits a training job and returns the backend-assigned job ID.
func (c *HTTPClient) Start(ctx context.Context, req models.TrainingRequest) (string, error) {
	modelConfig := map[string]interface{}{
		"model_type": req.ModelType,
	}
	for k, v := range req.Hyperparameters {
		modelConfig[k] = v
	}
	if req.Epochs > 0 {
		modelConfig["epochs"] = req.Epochs
	}

	body := startRequest{
		DatasetPath:  req.DatasetPath,
		ModelConfig:  modelConfig,
		TargetColumn: req.TargetColumn,
		TaskType:     string(req.TaskType),
	}

	var resp startResponse
	if err := c.post(ctx, "/train", body, &resp); err != nil {
		return "", fmt.Errorf("start training: %w", err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("start training: backend returned no job id")
	}
	return resp.JobID, nil
}

// Pause pauses a running job.
func (c *HTTPClient) Pause(ctx context.Context, jobID string) error {
	return c.post(ctx, "/jobs/"+jobID+"/pause", nil, nil)
}

// Resume resumes a paused job.
func (c *HTTPClient) Resume(ctx context.Context, jobID string) error {
	return c.post(ctx, "/jobs/"+jobID+"/resume", nil, nil)
}

// Stop cancels a job.
func (c *HTTPClient) Stop(ctx context.Context, jobID string) error {
	return c.post(ctx, "/jobs/"+jobID+"/stop", nil, nil)
}

// Status fetches the stored job-status document.
func (c *HTTPClient) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s: backend returned %d", jobID, resp.StatusCode)
	}
	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("status %s: decode: %w", jobID, err)
	}
	return &status, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: backend returned %d", path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
