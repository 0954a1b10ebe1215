package models

import "time"

// JobSnapshot is the externally visible state of one training job. It is
// owned by the reconciliation state machine and mutated only in response
// to normalized transport events.
type JobSnapshot struct {
	JobID          string             `json:"job_id"`
	Name           string             `json:"name,omitempty"`
	ModelType      string             `json:"model_type,omitempty"`
	TaskType       TaskType           `json:"task_type,omitempty"`
	Status         JobStatus          `json:"status"`
	Progress       int                `json:"progress"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	History        []EpochRecord      `json:"history"`
	Checkpoints    []Checkpoint       `json:"checkpoints"`
	ResourceUsage  []ResourceSample   `json:"resource_usage"`
	TotalEpochs    int                `json:"total_epochs"`
	StartTime      *time.Time         `json:"start_time,omitempty"`
	ElapsedSeconds float64            `json:"elapsed_time"`
	Message        string             `json:"message,omitempty"`
	Error          string             `json:"error,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Clone returns a deep copy so readers never observe a partially-updated
// snapshot while the state machine keeps mutating its own copy.
func (s JobSnapshot) Clone() JobSnapshot {
	out := s
	if s.Metrics != nil {
		out.Metrics = make(map[string]float64, len(s.Metrics))
		for k, v := range s.Metrics {
			out.Metrics[k] = v
		}
	}
	if s.History != nil {
		out.History = make([]EpochRecord, len(s.History))
		for i, rec := range s.History {
			out.History[i] = rec.Clone()
		}
	}
	if s.Checkpoints != nil {
		out.Checkpoints = append([]Checkpoint(nil), s.Checkpoints...)
	}
	if s.ResourceUsage != nil {
		out.ResourceUsage = append([]ResourceSample(nil), s.ResourceUsage...)
	}
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	return out
}

// JobStatus represents the lifecycle status of a training job
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions leave this status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// TaskType represents the kind of supervised learning task
type TaskType string

const (
	TaskClassification TaskType = "classification"
	TaskRegression     TaskType = "regression"
)

// EpochRecord holds one training epoch's metrics. Pointer fields are
// absent on the wire when the metric was not reported for that tick.
type EpochRecord struct {
	Epoch         int      `json:"epoch"`
	TrainLoss     *float64 `json:"trainLoss,omitempty"`
	ValLoss       *float64 `json:"valLoss,omitempty"`
	TrainAccuracy *float64 `json:"trainAccuracy,omitempty"`
	ValAccuracy   *float64 `json:"valAccuracy,omitempty"`
}

// Clone returns a copy that shares no pointers with the receiver.
func (r EpochRecord) Clone() EpochRecord {
	out := r
	out.TrainLoss = copyFloat(r.TrainLoss)
	out.ValLoss = copyFloat(r.ValLoss)
	out.TrainAccuracy = copyFloat(r.TrainAccuracy)
	out.ValAccuracy = copyFloat(r.ValAccuracy)
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

// Checkpoint is a retained observation marker for the dashboard's
// checkpoint panel, derived at fixed epoch milestones.
type Checkpoint struct {
	Epoch     int       `json:"epoch"`
	Loss      float64   `json:"loss"`
	Timestamp time.Time `json:"timestamp"`
}

// ResourceSample is one timestamped resource-utilization reading.
type ResourceSample struct {
	Timestamp    time.Time `json:"timestamp"`
	GPUPercent   float64   `json:"gpu_percent"`
	CPUPercent   float64   `json:"cpu_percent"`
	RAMGigabytes float64   `json:"ram_gb"`
}

// JobTransition represents one recorded lifecycle transition for a job
type JobTransition struct {
	ID         int64      `json:"id"`
	JobID      string     `json:"job_id"`
	At         time.Time  `json:"at"`
	FromStatus *JobStatus `json:"from_status,omitempty"`
	ToStatus   JobStatus  `json:"to_status"`
	Reason     string     `json:"reason"`
}

// TrainingRequest is a validated job submission, produced by the spec
// parser and handed to the job-control client.
type TrainingRequest struct {
	Name            string
	DatasetPath     string
	TargetColumn    string
	TaskType        TaskType
	ModelType       string
	Epochs          int
	Hyperparameters map[string]interface{}
}
