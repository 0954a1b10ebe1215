package models

import (
	"encoding/json"
	"fmt"
)

// Event is one normalized transport event from the training backend.
// There is exactly one concrete type per wire "type" discriminator, each
// carrying only the fields that variant guarantees; downstream components
// never see an untyped payload.
type Event interface {
	Kind() EventKind
}

// EventKind is the wire discriminator of a transport event
type EventKind string

const (
	EventKindProgress EventKind = "progress"
	EventKindComplete EventKind = "complete"
	EventKindError    EventKind = "error"
	EventKindStatus   EventKind = "status"
)

// EventMetrics carries the per-tick metric fields a progress event may
// report. All fields are optional; which ones appear depends on the
// job's task type.
type EventMetrics struct {
	Accuracy      *float64 `json:"accuracy,omitempty"`
	ValAccuracy   *float64 `json:"valAccuracy,omitempty"`
	TrainAccuracy *float64 `json:"trainAccuracy,omitempty"`
	Loss          *float64 `json:"loss,omitempty"`
	ValLoss       *float64 `json:"valLoss,omitempty"`
	TrainLoss     *float64 `json:"trainLoss,omitempty"`
	MSE           *float64 `json:"mse,omitempty"`
	MAE           *float64 `json:"mae,omitempty"`
	R2            *float64 `json:"r2_score,omitempty"`
}

// ResourcePayload is the raw resource-usage block of a progress event.
// Timestamp is unix milliseconds and may be omitted by the producer.
type ResourcePayload struct {
	Timestamp *int64  `json:"timestamp,omitempty"`
	CPU       float64 `json:"cpu"`
	RAM       float64 `json:"ram"`
	GPU       float64 `json:"gpu"`
}

// ProgressEvent reports training progress: either a full authoritative
// history array, or a single-epoch delta, plus side signals.
type ProgressEvent struct {
	Progress        *int             `json:"progress,omitempty"`
	Epoch           *int             `json:"epoch,omitempty"`
	TotalEpochs     *int             `json:"total_epochs,omitempty"`
	Metrics         *EventMetrics    `json:"metrics,omitempty"`
	ResourceUsage   *ResourcePayload `json:"resource_usage,omitempty"`
	ElapsedSeconds  *float64         `json:"elapsed_time,omitempty"`
	Message         string           `json:"message,omitempty"`
	TrainingHistory []EpochRecord    `json:"training_history,omitempty"`
}

func (*ProgressEvent) Kind() EventKind { return EventKindProgress }

// TrainingResults is the final metrics block of a complete event.
type TrainingResults struct {
	TaskType        string        `json:"task_type,omitempty"`
	Accuracy        *float64      `json:"accuracy,omitempty"`
	Precision       *float64      `json:"precision,omitempty"`
	Recall          *float64      `json:"recall,omitempty"`
	F1              *float64      `json:"f1,omitempty"`
	MSE             *float64      `json:"mse,omitempty"`
	MAE             *float64      `json:"mae,omitempty"`
	R2              *float64      `json:"r2_score,omitempty"`
	TrainingHistory []EpochRecord `json:"training_history,omitempty"`
}

// CompleteEvent marks successful termination of a training job.
type CompleteEvent struct {
	Progress       *int             `json:"progress,omitempty"`
	ElapsedSeconds *float64         `json:"elapsed_time,omitempty"`
	Results        *TrainingResults `json:"results,omitempty"`
	Message        string           `json:"message,omitempty"`
}

func (*CompleteEvent) Kind() EventKind { return EventKindComplete }

// ErrorEvent reports a job failure or a user-initiated cancellation; the
// two are distinguished only by the error text.
type ErrorEvent struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (*ErrorEvent) Kind() EventKind { return EventKindError }

// StatusEvent reports a pause/resume transition.
type StatusEvent struct {
	Status  JobStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

func (*StatusEvent) Kind() EventKind { return EventKindStatus }

// ParseEvent decodes one raw event from the transport. It returns
// (nil, nil) for reconciliation-neutral frames (connected, ping) and an
// error for frames missing their required discriminator fields; callers
// are expected to drop those with a logged diagnostic, never to fail.
func ParseEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed event frame: %w", err)
	}

	switch EventKind(envelope.Type) {
	case EventKindProgress:
		var ev ProgressEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("malformed progress event: %w", err)
		}
		return &ev, nil
	case EventKindComplete:
		var ev CompleteEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("malformed complete event: %w", err)
		}
		return &ev, nil
	case EventKindError:
		var ev ErrorEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("malformed error event: %w", err)
		}
		if ev.Error == "" {
			return nil, fmt.Errorf("error event without error text")
		}
		return &ev, nil
	case EventKindStatus:
		var ev StatusEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("malformed status event: %w", err)
		}
		if ev.Status != JobStatusRunning && ev.Status != JobStatusPaused {
			return nil, fmt.Errorf("status event with unsupported status %q", ev.Status)
		}
		return &ev, nil
	case "connected", "ping":
		// Keepalive frames from the backend, nothing to reconcile.
		return nil, nil
	case "":
		return nil, fmt.Errorf("event without type discriminator")
	default:
		return nil, fmt.Errorf("unrecognized event type %q", envelope.Type)
	}
}
