package transport

import (
	"context"
	"log"
	"time"

	"ml-dashboard/core/jobcontrol"
	"ml-dashboard/core/models"
)

// Poller periodically fetches the backend's stored job status and
// converts it into the equivalent update event. It only delivers while
// the arbiter says the stream is down, so a job never has two live
// sources at once.
type Poller struct {
	jobID    string
	client   jobcontrol.Client
	sink     EventSink
	arbiter  *Arbiter
	interval time.Duration
}

// NewPoller creates a poller for one job.
func NewPoller(jobID string, client jobcontrol.Client, sink EventSink, arbiter *Arbiter, interval time.Duration) *Poller {
	return &Poller{jobID: jobID, client: client, sink: sink, arbiter: arbiter, interval: interval}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !p.arbiter.PollActive() {
			continue
		}

		status, err := p.client.Status(ctx, p.jobID)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[job %s] poll failed: %v", p.jobID, err)
			}
			continue
		}

		ev := statusToEvent(status)
		if ev == nil {
			continue
		}
		// The stream may have reconnected while the request was in
		// flight. Check again before delivering.
		if !p.arbiter.PollActive() {
			continue
		}
		p.sink.ApplyEvent(p.jobID, ev)
	}
}

// statusToEvent maps a stored job-status document onto the event the
// stream would have carried for the same state.
func statusToEvent(status *jobcontrol.JobStatus) models.Event {
	switch status.Status {
	case "running":
		return &models.ProgressEvent{
			Progress:        status.Progress,
			Epoch:           status.Epoch,
			TotalEpochs:     status.TotalEpochs,
			Metrics:         status.Metrics,
			ElapsedSeconds:  status.ElapsedSeconds,
			Message:         status.Message,
			TrainingHistory: status.TrainingHistory,
		}
	case "paused":
		return &models.StatusEvent{Status: models.JobStatusPaused, Message: status.Message}
	case "completed":
		return &models.CompleteEvent{
			ElapsedSeconds: status.ElapsedSeconds,
			Results: &models.TrainingResults{
				TaskType:        status.TaskType,
				Accuracy:        status.Accuracy,
				Precision:       status.Precision,
				Recall:          status.Recall,
				F1:              status.F1,
				MSE:             status.MSE,
				MAE:             status.MAE,
				R2:              status.R2,
				TrainingHistory: status.TrainingHistory,
			},
		}
	case "failed":
		text := status.Error
		if text == "" {
			text = "training failed"
		}
		return &models.ErrorEvent{Error: text, Message: status.Message}
	case "cancelled":
		return &models.ErrorEvent{Error: "Training cancelled by user", Message: status.Message}
	default:
		// "queued" and other pre-running states carry nothing to apply.
		return nil
	}
}
