// Package executor contains the development-mode training simulator.
// With no backend available it plays the role of one, feeding the
// tracker a realistic event sequence so the dashboard can be exercised
// end to end.
package executor

import (
	"context"
	"log"
	"math/rand"
	"time"

	"ml-dashboard/core/models"
)

// Sink receives the simulated event stream.
type Sink interface {
	ApplyEvent(jobID string, ev models.Event) (models.JobSnapshot, bool)
}

// Simulator generates synthetic training runs.
type Simulator struct {
	sink       Sink
	epochDelay time.Duration
}

// NewSimulator creates a simulator feeding the given sink. epochDelay
// is the pause between simulated epochs.
func NewSimulator(sink Sink, epochDelay time.Duration) *Simulator {
	return &Simulator{sink: sink, epochDelay: epochDelay}
}

// Run simulates one training job until it completes or ctx is
// cancelled. Cancellation produces the same error event a user stop
// would.
func (s *Simulator) Run(ctx context.Context, jobID string, req models.TrainingRequest) {
	epochs := req.Epochs
	if epochs <= 0 {
		epochs = 10
	}
	log.Printf("[job %s] simulating %d-epoch %s run", jobID, epochs, req.ModelType)

	start := time.Now()
	trainLoss := 1.0 + rand.Float64()*0.5
	valLoss := trainLoss * 1.1
	trainAcc := 0.4 + rand.Float64()*0.1
	valAcc := trainAcc * 0.95

	for epoch := 1; epoch <= epochs; epoch++ {
		select {
		case <-ctx.Done():
			s.sink.ApplyEvent(jobID, &models.ErrorEvent{
				Error:   "Training cancelled by user",
				Message: "simulation stopped",
			})
			return
		case <-time.After(s.epochDelay):
		}

		// Losses decay, accuracies climb, both with jitter.
		trainLoss *= 0.85 + rand.Float64()*0.1
		valLoss *= 0.86 + rand.Float64()*0.1
		trainAcc += (0.98 - trainAcc) * (0.1 + rand.Float64()*0.1)
		valAcc += (0.95 - valAcc) * (0.1 + rand.Float64()*0.1)

		progress := epoch * 100 / epochs
		elapsed := time.Since(start).Seconds()
		ts := time.Now().UnixMilli()
		epochCopy := epoch
		metrics := &models.EventMetrics{
			TrainLoss:     floatPtr(trainLoss),
			ValLoss:       floatPtr(valLoss),
			TrainAccuracy: floatPtr(trainAcc),
			ValAccuracy:   floatPtr(valAcc),
			Accuracy:      floatPtr(valAcc),
			Loss:          floatPtr(valLoss),
		}

		s.sink.ApplyEvent(jobID, &models.ProgressEvent{
			Progress:    &progress,
			Epoch:       &epochCopy,
			TotalEpochs: &epochs,
			Metrics:     metrics,
			ResourceUsage: &models.ResourcePayload{
				Timestamp: &ts,
				CPU:       20 + rand.Float64()*40,
				RAM:       2 + rand.Float64()*4,
				GPU:       50 + rand.Float64()*45,
			},
			ElapsedSeconds: floatPtr(elapsed),
			Message:        "Training in progress",
		})
	}

	elapsed := time.Since(start).Seconds()
	results := &models.TrainingResults{
		TaskType: string(req.TaskType),
	}
	if req.TaskType == models.TaskRegression {
		mse := valLoss
		results.MSE = floatPtr(mse)
		results.MAE = floatPtr(mse * 0.8)
		results.R2 = floatPtr(0.8 + rand.Float64()*0.15)
	} else {
		results.Accuracy = floatPtr(valAcc)
		results.Precision = floatPtr(valAcc * 0.98)
		results.Recall = floatPtr(valAcc * 0.97)
		results.F1 = floatPtr(valAcc * 0.975)
	}

	hundred := 100
	s.sink.ApplyEvent(jobID, &models.CompleteEvent{
		Progress:       &hundred,
		ElapsedSeconds: floatPtr(elapsed),
		Results:        results,
		Message:        "Training completed",
	})
	log.Printf("[job %s] simulation finished in %.1fs", jobID, elapsed)
}

func floatPtr(v float64) *float64 {
	f := v
	return &f
}
