package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	t.Run("progress event", func(t *testing.T) {
		data := []byte(`{
			"type": "progress",
			"progress": 40,
			"epoch": 4,
			"total_epochs": 10,
			"metrics": {"trainLoss": 0.5, "valLoss": 0.6, "accuracy": 0.8},
			"resource_usage": {"timestamp": 1700000000000, "cpu": 35.5, "ram": 4.2, "gpu": 81.0},
			"elapsed_time": 12.5,
			"message": "Training in progress"
		}`)

		ev, err := ParseEvent(data)
		require.NoError(t, err)

		progress, ok := ev.(*ProgressEvent)
		require.True(t, ok)
		assert.Equal(t, 40, *progress.Progress)
		assert.Equal(t, 4, *progress.Epoch)
		assert.Equal(t, 10, *progress.TotalEpochs)
		assert.Equal(t, 0.5, *progress.Metrics.TrainLoss)
		assert.Equal(t, 81.0, progress.ResourceUsage.GPU)
		assert.Equal(t, 12.5, *progress.ElapsedSeconds)
	})

	t.Run("progress event with history array", func(t *testing.T) {
		data := []byte(`{
			"type": "progress",
			"training_history": [
				{"epoch": 1, "trainLoss": 1.0, "valLoss": 1.1},
				{"epoch": 2, "trainLoss": 0.8}
			]
		}`)

		ev, err := ParseEvent(data)
		require.NoError(t, err)

		progress := ev.(*ProgressEvent)
		require.Len(t, progress.TrainingHistory, 2)
		assert.Equal(t, 1, progress.TrainingHistory[0].Epoch)
		assert.Nil(t, progress.TrainingHistory[1].ValLoss)
	})

	t.Run("complete event", func(t *testing.T) {
		data := []byte(`{
			"type": "complete",
			"progress": 100,
			"elapsed_time": 54.2,
			"results": {
				"task_type": "regression",
				"mse": 0.04,
				"mae": 0.1,
				"r2_score": 0.95
			}
		}`)

		ev, err := ParseEvent(data)
		require.NoError(t, err)

		complete := ev.(*CompleteEvent)
		require.NotNil(t, complete.Results)
		assert.Equal(t, 0.04, *complete.Results.MSE)
		assert.Equal(t, 0.95, *complete.Results.R2)
	})

	t.Run("error event", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{"type": "error", "error": "Training cancelled by user"}`))
		require.NoError(t, err)

		errEv := ev.(*ErrorEvent)
		assert.Equal(t, "Training cancelled by user", errEv.Error)
	})

	t.Run("error event without text is rejected", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{"type": "error"}`))
		assert.Error(t, err)
	})

	t.Run("status event", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{"type": "status", "status": "paused"}`))
		require.NoError(t, err)

		status := ev.(*StatusEvent)
		assert.Equal(t, JobStatusPaused, status.Status)
	})

	t.Run("status event with terminal status is rejected", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{"type": "status", "status": "completed"}`))
		assert.Error(t, err)
	})

	t.Run("keepalive frames are neutral", func(t *testing.T) {
		for _, frame := range []string{`{"type": "connected"}`, `{"type": "ping"}`} {
			ev, err := ParseEvent([]byte(frame))
			assert.NoError(t, err)
			assert.Nil(t, ev)
		}
	})

	t.Run("missing type is rejected", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{"progress": 10}`))
		assert.Error(t, err)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{"type": "telemetry"}`))
		assert.Error(t, err)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{`))
		assert.Error(t, err)
	})
}
