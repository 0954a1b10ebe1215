package reconcile

import (
	"time"

	"ml-dashboard/core/models"
)

// MaxCheckpoints is the retention cap for derived checkpoints; the
// oldest insertion is evicted first once it is exceeded.
const MaxCheckpoints = 10

// IsCheckpointEpoch reports whether an epoch is a checkpoint milestone:
// epoch 1, and every multiple of 5 after it.
func IsCheckpointEpoch(epoch int) bool {
	return epoch == 1 || (epoch > 0 && epoch%5 == 0)
}

// DeriveCheckpoint appends a checkpoint for the given epoch when it is a
// milestone not already recorded, then enforces the retention cap. The
// input slice is not mutated.
func DeriveCheckpoint(existing []models.Checkpoint, epoch int, loss float64, now time.Time) []models.Checkpoint {
	if !IsCheckpointEpoch(epoch) {
		return existing
	}
	for _, cp := range existing {
		if cp.Epoch == epoch {
			return existing
		}
	}

	out := make([]models.Checkpoint, len(existing), len(existing)+1)
	copy(out, existing)
	out = append(out, models.Checkpoint{Epoch: epoch, Loss: loss, Timestamp: now})
	if len(out) > MaxCheckpoints {
		out = out[len(out)-MaxCheckpoints:]
	}
	return out
}

// CheckpointLoss picks the loss value recorded with a checkpoint: the
// epoch's validation loss when present, else its training loss, else 0.
func CheckpointLoss(rec models.EpochRecord) float64 {
	if rec.ValLoss != nil {
		return *rec.ValLoss
	}
	if rec.TrainLoss != nil {
		return *rec.TrainLoss
	}
	return 0
}
