package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ml-dashboard/core/models"
)

func TestIsCheckpointEpoch(t *testing.T) {
	assert.True(t, IsCheckpointEpoch(1))
	assert.True(t, IsCheckpointEpoch(5))
	assert.True(t, IsCheckpointEpoch(10))
	assert.True(t, IsCheckpointEpoch(25))

	assert.False(t, IsCheckpointEpoch(0))
	assert.False(t, IsCheckpointEpoch(2))
	assert.False(t, IsCheckpointEpoch(4))
	assert.False(t, IsCheckpointEpoch(7))
	assert.False(t, IsCheckpointEpoch(-5))
}

func TestDeriveCheckpoint(t *testing.T) {
	now := time.Now()

	t.Run("milestone epoch is recorded", func(t *testing.T) {
		cps := DeriveCheckpoint(nil, 5, 0.4, now)

		assert.Len(t, cps, 1)
		assert.Equal(t, 5, cps[0].Epoch)
		assert.Equal(t, 0.4, cps[0].Loss)
	})

	t.Run("non-milestone epoch is ignored", func(t *testing.T) {
		cps := DeriveCheckpoint(nil, 7, 0.4, now)
		assert.Empty(t, cps)
	})

	t.Run("duplicate epoch is not re-derived", func(t *testing.T) {
		cps := DeriveCheckpoint(nil, 5, 0.4, now)
		cps = DeriveCheckpoint(cps, 5, 0.2, now)

		assert.Len(t, cps, 1)
		assert.Equal(t, 0.4, cps[0].Loss)
	})

	t.Run("retention cap evicts oldest first", func(t *testing.T) {
		var cps []models.Checkpoint
		cps = DeriveCheckpoint(cps, 1, 1.0, now)
		for epoch := 5; epoch <= 55; epoch += 5 {
			cps = DeriveCheckpoint(cps, epoch, 0.5, now)
		}

		assert.Len(t, cps, MaxCheckpoints)
		assert.Equal(t, 10, cps[0].Epoch)
		assert.Equal(t, 55, cps[len(cps)-1].Epoch)
	})

	t.Run("input slice is not mutated", func(t *testing.T) {
		original := DeriveCheckpoint(nil, 1, 1.0, now)
		DeriveCheckpoint(original, 5, 0.5, now)

		assert.Len(t, original, 1)
	})
}

func TestCheckpointLoss(t *testing.T) {
	assert.Equal(t, 0.3, CheckpointLoss(models.EpochRecord{ValLoss: fp(0.3), TrainLoss: fp(0.5)}))
	assert.Equal(t, 0.5, CheckpointLoss(models.EpochRecord{TrainLoss: fp(0.5)}))
	assert.Equal(t, 0.0, CheckpointLoss(models.EpochRecord{}))
}
