package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ml-dashboard/core/models"
)

func fp(v float64) *float64 { return &v }

func rec(epoch int, trainLoss float64) models.EpochRecord {
	return models.EpochRecord{Epoch: epoch, TrainLoss: fp(trainLoss)}
}

func epochs(history []models.EpochRecord) []int {
	out := make([]int, len(history))
	for i, r := range history {
		out[i] = r.Epoch
	}
	return out
}

func TestMergeHistory(t *testing.T) {
	t.Run("delta appends in epoch order", func(t *testing.T) {
		current := []models.EpochRecord{rec(1, 1.0), rec(3, 0.8)}
		delta := rec(2, 0.9)
		merged := MergeHistory(current, HistoryUpdate{Delta: &delta})

		assert.Equal(t, []int{1, 2, 3}, epochs(merged))
	})

	t.Run("delta replaces existing epoch in place", func(t *testing.T) {
		current := []models.EpochRecord{rec(1, 1.0), rec(2, 0.9)}
		delta := rec(2, 0.5)
		merged := MergeHistory(current, HistoryUpdate{Delta: &delta})

		assert.Equal(t, []int{1, 2}, epochs(merged))
		assert.Equal(t, 0.5, *merged[1].TrainLoss)
	})

	t.Run("replace wins even when smaller", func(t *testing.T) {
		current := []models.EpochRecord{rec(1, 1.0), rec(2, 0.9), rec(3, 0.8)}
		merged := MergeHistory(current, HistoryUpdate{
			Replace: []models.EpochRecord{rec(1, 1.1), rec(2, 0.95)},
		})

		assert.Equal(t, []int{1, 2}, epochs(merged))
		assert.Equal(t, 1.1, *merged[0].TrainLoss)
	})

	t.Run("replace sorts and keeps last duplicate", func(t *testing.T) {
		merged := MergeHistory(nil, HistoryUpdate{
			Replace: []models.EpochRecord{rec(3, 0.8), rec(1, 1.0), rec(3, 0.7)},
		})

		assert.Equal(t, []int{1, 3}, epochs(merged))
		assert.Equal(t, 0.7, *merged[1].TrainLoss)
	})

	t.Run("empty update keeps current", func(t *testing.T) {
		current := []models.EpochRecord{rec(1, 1.0)}
		merged := MergeHistory(current, HistoryUpdate{})

		assert.Equal(t, current, merged)
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		current := []models.EpochRecord{rec(1, 1.0), rec(3, 0.8)}
		delta := rec(2, 0.9)
		MergeHistory(current, HistoryUpdate{Delta: &delta})

		assert.Equal(t, []int{1, 3}, epochs(current))
	})
}

func TestGapSignature(t *testing.T) {
	t.Run("contiguous history has no gaps", func(t *testing.T) {
		history := []models.EpochRecord{rec(1, 1.0), rec(2, 0.9), rec(3, 0.8)}
		assert.Equal(t, "", GapSignature(history))
	})

	t.Run("missing epochs are listed", func(t *testing.T) {
		history := []models.EpochRecord{rec(1, 1.0), rec(4, 0.8), rec(6, 0.7)}
		assert.Equal(t, "2,3,5", GapSignature(history))
	})

	t.Run("short history has no gaps", func(t *testing.T) {
		assert.Equal(t, "", GapSignature(nil))
		assert.Equal(t, "", GapSignature([]models.EpochRecord{rec(5, 0.5)}))
	})

	t.Run("huge gaps are summarized, not enumerated", func(t *testing.T) {
		history := []models.EpochRecord{rec(1, 1.0), rec(100000000, 0.5)}
		sig := GapSignature(history)

		assert.True(t, strings.HasPrefix(sig, "2,3,4"))
		assert.True(t, strings.HasSuffix(sig, "+99999966 more"))
		assert.Less(t, len(sig), 256)
	})
}
