package storage

import (
	"fmt"
	"sort"

	"ml-dashboard/core/models"
	"ml-dashboard/core/repository"
)

// CheckpointStore serves checkpoint history for a job, preferring the
// live in-memory window and falling back to the database for epochs
// the window has already evicted.
type CheckpointStore struct {
	checkpointRepo *repository.CheckpointRepository
}

// NewCheckpointStore creates a new checkpoint store
func NewCheckpointStore(checkpointRepo *repository.CheckpointRepository) *CheckpointStore {
	return &CheckpointStore{checkpointRepo: checkpointRepo}
}

// ListCheckpoints returns a job's checkpoints. The live window is
// merged over the stored set so evicted epochs stay visible while
// recent ones reflect the freshest derivation.
func (cs *CheckpointStore) ListCheckpoints(jobID string, live []models.Checkpoint) ([]models.Checkpoint, error) {
	stored, err := cs.checkpointRepo.ListCheckpoints(jobID)
	if err != nil {
		return nil, err
	}

	byEpoch := make(map[int]models.Checkpoint, len(stored)+len(live))
	epochs := make([]int, 0, len(stored)+len(live))
	for _, cp := range stored {
		if _, ok := byEpoch[cp.Epoch]; !ok {
			epochs = append(epochs, cp.Epoch)
		}
		byEpoch[cp.Epoch] = cp
	}
	for _, cp := range live {
		if _, ok := byEpoch[cp.Epoch]; !ok {
			epochs = append(epochs, cp.Epoch)
		}
		byEpoch[cp.Epoch] = cp
	}

	sort.Ints(epochs)
	out := make([]models.Checkpoint, 0, len(epochs))
	for _, epoch := range epochs {
		out = append(out, byEpoch[epoch])
	}
	return out, nil
}

// LatestCheckpoint returns the highest-epoch checkpoint for a job.
func (cs *CheckpointStore) LatestCheckpoint(jobID string, live []models.Checkpoint) (models.Checkpoint, error) {
	all, err := cs.ListCheckpoints(jobID, live)
	if err != nil {
		return models.Checkpoint{}, err
	}
	if len(all) == 0 {
		return models.Checkpoint{}, fmt.Errorf("no checkpoint found for job %s", jobID)
	}
	return all[len(all)-1], nil
}
