package repository

import (
	"ml-dashboard/core/models"
)

// CheckpointRepository handles database operations for derived
// checkpoints
type CheckpointRepository struct {
	db *DB
}

// NewCheckpointRepository creates a new checkpoint repository
func NewCheckpointRepository(db *DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

// SaveCheckpoint records a derived checkpoint. A checkpoint already
// stored for the same job and epoch is left untouched.
func (r *CheckpointRepository) SaveCheckpoint(jobID string, cp models.Checkpoint) error {
	query := `
		INSERT INTO job_checkpoints (job_id, epoch, loss, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id, epoch) DO NOTHING
	`
	_, err := r.db.Exec(query, jobID, cp.Epoch, cp.Loss, cp.Timestamp)
	return err
}

// ListCheckpoints returns a job's stored checkpoints ordered by epoch.
func (r *CheckpointRepository) ListCheckpoints(jobID string) ([]models.Checkpoint, error) {
	query := `
		SELECT epoch, loss, created_at
		FROM job_checkpoints
		WHERE job_id = $1
		ORDER BY epoch ASC
	`

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkpoints []models.Checkpoint
	for rows.Next() {
		var cp models.Checkpoint
		if err := rows.Scan(&cp.Epoch, &cp.Loss, &cp.Timestamp); err != nil {
			continue
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, nil
}
