package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"ml-dashboard/core/models"
)

// JobRepository handles database operations for job snapshots
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// SaveSnapshot upserts the current snapshot of a job. Snapshots are
// written whole; history and metrics live in jsonb columns.
func (r *JobRepository) SaveSnapshot(snap models.JobSnapshot) error {
	metricsJSON, err := json.Marshal(snap.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	historyJSON, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, name, model_type, task_type, status, progress, total_epochs,
			metrics_json, history_json, start_time, elapsed_seconds,
			message, error, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			model_type = EXCLUDED.model_type,
			task_type = EXCLUDED.task_type,
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			total_epochs = EXCLUDED.total_epochs,
			metrics_json = EXCLUDED.metrics_json,
			history_json = EXCLUDED.history_json,
			start_time = EXCLUDED.start_time,
			elapsed_seconds = EXCLUDED.elapsed_seconds,
			message = EXCLUDED.message,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(query,
		snap.JobID,
		snap.Name,
		snap.ModelType,
		string(snap.TaskType),
		string(snap.Status),
		snap.Progress,
		snap.TotalEpochs,
		metricsJSON,
		historyJSON,
		snap.StartTime,
		snap.ElapsedSeconds,
		snap.Message,
		snap.Error,
		snap.CreatedAt,
		snap.UpdatedAt,
	)
	return err
}

// GetSnapshot retrieves a stored job snapshot by ID. Checkpoints and
// resource samples are not persisted; the returned snapshot carries
// empty slices for them.
func (r *JobRepository) GetSnapshot(jobID string) (*models.JobSnapshot, error) {
	query := `
		SELECT id, name, model_type, task_type, status, progress, total_epochs,
			metrics_json, history_json, start_time, elapsed_seconds,
			message, error, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	var snap models.JobSnapshot
	var taskType, status string
	var metricsJSON, historyJSON []byte
	var startTime sql.NullTime

	err := r.db.QueryRow(query, jobID).Scan(
		&snap.JobID,
		&snap.Name,
		&snap.ModelType,
		&taskType,
		&status,
		&snap.Progress,
		&snap.TotalEpochs,
		&metricsJSON,
		&historyJSON,
		&startTime,
		&snap.ElapsedSeconds,
		&snap.Message,
		&snap.Error,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.TaskType = models.TaskType(taskType)
	snap.Status = models.JobStatus(status)
	if startTime.Valid {
		snap.StartTime = &startTime.Time
	}
	if err := json.Unmarshal(metricsJSON, &snap.Metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &snap.History); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	snap.Checkpoints = []models.Checkpoint{}
	snap.ResourceUsage = []models.ResourceSample{}

	return &snap, nil
}

// ListSnapshots lists stored snapshots, newest first.
func (r *JobRepository) ListSnapshots(limit int) ([]models.JobSnapshot, error) {
	query := `
		SELECT id FROM jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}

	snapshots := make([]models.JobSnapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := r.GetSnapshot(id)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, nil
}

// DeleteJob removes a job and its transitions and checkpoints.
func (r *JobRepository) DeleteJob(jobID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM job_transitions WHERE job_id = $1`, jobID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM job_checkpoints WHERE job_id = $1`, jobID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM jobs WHERE id = $1`, jobID); err != nil {
		return err
	}
	return tx.Commit()
}
