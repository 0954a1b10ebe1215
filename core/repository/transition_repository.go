package repository

import (
	"database/sql"

	"ml-dashboard/core/models"
)

// TransitionRepository handles database operations for job status
// transitions
type TransitionRepository struct {
	db *DB
}

// NewTransitionRepository creates a new transition repository
func NewTransitionRepository(db *DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

// RecordTransition appends one status transition to the job's audit
// trail.
func (r *TransitionRepository) RecordTransition(t models.JobTransition) error {
	query := `
		INSERT INTO job_transitions (job_id, at, from_status, to_status, reason)
		VALUES ($1, $2, $3, $4, $5)
	`

	var fromStatus *string
	if t.FromStatus != nil {
		s := string(*t.FromStatus)
		fromStatus = &s
	}

	_, err := r.db.Exec(query, t.JobID, t.At, fromStatus, string(t.ToStatus), t.Reason)
	return err
}

// ListTransitions returns a job's transitions in chronological order.
func (r *TransitionRepository) ListTransitions(jobID string) ([]models.JobTransition, error) {
	query := `
		SELECT id, job_id, at, from_status, to_status, reason
		FROM job_transitions
		WHERE job_id = $1
		ORDER BY at ASC
	`

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []models.JobTransition
	for rows.Next() {
		var t models.JobTransition
		var fromStatus sql.NullString
		var toStatus string
		if err := rows.Scan(&t.ID, &t.JobID, &t.At, &fromStatus, &toStatus, &t.Reason); err != nil {
			continue
		}
		if fromStatus.Valid {
			s := models.JobStatus(fromStatus.String)
			t.FromStatus = &s
		}
		t.ToStatus = models.JobStatus(toStatus)
		transitions = append(transitions, t)
	}
	return transitions, nil
}
