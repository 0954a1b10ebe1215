package repository

import (
	"log"
	"time"

	"ml-dashboard/core/models"
)

// Persister subscribes to tracker updates and writes them through to
// Postgres. Persistence is best effort: a failed write is logged and
// the in-memory state stays authoritative.
type Persister struct {
	jobs        *JobRepository
	transitions *TransitionRepository
	checkpoints *CheckpointRepository
}

// NewPersister creates a persister over the three repositories.
func NewPersister(jobs *JobRepository, transitions *TransitionRepository, checkpoints *CheckpointRepository) *Persister {
	return &Persister{jobs: jobs, transitions: transitions, checkpoints: checkpoints}
}

// OnUpdate stores the job snapshot and any checkpoints it carries.
func (p *Persister) OnUpdate(snap models.JobSnapshot) {
	if err := p.jobs.SaveSnapshot(snap); err != nil {
		log.Printf("[job %s] failed to persist snapshot: %v", snap.JobID, err)
	}
	for _, cp := range snap.Checkpoints {
		if err := p.checkpoints.SaveCheckpoint(snap.JobID, cp); err != nil {
			log.Printf("[job %s] failed to persist checkpoint epoch %d: %v", snap.JobID, cp.Epoch, err)
		}
	}
}

// OnTransition appends the transition to the job's audit trail.
func (p *Persister) OnTransition(jobID string, from, to models.JobStatus, reason string) {
	t := models.JobTransition{
		JobID:    jobID,
		At:       time.Now(),
		ToStatus: to,
		Reason:   reason,
	}
	if from != "" {
		t.FromStatus = &from
	}
	if err := p.transitions.RecordTransition(t); err != nil {
		log.Printf("[job %s] failed to persist transition %s -> %s: %v", jobID, from, to, err)
	}
}
