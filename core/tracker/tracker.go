// Package tracker owns the reconciliation state machines, one per
// active job, and serializes every mutation so readers always observe a
// consistent snapshot.
package tracker

import (
	"log"
	"sort"
	"sync"
	"time"

	"ml-dashboard/core/models"
	"ml-dashboard/core/reconcile"
)

// UpdateListener observes the published snapshot after each applied
// mutation. Listeners receive a deep copy and run synchronously under
// the tracker's lock, so publications arrive in application order; they
// must not call back into the tracker.
type UpdateListener func(snap models.JobSnapshot)

// TransitionListener observes lifecycle transitions as they happen.
type TransitionListener func(jobID string, from, to models.JobStatus, reason string)

// Tracker is the single writer for all job state. The transport arbiter
// guarantees one live event source per job; the tracker's lock makes the
// merge plus derived-state update for each event atomic with respect to
// readers.
type Tracker struct {
	mu        sync.Mutex
	machines  map[string]*reconcile.Machine
	onUpdate  []UpdateListener
	onTransit []TransitionListener
	clock     func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		machines: make(map[string]*reconcile.Machine),
		clock:    time.Now,
	}
}

// OnUpdate registers a snapshot listener. Must be called before events flow.
func (t *Tracker) OnUpdate(fn UpdateListener) {
	t.onUpdate = append(t.onUpdate, fn)
}

// OnTransition registers a transition listener. Listeners run
// synchronously while the update is applied and must not call back into
// the tracker. Must be called before events flow.
func (t *Tracker) OnTransition(fn TransitionListener) {
	t.onTransit = append(t.onTransit, fn)
}

// CreateJob registers a new job in the idle state and returns its
// snapshot. An existing machine for the same jobId is replaced — a new
// launch under an old id discards the previous job's state.
func (t *Tracker) CreateJob(jobID, name, modelType string, taskType models.TaskType) models.JobSnapshot {
	t.mu.Lock()
	m := reconcile.NewMachine(jobID, t.clock())
	m.SetMeta(name, modelType, taskType)
	m.SetTransitionHook(func(from, to models.JobStatus, reason string) {
		for _, fn := range t.onTransit {
			fn(jobID, from, to, reason)
		}
	})
	t.machines[jobID] = m
	snap := m.Snapshot()
	t.publish(snap)
	t.mu.Unlock()

	return snap
}

// Restore rebuilds a machine from a persisted snapshot, e.g. when
// rehydrating tracked state from the database after a restart. The
// restored snapshot is published so listeners observe the job.
func (t *Tracker) Restore(snap models.JobSnapshot) models.JobSnapshot {
	jobID := snap.JobID
	t.mu.Lock()
	m := reconcile.RestoreMachine(snap)
	m.SetTransitionHook(func(from, to models.JobStatus, reason string) {
		for _, fn := range t.onTransit {
			fn(jobID, from, to, reason)
		}
	})
	t.machines[jobID] = m
	out := m.Snapshot()
	t.publish(out)
	t.mu.Unlock()

	return out
}

// StartJob applies the start-requested transition to an idle job.
func (t *Tracker) StartJob(jobID string) (models.JobSnapshot, bool) {
	return t.withMachine(jobID, func(m *reconcile.Machine) bool {
		return m.StartRequested(t.clock())
	})
}

// ApplyEvent feeds one transport event into the job's state machine and
// returns the resulting snapshot. Unknown jobs are ignored.
func (t *Tracker) ApplyEvent(jobID string, ev models.Event) (models.JobSnapshot, bool) {
	return t.withMachine(jobID, func(m *reconcile.Machine) bool {
		return m.Apply(ev, t.clock())
	})
}

// StopJob applies the explicit-stop transition.
func (t *Tracker) StopJob(jobID string) (models.JobSnapshot, bool) {
	return t.withMachine(jobID, func(m *reconcile.Machine) bool {
		return m.Stop(t.clock())
	})
}

// Reset returns the job to idle, clearing all derived state.
func (t *Tracker) Reset(jobID string) (models.JobSnapshot, bool) {
	return t.withMachine(jobID, func(m *reconcile.Machine) bool {
		m.Reset(t.clock())
		return true
	})
}

// GetSnapshot returns the current snapshot for a job.
func (t *Tracker) GetSnapshot(jobID string) (models.JobSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.machines[jobID]
	if !ok {
		return models.JobSnapshot{}, false
	}
	return m.Snapshot(), true
}

// List returns snapshots for every tracked job, newest first.
func (t *Tracker) List() []models.JobSnapshot {
	t.mu.Lock()
	out := make([]models.JobSnapshot, 0, len(t.machines))
	for _, m := range t.machines {
		out = append(out, m.Snapshot())
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Remove forgets a job entirely, e.g. after it has been archived.
func (t *Tracker) Remove(jobID string) {
	t.mu.Lock()
	delete(t.machines, jobID)
	t.mu.Unlock()
}

func (t *Tracker) withMachine(jobID string, op func(*reconcile.Machine) bool) (models.JobSnapshot, bool) {
	t.mu.Lock()
	m, ok := t.machines[jobID]
	if !ok {
		t.mu.Unlock()
		log.Printf("[tracker] no machine for job %s, event ignored", jobID)
		return models.JobSnapshot{}, false
	}
	changed := op(m)
	snap := m.Snapshot()
	// Publishing inside the critical section keeps listener delivery in
	// application order: a stop applied after a progress event can never
	// reach listeners before it.
	if changed {
		t.publish(snap)
	}
	t.mu.Unlock()

	return snap, true
}

func (t *Tracker) publish(snap models.JobSnapshot) {
	for _, fn := range t.onUpdate {
		fn(snap)
	}
}
