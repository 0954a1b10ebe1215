package reconcile

import (
	"log"
	"strings"
	"time"

	"ml-dashboard/core/models"
	"ml-dashboard/core/monitoring"
)

// TransitionHook observes lifecycle transitions as they are applied,
// e.g. to persist a transition log entry.
type TransitionHook func(from, to models.JobStatus, reason string)

// Machine owns the lifecycle status and derived state of a single
// training job. All mutation goes through Apply, StartRequested, Stop
// and Reset; callers observe state only through Snapshot. The machine
// itself is not safe for concurrent use — the tracker serializes access.
type Machine struct {
	snap         models.JobSnapshot
	onTransition TransitionHook
	loggedGaps   map[string]bool
}

// NewMachine creates the machine for a freshly launched job, status idle.
func NewMachine(jobID string, now time.Time) *Machine {
	return &Machine{
		snap: models.JobSnapshot{
			JobID:         jobID,
			Status:        models.JobStatusIdle,
			History:       []models.EpochRecord{},
			Checkpoints:   []models.Checkpoint{},
			ResourceUsage: []models.ResourceSample{},
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		loggedGaps: map[string]bool{},
	}
}

// RestoreMachine rebuilds a machine from a previously persisted
// snapshot, e.g. when rehydrating tracked state after a restart. The
// machine picks up exactly where the snapshot left off: a restored
// running job keeps absorbing events, a terminal one stays settled.
func RestoreMachine(snap models.JobSnapshot) *Machine {
	c := snap.Clone()
	if c.History == nil {
		c.History = []models.EpochRecord{}
	}
	if c.Checkpoints == nil {
		c.Checkpoints = []models.Checkpoint{}
	}
	if c.ResourceUsage == nil {
		c.ResourceUsage = []models.ResourceSample{}
	}
	return &Machine{
		snap:       c,
		loggedGaps: map[string]bool{},
	}
}

// SetMeta records the submission metadata shown on the dashboard.
func (m *Machine) SetMeta(name, modelType string, taskType models.TaskType) {
	m.snap.Name = name
	m.snap.ModelType = modelType
	m.snap.TaskType = taskType
}

// SetTransitionHook installs the transition observer.
func (m *Machine) SetTransitionHook(fn TransitionHook) {
	m.onTransition = fn
}

// Snapshot returns a consistent deep copy of the job state.
func (m *Machine) Snapshot() models.JobSnapshot {
	return m.snap.Clone()
}

// StartRequested moves an idle job to running. History, metrics and
// derived state are cleared; startTime stays unset until the first
// epoch-1 progress event arrives.
func (m *Machine) StartRequested(now time.Time) bool {
	if m.snap.Status != models.JobStatusIdle {
		log.Printf("[job %s] start requested in state %s, ignoring", m.snap.JobID, m.snap.Status)
		return false
	}
	m.clearDerived()
	m.transition(models.JobStatusRunning, "start_requested", now)
	return true
}

// Stop applies the explicit-stop transition: a one-way move to
// cancelled. Terminal jobs are left untouched.
func (m *Machine) Stop(now time.Time) bool {
	if m.snap.Status.IsTerminal() {
		return false
	}
	m.transition(models.JobStatusCancelled, "user_stopped", now)
	return true
}

// Reset discards the job's derived state and returns it to idle.
func (m *Machine) Reset(now time.Time) {
	m.clearDerived()
	if m.snap.Status != models.JobStatusIdle {
		m.transition(models.JobStatusIdle, "reset", now)
	} else {
		m.snap.UpdatedAt = now
	}
}

// Apply consumes one transport event and reports whether the snapshot
// changed. Events for terminal jobs are ignored; malformed or unknown
// events are dropped with a diagnostic. Apply never panics or returns an
// error for data-shape problems — it degrades to keeping prior state.
func (m *Machine) Apply(ev models.Event, now time.Time) bool {
	if ev == nil {
		return false
	}
	if m.snap.Status.IsTerminal() {
		log.Printf("[job %s] ignoring %s event after terminal state %s", m.snap.JobID, ev.Kind(), m.snap.Status)
		return false
	}

	switch ev := ev.(type) {
	case *models.ProgressEvent:
		m.applyProgress(ev, now)
	case *models.CompleteEvent:
		m.applyComplete(ev, now)
	case *models.ErrorEvent:
		m.applyError(ev, now)
	case *models.StatusEvent:
		m.applyStatus(ev, now)
	default:
		log.Printf("[job %s] dropping unrecognized event %T", m.snap.JobID, ev)
		return false
	}
	m.snap.UpdatedAt = now
	return true
}

func (m *Machine) applyProgress(ev *models.ProgressEvent, now time.Time) {
	u := NormalizeProgress(ev, m.lookup, now)

	m.snap.History = MergeHistory(m.snap.History, u.History)
	if sig := GapSignature(m.snap.History); sig != "" && !m.loggedGaps[sig] {
		log.Printf("[job %s] epoch history has gaps (missing %s)", m.snap.JobID, sig)
		m.loggedGaps[sig] = true
	}

	if u.History.Delta != nil {
		m.deriveCheckpointFor(u.History.Delta.Epoch, now)
	}
	for _, rec := range u.History.Replace {
		m.deriveCheckpointFor(rec.Epoch, now)
	}

	if u.Sample != nil {
		m.snap.ResourceUsage = monitoring.AppendSample(m.snap.ResourceUsage, *u.Sample)
	}
	if u.TotalEpochs > m.snap.TotalEpochs {
		m.snap.TotalEpochs = u.TotalEpochs
	}
	if u.Progress != nil && *u.Progress > m.snap.Progress {
		m.snap.Progress = *u.Progress
	}
	m.overlayMetrics(u.Scalars)

	if m.snap.StartTime == nil && m.epochObserved(1) {
		t := now
		m.snap.StartTime = &t
	}
	m.updateElapsed(u.ElapsedSeconds, now)
	if u.Message != "" {
		m.snap.Message = u.Message
	}

	// The poll fallback can observe a running backend before any status
	// event arrives.
	if m.snap.Status == models.JobStatusIdle {
		m.transition(models.JobStatusRunning, "progress_received", now)
	}
}

func (m *Machine) applyComplete(ev *models.CompleteEvent, now time.Time) {
	u := NormalizeComplete(ev)

	if u.History.Replace != nil {
		m.snap.History = MergeHistory(m.snap.History, u.History)
		for _, rec := range u.History.Replace {
			m.deriveCheckpointFor(rec.Epoch, now)
		}
	}
	m.overlayMetrics(u.Scalars)
	m.snap.Progress = 100
	m.updateElapsed(u.ElapsedSeconds, now)
	if u.Message != "" {
		m.snap.Message = u.Message
	}
	m.transition(models.JobStatusCompleted, "training_completed", now)
}

func (m *Machine) applyError(ev *models.ErrorEvent, now time.Time) {
	m.snap.Error = ev.Error
	if ev.Message != "" {
		m.snap.Message = ev.Message
	}
	// The transport carries no structured reason code; user-initiated
	// stops are recognized by their error text.
	if strings.Contains(strings.ToLower(ev.Error), "cancelled") {
		m.transition(models.JobStatusCancelled, ev.Error, now)
		return
	}
	m.transition(models.JobStatusFailed, ev.Error, now)
}

func (m *Machine) applyStatus(ev *models.StatusEvent, now time.Time) {
	if ev.Message != "" {
		m.snap.Message = ev.Message
	}
	switch ev.Status {
	case models.JobStatusPaused:
		if m.snap.Status != models.JobStatusPaused {
			m.transition(models.JobStatusPaused, "paused", now)
		}
	case models.JobStatusRunning:
		switch m.snap.Status {
		case models.JobStatusPaused:
			m.transition(models.JobStatusRunning, "resumed", now)
		case models.JobStatusIdle:
			m.transition(models.JobStatusRunning, "status_received", now)
		}
	}
}

func (m *Machine) deriveCheckpointFor(epoch int, now time.Time) {
	if !IsCheckpointEpoch(epoch) {
		return
	}
	rec, ok := m.lookup(epoch)
	if !ok {
		return
	}
	m.snap.Checkpoints = DeriveCheckpoint(m.snap.Checkpoints, epoch, CheckpointLoss(rec), now)
}

func (m *Machine) overlayMetrics(scalars map[string]float64) {
	if len(scalars) == 0 {
		return
	}
	if m.snap.Metrics == nil {
		m.snap.Metrics = map[string]float64{}
	}
	for k, v := range scalars {
		m.snap.Metrics[k] = v
	}
}

// updateElapsed prefers the server-reported elapsed value and otherwise
// derives elapsed time from startTime.
func (m *Machine) updateElapsed(serverElapsed *float64, now time.Time) {
	if serverElapsed != nil {
		m.snap.ElapsedSeconds = *serverElapsed
		return
	}
	if m.snap.StartTime != nil {
		m.snap.ElapsedSeconds = now.Sub(*m.snap.StartTime).Seconds()
	}
}

func (m *Machine) epochObserved(epoch int) bool {
	_, ok := m.lookup(epoch)
	return ok
}

func (m *Machine) lookup(epoch int) (models.EpochRecord, bool) {
	for _, rec := range m.snap.History {
		if rec.Epoch == epoch {
			return rec, true
		}
	}
	return models.EpochRecord{}, false
}

func (m *Machine) transition(to models.JobStatus, reason string, now time.Time) {
	from := m.snap.Status
	m.snap.Status = to
	m.snap.UpdatedAt = now
	log.Printf("[job %s] %s -> %s (%s)", m.snap.JobID, from, to, reason)
	if m.onTransition != nil {
		m.onTransition(from, to, reason)
	}
}

func (m *Machine) clearDerived() {
	m.snap.Progress = 0
	m.snap.Metrics = nil
	m.snap.History = []models.EpochRecord{}
	m.snap.Checkpoints = []models.Checkpoint{}
	m.snap.ResourceUsage = []models.ResourceSample{}
	m.snap.TotalEpochs = 0
	m.snap.StartTime = nil
	m.snap.ElapsedSeconds = 0
	m.snap.Message = ""
	m.snap.Error = ""
	m.loggedGaps = map[string]bool{}
}
