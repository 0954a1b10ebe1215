package monitoring

import (
	"sync"
	"time"

	"ml-dashboard/core/models"
)

// JobUsage is the rolling resource view kept for one job.
type JobUsage struct {
	JobID      string    `json:"job_id"`
	MeanGPU    float64   `json:"mean_gpu_percent"`
	MeanRAM    float64   `json:"mean_ram_gb"`
	Samples    int       `json:"samples"`
	LastSample time.Time `json:"last_sample"`
}

// UsageTracker maintains per-job resource aggregates for the dashboard.
// It is fed snapshots through Observe, wired as a tracker listener.
type UsageTracker struct {
	mu     sync.RWMutex
	window int
	usage  map[string]JobUsage
}

// NewUsageTracker creates a tracker averaging over the last window samples.
func NewUsageTracker(window int) *UsageTracker {
	return &UsageTracker{
		window: window,
		usage:  make(map[string]JobUsage),
	}
}

// Observe recomputes the aggregates for the job a snapshot belongs to.
func (ut *UsageTracker) Observe(snap models.JobSnapshot) {
	ut.mu.Lock()
	defer ut.mu.Unlock()

	if snap.Status == models.JobStatusIdle || len(snap.ResourceUsage) == 0 {
		delete(ut.usage, snap.JobID)
		return
	}
	last := snap.ResourceUsage[len(snap.ResourceUsage)-1]
	ut.usage[snap.JobID] = JobUsage{
		JobID:      snap.JobID,
		MeanGPU:    MeanGPU(snap.ResourceUsage, ut.window),
		MeanRAM:    MeanRAM(snap.ResourceUsage, ut.window),
		Samples:    len(snap.ResourceUsage),
		LastSample: last.Timestamp,
	}
}

// Forget drops the aggregates for a job, e.g. after reset.
func (ut *UsageTracker) Forget(jobID string) {
	ut.mu.Lock()
	defer ut.mu.Unlock()
	delete(ut.usage, jobID)
}

// GetUsage returns the aggregates for one job.
func (ut *UsageTracker) GetUsage(jobID string) (JobUsage, bool) {
	ut.mu.RLock()
	defer ut.mu.RUnlock()
	u, ok := ut.usage[jobID]
	return u, ok
}

// All returns the aggregates for every tracked job.
func (ut *UsageTracker) All() []JobUsage {
	ut.mu.RLock()
	defer ut.mu.RUnlock()
	out := make([]JobUsage, 0, len(ut.usage))
	for _, u := range ut.usage {
		out = append(out, u)
	}
	return out
}
