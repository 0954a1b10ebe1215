package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ml-dashboard/core/models"
)

func sample(at time.Time, gpu, ram float64) models.ResourceSample {
	return models.ResourceSample{Timestamp: at, GPUPercent: gpu, RAMGigabytes: ram}
}

func TestAppendSample(t *testing.T) {
	now := time.Now()

	t.Run("appends without deduplication", func(t *testing.T) {
		buf := AppendSample(nil, sample(now, 50, 2))
		buf = AppendSample(buf, sample(now, 50, 2))

		assert.Len(t, buf, 2)
	})

	t.Run("evicts oldest past capacity", func(t *testing.T) {
		var buf []models.ResourceSample
		for i := 0; i < SampleCapacity+5; i++ {
			buf = AppendSample(buf, sample(now.Add(time.Duration(i)*time.Second), float64(i), 1))
		}

		require.Len(t, buf, SampleCapacity)
		assert.Equal(t, 5.0, buf[0].GPUPercent)
		assert.Equal(t, float64(SampleCapacity+4), buf[len(buf)-1].GPUPercent)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		buf := AppendSample(nil, sample(now, 10, 1))
		AppendSample(buf, sample(now, 20, 1))

		assert.Len(t, buf, 1)
	})
}

func TestMeans(t *testing.T) {
	now := time.Now()
	buf := []models.ResourceSample{
		sample(now, 40, 2),
		sample(now, 60, 4),
		sample(now, 80, 6),
	}

	assert.Equal(t, 60.0, MeanGPU(buf, 10))
	assert.Equal(t, 70.0, MeanGPU(buf, 2))
	assert.Equal(t, 4.0, MeanRAM(buf, 3))
	assert.Equal(t, 0.0, MeanGPU(nil, 5))
	assert.Equal(t, 0.0, MeanGPU(buf, 0))
}

func TestUsageTracker(t *testing.T) {
	now := time.Now()

	runningSnap := func(jobID string, samples []models.ResourceSample) models.JobSnapshot {
		return models.JobSnapshot{
			JobID:         jobID,
			Status:        models.JobStatusRunning,
			ResourceUsage: samples,
		}
	}

	t.Run("observe computes aggregates", func(t *testing.T) {
		ut := NewUsageTracker(SampleCapacity)
		ut.Observe(runningSnap("job-1", []models.ResourceSample{
			sample(now, 40, 2),
			sample(now.Add(time.Second), 60, 4),
		}))

		u, ok := ut.GetUsage("job-1")
		require.True(t, ok)
		assert.Equal(t, 50.0, u.MeanGPU)
		assert.Equal(t, 3.0, u.MeanRAM)
		assert.Equal(t, 2, u.Samples)
		assert.Equal(t, now.Add(time.Second), u.LastSample)
	})

	t.Run("idle job is dropped", func(t *testing.T) {
		ut := NewUsageTracker(SampleCapacity)
		ut.Observe(runningSnap("job-1", []models.ResourceSample{sample(now, 40, 2)}))
		ut.Observe(models.JobSnapshot{JobID: "job-1", Status: models.JobStatusIdle})

		_, ok := ut.GetUsage("job-1")
		assert.False(t, ok)
	})

	t.Run("forget removes the job", func(t *testing.T) {
		ut := NewUsageTracker(SampleCapacity)
		ut.Observe(runningSnap("job-1", []models.ResourceSample{sample(now, 40, 2)}))
		ut.Forget("job-1")

		_, ok := ut.GetUsage("job-1")
		assert.False(t, ok)
		assert.Empty(t, ut.All())
	})
}
