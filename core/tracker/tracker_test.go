package tracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ml-dashboard/core/models"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestTrackerLifecycle(t *testing.T) {
	t.Run("create job starts idle", func(t *testing.T) {
		trk := New()
		snap := trk.CreateJob("job-1", "iris", "random_forest", models.TaskClassification)

		assert.Equal(t, models.JobStatusIdle, snap.Status)
		assert.Equal(t, "iris", snap.Name)
		assert.Equal(t, "random_forest", snap.ModelType)
	})

	t.Run("events for unknown jobs are ignored", func(t *testing.T) {
		trk := New()
		_, ok := trk.ApplyEvent("missing", &models.ProgressEvent{Progress: ip(10)})
		assert.False(t, ok)
	})

	t.Run("full lifecycle through events", func(t *testing.T) {
		trk := New()
		trk.CreateJob("job-1", "iris", "random_forest", models.TaskClassification)

		snap, ok := trk.StartJob("job-1")
		require.True(t, ok)
		assert.Equal(t, models.JobStatusRunning, snap.Status)

		epoch := 1
		snap, _ = trk.ApplyEvent("job-1", &models.ProgressEvent{
			Epoch:    &epoch,
			Progress: ip(10),
			Metrics:  &models.EventMetrics{TrainLoss: fp(1.0)},
		})
		assert.Equal(t, 10, snap.Progress)
		assert.Len(t, snap.History, 1)

		snap, _ = trk.ApplyEvent("job-1", &models.CompleteEvent{
			Results: &models.TrainingResults{Accuracy: fp(0.95)},
		})
		assert.Equal(t, models.JobStatusCompleted, snap.Status)
		assert.Equal(t, 100, snap.Progress)
		assert.Equal(t, 0.95, snap.Metrics["accuracy"])
	})

	t.Run("recreate replaces prior state", func(t *testing.T) {
		trk := New()
		trk.CreateJob("job-1", "first", "svm", models.TaskClassification)
		trk.StartJob("job-1")
		trk.ApplyEvent("job-1", &models.ErrorEvent{Error: "boom"})

		snap := trk.CreateJob("job-1", "second", "knn", models.TaskClassification)
		assert.Equal(t, models.JobStatusIdle, snap.Status)
		assert.Equal(t, "second", snap.Name)
		assert.Empty(t, snap.Error)
	})

	t.Run("remove forgets the job", func(t *testing.T) {
		trk := New()
		trk.CreateJob("job-1", "iris", "knn", models.TaskClassification)
		trk.Remove("job-1")

		_, ok := trk.GetSnapshot("job-1")
		assert.False(t, ok)
	})
}

func TestTrackerListeners(t *testing.T) {
	t.Run("update listeners see every published snapshot", func(t *testing.T) {
		trk := New()
		var published []models.JobStatus
		trk.OnUpdate(func(snap models.JobSnapshot) {
			published = append(published, snap.Status)
		})

		trk.CreateJob("job-1", "iris", "knn", models.TaskClassification)
		trk.StartJob("job-1")
		trk.ApplyEvent("job-1", &models.CompleteEvent{})

		assert.Equal(t, []models.JobStatus{
			models.JobStatusIdle,
			models.JobStatusRunning,
			models.JobStatusCompleted,
		}, published)
	})

	t.Run("no-op mutations publish nothing", func(t *testing.T) {
		trk := New()
		trk.CreateJob("job-1", "iris", "knn", models.TaskClassification)
		trk.StartJob("job-1")
		trk.ApplyEvent("job-1", &models.CompleteEvent{})

		count := 0
		trk.OnUpdate(func(models.JobSnapshot) { count++ })

		// Terminal state absorbs the event, so nothing is published.
		trk.ApplyEvent("job-1", &models.ProgressEvent{Progress: ip(50)})
		assert.Equal(t, 0, count)
	})

	t.Run("transition listeners observe reasons", func(t *testing.T) {
		trk := New()
		var reasons []string
		trk.OnTransition(func(jobID string, from, to models.JobStatus, reason string) {
			reasons = append(reasons, reason)
		})

		trk.CreateJob("job-1", "iris", "knn", models.TaskClassification)
		trk.StartJob("job-1")
		trk.StopJob("job-1")

		assert.Equal(t, []string{"start_requested", "user_stopped"}, reasons)
	})

	t.Run("concurrent publishes arrive in application order", func(t *testing.T) {
		trk := New()
		var mu sync.Mutex
		var published []models.JobSnapshot
		trk.OnUpdate(func(snap models.JobSnapshot) {
			mu.Lock()
			published = append(published, snap)
			mu.Unlock()
		})

		trk.CreateJob("job-1", "iris", "knn", models.TaskClassification)
		trk.StartJob("job-1")

		var wg sync.WaitGroup
		for i := 1; i <= 50; i++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				trk.ApplyEvent("job-1", &models.ProgressEvent{Progress: ip(p)})
			}(i)
		}
		wg.Wait()
		trk.StopJob("job-1")

		mu.Lock()
		defer mu.Unlock()
		// Progress is monotonic inside the machine, so ordered delivery
		// means no published snapshot may regress it.
		prev := 0
		for _, snap := range published {
			assert.GreaterOrEqual(t, snap.Progress, prev)
			prev = snap.Progress
		}
		require.NotEmpty(t, published)
		assert.Equal(t, models.JobStatusCancelled, published[len(published)-1].Status)
	})

	t.Run("snapshots are isolated copies", func(t *testing.T) {
		trk := New()
		trk.CreateJob("job-1", "iris", "knn", models.TaskClassification)
		trk.StartJob("job-1")
		epoch := 1
		trk.ApplyEvent("job-1", &models.ProgressEvent{
			Epoch:   &epoch,
			Metrics: &models.EventMetrics{TrainLoss: fp(1.0)},
		})

		snap, _ := trk.GetSnapshot("job-1")
		snap.History[0].Epoch = 99
		snap.Metrics = nil

		fresh, _ := trk.GetSnapshot("job-1")
		assert.Equal(t, 1, fresh.History[0].Epoch)
	})
}

func TestTrackerRestore(t *testing.T) {
	t.Run("restore rehydrates stored state", func(t *testing.T) {
		trk := New()
		var published []models.JobStatus
		trk.OnUpdate(func(snap models.JobSnapshot) {
			published = append(published, snap.Status)
		})

		snap := trk.Restore(models.JobSnapshot{
			JobID:    "job-1",
			Name:     "iris",
			Status:   models.JobStatusRunning,
			Progress: 40,
			History:  []models.EpochRecord{{Epoch: 1, TrainLoss: fp(1.0)}},
		})
		assert.Equal(t, models.JobStatusRunning, snap.Status)
		assert.Equal(t, []models.JobStatus{models.JobStatusRunning}, published)

		got, ok := trk.GetSnapshot("job-1")
		require.True(t, ok)
		assert.Equal(t, 40, got.Progress)
		assert.Len(t, got.History, 1)

		// Reconciliation continues from the restored state.
		got, ok = trk.ApplyEvent("job-1", &models.ProgressEvent{Progress: ip(55)})
		require.True(t, ok)
		assert.Equal(t, 55, got.Progress)
	})

	t.Run("restored terminal job absorbs further events", func(t *testing.T) {
		trk := New()
		trk.Restore(models.JobSnapshot{
			JobID:    "job-1",
			Status:   models.JobStatusCompleted,
			Progress: 100,
		})

		snap, ok := trk.ApplyEvent("job-1", &models.ProgressEvent{Progress: ip(10)})
		require.True(t, ok)
		assert.Equal(t, models.JobStatusCompleted, snap.Status)
		assert.Equal(t, 100, snap.Progress)
	})
}

func TestTrackerList(t *testing.T) {
	trk := New()
	trk.CreateJob("job-1", "a", "knn", models.TaskClassification)
	trk.CreateJob("job-2", "b", "svm", models.TaskClassification)

	jobs := trk.List()
	require.Len(t, jobs, 2)
	ids := []string{jobs[0].JobID, jobs[1].JobID}
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, ids)
}
