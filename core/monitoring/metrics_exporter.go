package monitoring

import (
	"fmt"
	"strings"

	"ml-dashboard/core/models"
)

// SnapshotSource lists the currently tracked job snapshots.
type SnapshotSource interface {
	List() []models.JobSnapshot
}

// MetricsExporter exports training metrics in Prometheus text format
// for scraping by Prometheus/Grafana.
type MetricsExporter struct {
	source SnapshotSource
	usage  *UsageTracker
}

// NewMetricsExporter creates a new metrics exporter
func NewMetricsExporter(source SnapshotSource, usage *UsageTracker) *MetricsExporter {
	return &MetricsExporter{source: source, usage: usage}
}

// GetPrometheusMetrics returns metrics in Prometheus format
func (me *MetricsExporter) GetPrometheusMetrics() string {
	snaps := me.source.List()

	var b strings.Builder

	counts := map[models.JobStatus]int{}
	for _, s := range snaps {
		counts[s.Status]++
	}
	b.WriteString("# HELP training_jobs Number of tracked jobs by status\n")
	b.WriteString("# TYPE training_jobs gauge\n")
	for _, status := range []models.JobStatus{
		models.JobStatusIdle, models.JobStatusRunning, models.JobStatusPaused,
		models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusCancelled,
	} {
		fmt.Fprintf(&b, "training_jobs{status=\"%s\"} %d\n", status, counts[status])
	}

	b.WriteString("# HELP training_job_progress_percent Reported training progress\n")
	b.WriteString("# TYPE training_job_progress_percent gauge\n")
	for _, s := range snaps {
		fmt.Fprintf(&b, "training_job_progress_percent{job_id=\"%s\"} %d\n", s.JobID, s.Progress)
	}

	b.WriteString("# HELP training_job_epochs_total Epochs observed so far\n")
	b.WriteString("# TYPE training_job_epochs_total gauge\n")
	for _, s := range snaps {
		fmt.Fprintf(&b, "training_job_epochs_total{job_id=\"%s\"} %d\n", s.JobID, len(s.History))
	}

	b.WriteString("# HELP training_job_metric Latest scalar training metrics\n")
	b.WriteString("# TYPE training_job_metric gauge\n")
	for _, s := range snaps {
		for _, key := range []string{"accuracy", "loss", "precision", "recall", "f1", "mse", "mae", "r2"} {
			if v, ok := s.Metrics[key]; ok {
				fmt.Fprintf(&b, "training_job_metric{job_id=\"%s\",metric=\"%s\"} %.6f\n", s.JobID, key, v)
			}
		}
	}

	if me.usage != nil {
		b.WriteString("# HELP training_job_gpu_percent Mean recent GPU utilization\n")
		b.WriteString("# TYPE training_job_gpu_percent gauge\n")
		for _, u := range me.usage.All() {
			fmt.Fprintf(&b, "training_job_gpu_percent{job_id=\"%s\"} %.2f\n", u.JobID, u.MeanGPU)
		}
		b.WriteString("# HELP training_job_ram_gb Mean recent RAM usage in gigabytes\n")
		b.WriteString("# TYPE training_job_ram_gb gauge\n")
		for _, u := range me.usage.All() {
			fmt.Fprintf(&b, "training_job_ram_gb{job_id=\"%s\"} %.2f\n", u.JobID, u.MeanRAM)
		}
	}

	return b.String()
}
