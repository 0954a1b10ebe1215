package handlers

import (
	"encoding/json"
	"net/http"

	"ml-dashboard/core/models"
	"ml-dashboard/core/monitoring"
	"ml-dashboard/core/tracker"
	"ml-dashboard/training/catalog"
)

// DashboardHandler handles dashboard aggregate HTTP requests
type DashboardHandler struct {
	tracker *tracker.Tracker
	usage   *monitoring.UsageTracker
	metrics *monitoring.MetricsExporter
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(trk *tracker.Tracker, usage *monitoring.UsageTracker, metrics *monitoring.MetricsExporter) *DashboardHandler {
	return &DashboardHandler{
		tracker: trk,
		usage:   usage,
		metrics: metrics,
	}
}

// GetSummary handles GET /v1/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	jobs := h.tracker.List()

	byStatus := map[string]int{}
	active := 0
	for _, job := range jobs {
		byStatus[string(job.Status)]++
		if job.Status == models.JobStatusRunning || job.Status == models.JobStatusPaused {
			active++
		}
	}

	usage := h.usage.All()
	var meanGPU, meanRAM float64
	for _, u := range usage {
		meanGPU += u.MeanGPU
		meanRAM += u.MeanRAM
	}
	if len(usage) > 0 {
		meanGPU /= float64(len(usage))
		meanRAM /= float64(len(usage))
	}

	response := map[string]interface{}{
		"total_jobs":  len(jobs),
		"active_jobs": active,
		"by_status":   byStatus,
		"resource_usage": map[string]interface{}{
			"mean_gpu_percent": meanGPU,
			"mean_ram_gb":      meanRAM,
			"reporting_jobs":   len(usage),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetModels handles GET /v1/models
func (h *DashboardHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"models": catalog.All(),
	})
}

// GetMetrics handles GET /metrics in Prometheus text format
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.metrics.GetPrometheusMetrics()))
}
