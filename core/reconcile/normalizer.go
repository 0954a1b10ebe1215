package reconcile

import (
	"sort"
	"time"

	"ml-dashboard/core/models"
)

// Update is the result of normalizing one raw transport event: the
// history portion plus side signals for the state machine to apply as a
// single atomic mutation.
type Update struct {
	History        HistoryUpdate
	Sample         *models.ResourceSample
	Scalars        map[string]float64
	TotalEpochs    int
	Progress       *int
	ElapsedSeconds *float64
	Message        string
}

// HistoryLookup gives the normalizer read access to the current merged
// history so delta events can fall back to previously observed values.
// Normalization never writes through it.
type HistoryLookup func(epoch int) (models.EpochRecord, bool)

// NormalizeProgress converts a progress event into an Update. A
// non-empty training_history array is authoritative and becomes a full
// replacement set, sorted ascending by epoch; otherwise a present epoch
// number yields a single-epoch delta with field-presence fallback:
// valLoss falls back to trainLoss, trainLoss to the prior record's
// value, and the accuracy pair follows the same pattern. The caller's
// event is never mutated.
func NormalizeProgress(ev *models.ProgressEvent, prior HistoryLookup, now time.Time) Update {
	u := Update{Message: ev.Message}

	if len(ev.TrainingHistory) > 0 {
		replace := make([]models.EpochRecord, len(ev.TrainingHistory))
		for i, rec := range ev.TrainingHistory {
			replace[i] = rec.Clone()
		}
		sort.SliceStable(replace, func(i, j int) bool { return replace[i].Epoch < replace[j].Epoch })
		u.History.Replace = replace
	} else if ev.Epoch != nil && *ev.Epoch > 0 {
		delta := deltaRecord(*ev.Epoch, ev.Metrics, prior)
		u.History.Delta = &delta
	}

	if ev.ResourceUsage != nil {
		ts := now
		if ev.ResourceUsage.Timestamp != nil {
			ts = time.UnixMilli(*ev.ResourceUsage.Timestamp)
		}
		u.Sample = &models.ResourceSample{
			Timestamp:    ts,
			CPUPercent:   ev.ResourceUsage.CPU,
			RAMGigabytes: ev.ResourceUsage.RAM,
			GPUPercent:   ev.ResourceUsage.GPU,
		}
	}

	if ev.TotalEpochs != nil {
		u.TotalEpochs = *ev.TotalEpochs
	}
	if ev.Progress != nil {
		p := *ev.Progress
		u.Progress = &p
	}
	if ev.ElapsedSeconds != nil {
		e := *ev.ElapsedSeconds
		u.ElapsedSeconds = &e
	}
	u.Scalars = progressScalars(ev.Metrics)
	return u
}

// NormalizeComplete converts a complete event's final results into an
// Update: a scalar overlay (classification: accuracy/precision/recall/f1;
// regression: mse/mae/r2, with mse backfilling loss), and a replacement
// history when the results carry one.
func NormalizeComplete(ev *models.CompleteEvent) Update {
	u := Update{Message: ev.Message, Scalars: map[string]float64{}}
	if ev.ElapsedSeconds != nil {
		e := *ev.ElapsedSeconds
		u.ElapsedSeconds = &e
	}

	res := ev.Results
	if res == nil {
		return u
	}
	putScalar(u.Scalars, "accuracy", res.Accuracy)
	putScalar(u.Scalars, "precision", res.Precision)
	putScalar(u.Scalars, "recall", res.Recall)
	putScalar(u.Scalars, "f1", res.F1)
	putScalar(u.Scalars, "mse", res.MSE)
	putScalar(u.Scalars, "mae", res.MAE)
	putScalar(u.Scalars, "r2", res.R2)
	if res.MSE != nil {
		// Regression jobs report no loss of their own; mse stands in.
		u.Scalars["loss"] = *res.MSE
		u.Scalars["valLoss"] = *res.MSE
	}

	if len(res.TrainingHistory) > 0 {
		replace := make([]models.EpochRecord, len(res.TrainingHistory))
		for i, rec := range res.TrainingHistory {
			replace[i] = rec.Clone()
		}
		sort.SliceStable(replace, func(i, j int) bool { return replace[i].Epoch < replace[j].Epoch })
		u.History.Replace = replace
	}
	return u
}

func deltaRecord(epoch int, metrics *models.EventMetrics, prior HistoryLookup) models.EpochRecord {
	rec := models.EpochRecord{Epoch: epoch}
	var prev *models.EpochRecord
	if prior != nil {
		if p, ok := prior(epoch); ok {
			clone := p.Clone()
			prev = &clone
		}
	}

	if metrics != nil {
		rec.TrainLoss = copyOf(metrics.TrainLoss)
		rec.ValLoss = copyOf(metrics.ValLoss)
		rec.TrainAccuracy = copyOf(metrics.TrainAccuracy)
		rec.ValAccuracy = copyOf(metrics.ValAccuracy)
	}
	if rec.TrainLoss == nil && prev != nil {
		rec.TrainLoss = prev.TrainLoss
	}
	if rec.ValLoss == nil {
		rec.ValLoss = copyOf(rec.TrainLoss)
	}
	if rec.TrainAccuracy == nil && prev != nil {
		rec.TrainAccuracy = prev.TrainAccuracy
	}
	if rec.ValAccuracy == nil {
		rec.ValAccuracy = copyOf(rec.TrainAccuracy)
	}
	return rec
}

// progressScalars extracts the sparse snapshot-level metrics a progress
// event may carry. Absent keys mean "not applicable to this task type".
func progressScalars(metrics *models.EventMetrics) map[string]float64 {
	if metrics == nil {
		return nil
	}
	scalars := map[string]float64{}
	putScalar(scalars, "accuracy", metrics.Accuracy)
	putScalar(scalars, "loss", metrics.Loss)
	putScalar(scalars, "mse", metrics.MSE)
	putScalar(scalars, "mae", metrics.MAE)
	putScalar(scalars, "r2", metrics.R2)
	if len(scalars) == 0 {
		return nil
	}
	return scalars
}

func putScalar(m map[string]float64, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func copyOf(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
