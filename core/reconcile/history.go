package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"ml-dashboard/core/models"
)

// HistoryUpdate is the normalized history portion of one progress event:
// either a full authoritative replacement set or a single-epoch delta.
// At most one of the two fields is set.
type HistoryUpdate struct {
	Replace []models.EpochRecord
	Delta   *models.EpochRecord
}

// MergeHistory merges an update into the current epoch history and
// returns the new history, strictly ascending by epoch with no
// duplicates. The inputs are not mutated.
//
// A replacement set wins unconditionally, even when it is smaller than
// the current history: authoritative snapshots may legitimately shrink a
// speculative view, e.g. after a backend restart. A delta replaces the
// record for its epoch in place when one exists, otherwise it is
// inserted in epoch order.
func MergeHistory(current []models.EpochRecord, update HistoryUpdate) []models.EpochRecord {
	if update.Replace != nil {
		return sortedDedupe(update.Replace)
	}
	if update.Delta == nil {
		return current
	}

	delta := update.Delta.Clone()
	merged := make([]models.EpochRecord, len(current), len(current)+1)
	copy(merged, current)

	for i, rec := range merged {
		if rec.Epoch == delta.Epoch {
			merged[i] = delta
			return merged
		}
	}
	merged = append(merged, delta)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Epoch < merged[j].Epoch })
	return merged
}

// sortedDedupe orders records ascending by epoch, keeping the last
// occurrence when the producer sent duplicates.
func sortedDedupe(records []models.EpochRecord) []models.EpochRecord {
	out := make([]models.EpochRecord, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Epoch < out[j].Epoch })

	deduped := out[:0]
	for _, rec := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Epoch == rec.Epoch {
			deduped[n-1] = rec
			continue
		}
		deduped = append(deduped, rec)
	}
	return deduped
}

// maxGapEpochs bounds how many missing epochs GapSignature enumerates.
// A single event with an absurd epoch number must not translate into an
// unbounded allocation.
const maxGapEpochs = 32

// GapSignature describes the missing epoch numbers of a merged history,
// or "" when the sequence is contiguous. Gaps are expected under lossy
// delivery and are surfaced as a diagnostic only, never an error. Past
// maxGapEpochs the remainder is summarized as a count.
func GapSignature(history []models.EpochRecord) string {
	if len(history) < 2 {
		return ""
	}
	var missing []string
	total := 0
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1].Epoch, history[i].Epoch
		for e := prev + 1; e < cur && len(missing) < maxGapEpochs; e++ {
			missing = append(missing, fmt.Sprintf("%d", e))
		}
		if gap := cur - prev - 1; gap > 0 {
			total += gap
		}
	}
	if total > maxGapEpochs {
		missing = append(missing, fmt.Sprintf("+%d more", total-maxGapEpochs))
	}
	return strings.Join(missing, ",")
}
