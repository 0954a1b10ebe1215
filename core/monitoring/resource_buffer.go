package monitoring

import "ml-dashboard/core/models"

// SampleCapacity bounds the resource-usage window kept per job; the
// oldest sample is evicted first once the window is full.
const SampleCapacity = 50

// AppendSample appends a sample to the bounded buffer and returns the
// new buffer. Every append adds — there is no deduplication, even for
// colliding timestamps. The input slice is not mutated.
func AppendSample(buffer []models.ResourceSample, sample models.ResourceSample) []models.ResourceSample {
	out := make([]models.ResourceSample, len(buffer), len(buffer)+1)
	copy(out, buffer)
	out = append(out, sample)
	if len(out) > SampleCapacity {
		out = out[len(out)-SampleCapacity:]
	}
	return out
}

// MeanGPU averages GPU utilization over the last n samples (all samples
// when fewer are buffered). Returns 0 for an empty buffer.
func MeanGPU(samples []models.ResourceSample, n int) float64 {
	return mean(samples, n, func(s models.ResourceSample) float64 { return s.GPUPercent })
}

// MeanRAM averages RAM usage in gigabytes over the last n samples.
func MeanRAM(samples []models.ResourceSample, n int) float64 {
	return mean(samples, n, func(s models.ResourceSample) float64 { return s.RAMGigabytes })
}

func mean(samples []models.ResourceSample, n int, value func(models.ResourceSample) float64) float64 {
	if len(samples) == 0 || n <= 0 {
		return 0
	}
	if n > len(samples) {
		n = len(samples)
	}
	sum := 0.0
	for _, s := range samples[len(samples)-n:] {
		sum += value(s)
	}
	return sum / float64(n)
}
