package importer

import "runtime"

// AdjustBatchSize tunes a requested batch size by memory headroom: tight
// headroom halves it, generous headroom grows it by half, and the result
// is clamped to [min, max] and to the remaining item count.
func AdjustBatchSize(requested int, headroom float64, min, max, remaining int) int {
	size := requested
	switch {
	case headroom < 0.30:
		size = requested / 2
	case headroom > 0.70:
		size = requested * 3 / 2
	}
	if size < min {
		size = min
	}
	if max > 0 && size > max {
		size = max
	}
	if size > remaining {
		size = remaining
	}
	if size < 1 && remaining > 0 {
		size = 1
	}
	return size
}

// memoryHeadroom reports the fraction of the configured ceiling still
// free. Without a ceiling the answer is neutral: batches keep their
// requested size.
func memoryHeadroom(ceiling uint64) float64 {
	if ceiling == 0 {
		return 0.5
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.Alloc >= ceiling {
		return 0
	}
	return 1 - float64(ms.Alloc)/float64(ceiling)
}
