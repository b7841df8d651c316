package reading

import "time"

// DefaultDownsampleThreshold is the point budget per query when the
// configuration does not override it.
const DefaultDownsampleThreshold = 500

// Downsample reduces a time-ordered reading set to at most threshold
// points per reading type while preserving each series' shape.
//
// Each type is partitioned independently so a sparse type is not starved
// by a dominant one. The [start, end) window is divided into threshold
// equal-width buckets; a reading lands in bucket
// floor((timestamp-start)/width), clamped to the last bucket for
// timestamps equal to end. Each non-empty bucket emits one point: the
// arithmetic mean of its values, stamped with the timestamp of the
// reading at the bucket's median index. Empty buckets emit nothing.
//
// Output order is type-major: all buckets of one type in time order,
// then the next type, in order of first appearance in the input.
// Callers needing strict global timestamp order must re-sort.
//
// Values pass through unchanged; calibration is the caller's concern
// and commutes with the mean for a constant per-device offset.
func Downsample(readings []Reading, start, end time.Time, threshold int) []Reading {
	if threshold <= 0 || len(readings) <= threshold {
		return readings
	}

	// Partition by type, preserving first-appearance order.
	var order []ReadingType
	byType := make(map[ReadingType][]Reading)
	for _, r := range readings {
		if _, seen := byType[r.Type]; !seen {
			order = append(order, r.Type)
		}
		byType[r.Type] = append(byType[r.Type], r)
	}

	out := make([]Reading, 0, threshold*len(order))
	for _, t := range order {
		out = append(out, downsampleSeries(byType[t], start, end, threshold)...)
	}
	return out
}

// downsampleSeries buckets a single type's time-ordered sub-series.
func downsampleSeries(series []Reading, start, end time.Time, threshold int) []Reading {
	window := end.Sub(start)
	if window <= 0 {
		// Degenerate window: a single bucket covering everything.
		if avg, ok := bucketAverage(series); ok {
			return []Reading{avg}
		}
		return nil
	}

	width := window / time.Duration(threshold)
	if width <= 0 {
		width = time.Nanosecond
	}

	buckets := make([][]Reading, threshold)
	for _, r := range series {
		idx := int(r.Timestamp.Sub(start) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= threshold {
			idx = threshold - 1
		}
		buckets[idx] = append(buckets[idx], r)
	}

	out := make([]Reading, 0, threshold)
	for _, bucket := range buckets {
		if avg, ok := bucketAverage(bucket); ok {
			out = append(out, avg)
		}
	}
	return out
}

// bucketAverage folds one bucket into a single averaged reading. The
// representative timestamp is the median-index reading's, not the
// bucket midpoint.
func bucketAverage(bucket []Reading) (Reading, bool) {
	if len(bucket) == 0 {
		return Reading{}, false
	}

	sum := 0.0
	for _, r := range bucket {
		sum += r.Value
	}
	mid := bucket[len(bucket)/2]

	return Reading{
		DeviceID:  mid.DeviceID,
		Type:      mid.Type,
		Value:     sum / float64(len(bucket)),
		Timestamp: mid.Timestamp,
	}, true
}
