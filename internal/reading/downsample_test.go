package reading

import (
	"math"
	"testing"
	"time"
)

// makeSeries builds n readings of one type, evenly spaced by step,
// with values generated by f(i).
func makeSeries(t *testing.T, rt ReadingType, start time.Time, n int, step time.Duration, f func(i int) float64) []Reading {
	t.Helper()
	series := make([]Reading, n)
	for i := 0; i < n; i++ {
		series[i] = Reading{
			DeviceID:  1,
			Type:      rt,
			Value:     f(i),
			Timestamp: start.Add(time.Duration(i) * step),
		}
	}
	return series
}

func TestDownsample_BelowThresholdUnchanged(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	series := makeSeries(t, TypeTemperature, start, 100, time.Minute, func(i int) float64 {
		return float64(i)
	})

	got := Downsample(series, start, start.Add(100*time.Minute), 500)
	if len(got) != 100 {
		t.Fatalf("len = %d, want 100 (unchanged below threshold)", len(got))
	}
	for i := range got {
		if got[i] != series[i] {
			t.Fatalf("reading %d modified: %+v != %+v", i, got[i], series[i])
		}
	}
}

func TestDownsample_ThresholdInvariant(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(600 * time.Minute)

	series := makeSeries(t, TypeTemperature, start, 600, time.Minute, func(i int) float64 {
		return 10.0 + float64(i)*0.01
	})

	got := Downsample(series, start, end, 500)
	if len(got) > 500 {
		t.Fatalf("len = %d, want <= 500", len(got))
	}
	if len(got) == 0 {
		t.Fatal("downsampled series is empty")
	}

	// Monotonically increasing raw values keep their direction.
	if got[0].Value >= got[len(got)-1].Value {
		t.Errorf("first averaged value %v not below last %v", got[0].Value, got[len(got)-1].Value)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("bucket %d out of time order", i)
		}
	}
}

func TestDownsample_PerTypePartitioning(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(600 * time.Minute)

	// Dominant temperature series interleaved with a sparse humidity one.
	temps := makeSeries(t, TypeTemperature, start, 600, time.Minute, func(i int) float64 {
		return float64(i)
	})
	hums := makeSeries(t, TypeHumidity, start, 5, 100*time.Minute, func(i int) float64 {
		return 50.0 + float64(i)
	})

	merged := make([]Reading, 0, len(temps)+len(hums))
	merged = append(merged, temps...)
	merged = append(merged, hums...)

	got := Downsample(merged, start, end, 100)

	var gotTemps, gotHums int
	for _, r := range got {
		switch r.Type {
		case TypeTemperature:
			gotTemps++
		case TypeHumidity:
			gotHums++
		}
	}
	if gotTemps > 100 {
		t.Errorf("temperature buckets = %d, want <= 100", gotTemps)
	}
	// The sparse type must not be starved: all five points survive.
	if gotHums != 5 {
		t.Errorf("humidity buckets = %d, want 5", gotHums)
	}

	// Type-major output: all temperature points precede all humidity points.
	lastTemp, firstHum := -1, -1
	for i, r := range got {
		if r.Type == TypeTemperature {
			lastTemp = i
		} else if firstHum == -1 {
			firstHum = i
		}
	}
	if firstHum != -1 && lastTemp > firstHum {
		t.Error("output is not type-major ordered")
	}
}

func TestDownsample_BucketMeanAndMedianTimestamp(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)

	// Six readings, threshold 2: two 5-minute buckets of three readings each.
	series := makeSeries(t, TypeTemperature, start, 6, 100*time.Second, func(i int) float64 {
		return float64(i + 1) // 1..6
	})

	got := Downsample(series, start, end, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	// Bucket 0 holds readings at 0s, 100s, 200s (values 1,2,3).
	if got[0].Value != 2.0 {
		t.Errorf("bucket 0 mean = %v, want 2.0", got[0].Value)
	}
	if !got[0].Timestamp.Equal(start.Add(100 * time.Second)) {
		t.Errorf("bucket 0 timestamp = %v, want median-index reading's", got[0].Timestamp)
	}

	// Bucket 1 holds readings at 300s, 400s, 500s (values 4,5,6).
	if got[1].Value != 5.0 {
		t.Errorf("bucket 1 mean = %v, want 5.0", got[1].Value)
	}
	if !got[1].Timestamp.Equal(start.Add(400 * time.Second)) {
		t.Errorf("bucket 1 timestamp = %v, want median-index reading's", got[1].Timestamp)
	}
}

func TestDownsample_EmptyBucketsEmitNothing(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)

	// Three clusters far apart; threshold 10 leaves most buckets empty.
	series := []Reading{
		{Type: TypeTemperature, Value: 1, Timestamp: start},
		{Type: TypeTemperature, Value: 2, Timestamp: start.Add(time.Minute)},
		{Type: TypeTemperature, Value: 9, Timestamp: start.Add(55 * time.Minute)},
		{Type: TypeTemperature, Value: 4, Timestamp: start.Add(99 * time.Minute)},
	}

	got := Downsample(series, start, end, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 non-empty buckets", len(got))
	}
}

func TestDownsample_ClampsTimestampAtEnd(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)

	series := make([]Reading, 0, 4)
	for i := 0; i < 3; i++ {
		series = append(series, Reading{
			Type: TypeTemperature, Value: float64(i),
			Timestamp: start.Add(time.Duration(i) * time.Minute),
		})
	}
	// A reading exactly at end must land in the last bucket, not panic.
	series = append(series, Reading{Type: TypeTemperature, Value: 100, Timestamp: end})

	got := Downsample(series, start, end, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].Value != 100 {
		t.Errorf("last bucket value = %v, want 100 (clamped end reading)", got[1].Value)
	}
}

func TestDownsample_DegenerateWindow(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	series := []Reading{
		{Type: TypeTemperature, Value: 10, Timestamp: at},
		{Type: TypeTemperature, Value: 20, Timestamp: at},
		{Type: TypeTemperature, Value: 30, Timestamp: at},
	}

	// start == end must not divide by zero: one bucket, one mean.
	got := Downsample(series, at, at, 2)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if math.Abs(got[0].Value-20.0) > 1e-9 {
		t.Errorf("value = %v, want 20.0", got[0].Value)
	}
}
