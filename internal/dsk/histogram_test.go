package dsk

import "testing"

func TestHistogramOverflowBucket(t *testing.T) {
	h := NewHistogram(10)
	h.Add(3)
	h.Add(3)
	h.Add(50)
	counts := h.Counts()
	if counts[3] != 2 {
		t.Fatalf("bucket 3 = %d, want 2", counts[3])
	}
	if counts[10] != 1 {
		t.Fatalf("overflow bucket = %d, want 1", counts[10])
	}
}

func TestHistogramDefaultMax(t *testing.T) {
	h := NewHistogram(0)
	if len(h.buckets) != 10001 {
		t.Fatalf("default bucket count = %d, want 10001", len(h.buckets))
	}
}

func TestHistogramAutoThresholdFindsLocalMinimum(t *testing.T) {
	h := NewHistogram(20)
	freqs := []uint64{0, 100, 60, 20, 5, 8, 15, 30, 40, 35, 10}
	for ab, n := range freqs {
		for i := uint64(0); i < n; i++ {
			h.Add(uint16(ab))
		}
	}
	got := h.AutoThreshold()
	if got != 4 {
		t.Fatalf("AutoThreshold() = %d, want 4", got)
	}
}

func TestHistogramAutoThresholdFallsBackToOne(t *testing.T) {
	h := NewHistogram(5)
	for ab := 0; ab <= 5; ab++ {
		h.Add(uint16(ab))
	}
	if got := h.AutoThreshold(); got != 1 {
		t.Fatalf("AutoThreshold() = %d, want fallback 1", got)
	}
}
