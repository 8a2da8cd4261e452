package app

import (
	"testing"
)

func TestAmplitudeHistogram_DefaultsBelowMinimumSamples(t *testing.T) {
	h := NewAmplitudeHistogram()
	for i := 0; i < minimumSampleCount-1; i++ {
		h.Update(500)
	}

	bounds := h.GetPercentileBounds()
	if bounds.Min != defaultMinAmplitude || bounds.Max != defaultMaxAmplitude {
		t.Errorf("Expected default bounds, got %+v", bounds)
	}
}

func TestAmplitudeHistogram_PercentileBounds(t *testing.T) {
	h := NewAmplitudeHistogram()

	// 1000 samples spread evenly across 0..1000.
	for i := 0; i < 1000; i++ {
		h.Update(float64(i))
	}

	bounds := h.GetPercentileBounds()
	if bounds.Min < 0 || bounds.Min > 100 {
		t.Errorf("Expected lower bound near the 5th percentile, got %g", bounds.Min)
	}
	if bounds.Max < 900 || bounds.Max > 1200 {
		t.Errorf("Expected upper bound near the 95th percentile, got %g", bounds.Max)
	}
	if bounds.Mean < 400 || bounds.Mean > 600 {
		t.Errorf("Expected mean near 500, got %g", bounds.Mean)
	}
	if bounds.Min >= bounds.Max {
		t.Errorf("Expected Min < Max, got %+v", bounds)
	}
}

func TestAmplitudeHistogram_OutliersClipped(t *testing.T) {
	h := NewAmplitudeHistogram()

	for i := 0; i < 1000; i++ {
		h.Update(500)
	}
	h.Update(100000) // one spike

	bounds := h.GetPercentileBounds()
	if bounds.Max > 1000 {
		t.Errorf("Expected spike to be clipped by the 95th percentile, got max %g", bounds.Max)
	}
}

func TestAmplitudeHistogram_FlatSignalKeepsMinimumRange(t *testing.T) {
	h := NewAmplitudeHistogram()
	for i := 0; i < 100; i++ {
		h.Update(700)
	}

	bounds := h.GetPercentileBounds()
	if bounds.Max-bounds.Min < minimumAmplitudeRange {
		t.Errorf("Expected at least %d units of range, got %g", minimumAmplitudeRange, bounds.Max-bounds.Min)
	}
}

func TestAmplitudeHistogram_NeverNegativeLowerBound(t *testing.T) {
	h := NewAmplitudeHistogram()
	for i := 0; i < 100; i++ {
		h.Update(5)
	}

	if bounds := h.GetPercentileBounds(); bounds.Min < 0 {
		t.Errorf("Expected non-negative lower bound, got %g", bounds.Min)
	}
}

func TestSmoothBounds_ConvergesTowardsData(t *testing.T) {
	s := NewSmoothBounds(0.3)

	var bounds AmplitudeBounds
	for i := 0; i < 500; i++ {
		bounds = s.Update(2000)
	}

	// Default upper bound is 1500; with data at 2000 the smoothed max
	// must move well above it.
	if bounds.Max < 1900 {
		t.Errorf("Expected smoothed max to approach the data, got %g", bounds.Max)
	}
}

func TestSmoothBounds_Clear(t *testing.T) {
	s := NewSmoothBounds(0.3)
	for i := 0; i < 100; i++ {
		s.Update(5000)
	}
	s.Clear()

	bounds := s.Current()
	if bounds.Min != defaultMinAmplitude || bounds.Max != defaultMaxAmplitude {
		t.Errorf("Expected default bounds after clear, got %+v", bounds)
	}
}
