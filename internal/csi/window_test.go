package csi

import (
	"math"
	"testing"
)

func TestWindowState_FIFOOrder(t *testing.T) {
	const length = 5
	state, err := NewWindowState(1, length, DefaultGapCadence)
	if err != nil {
		t.Fatalf("Failed to create window state: %v", err)
	}

	// Push more than the capacity of distinct values; the window must
	// keep exactly the last five in arrival order.
	var last Snapshot
	for v := 1.0; v <= 8; v++ {
		last, err = state.Update([]float64{v * 10})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	expected := []float64{40, 50, 60, 70, 80}
	window := last.Windows[0]
	if len(window) != length {
		t.Fatalf("Expected window length %d, got %d", length, len(window))
	}
	for i, want := range expected {
		if window[i] != want {
			t.Errorf("Window index %d: expected %g, got %g", i, want, window[i])
		}
	}
}

func TestWindowState_ColdStartFill(t *testing.T) {
	state, err := NewWindowState(2, 4, DefaultGapCadence)
	if err != nil {
		t.Fatalf("Failed to create window state: %v", err)
	}

	snap, err := state.Update([]float64{7, 9})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// Pre-filled with zeros, the single sample sits at the tail.
	expected := [][]float64{{0, 0, 0, 7}, {0, 0, 0, 9}}
	for i, want := range expected {
		for j, v := range want {
			if snap.Windows[i][j] != v {
				t.Errorf("Window %d index %d: expected %g, got %g", i, j, v, snap.Windows[i][j])
			}
		}
	}
}

func TestWindowState_GapResetCycle(t *testing.T) {
	const cadence = 20
	state, err := NewWindowState(1, DefaultWindowLength, cadence)
	if err != nil {
		t.Fatalf("Failed to create window state: %v", err)
	}

	// Monotonically increasing amplitude 1..20: just before the reset
	// boundary the gap is 20-1=19.
	var snap Snapshot
	for v := 1.0; v <= cadence; v++ {
		snap, err = state.Update([]float64{v})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	if snap.Gap != 19 {
		t.Errorf("Expected gap 19 after %d frames, got %g", cadence, snap.Gap)
	}

	// The 21st frame resets the accumulator: gap collapses to zero.
	snap, err = state.Update([]float64{21})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if snap.Gap != 0 {
		t.Errorf("Expected gap 0 immediately after reset, got %g", snap.Gap)
	}

	// And widens again as values diverge within the new cycle.
	snap, _ = state.Update([]float64{24})
	if snap.Gap != 3 {
		t.Errorf("Expected gap 3, got %g", snap.Gap)
	}
}

func TestWindowState_GapAcrossSubcarriers(t *testing.T) {
	state, err := NewWindowState(3, 10, 5)
	if err != nil {
		t.Fatalf("Failed to create window state: %v", err)
	}

	updates := [][]float64{
		{10, 100, 1000},
		{12, 130, 1001},
		{11, 90, 1002},
	}

	var snap Snapshot
	for _, u := range updates {
		snap, err = state.Update(u)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	// Spreads: 2, 40, 2 -> reported gap is the widest subcarrier.
	if math.Abs(snap.Gap-40) > 1e-12 {
		t.Errorf("Expected gap 40, got %g", snap.Gap)
	}
}

func TestWindowState_GapNeverNegative(t *testing.T) {
	state, err := NewWindowState(1, 10, 3)
	if err != nil {
		t.Fatalf("Failed to create window state: %v", err)
	}

	for _, v := range []float64{5, 5, 5, 2, 2, 2} {
		snap, err := state.Update([]float64{v})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if snap.Gap < 0 {
			t.Fatalf("Gap is negative: %g", snap.Gap)
		}
	}
}

func TestWindowState_InvalidParameters(t *testing.T) {
	testCases := []struct {
		name        string
		subcarriers int
		length      int
		cadence     int
	}{
		{"zero subcarriers", 0, 100, 20},
		{"zero length", 64, 0, 20},
		{"zero cadence", 64, 100, 0},
		{"negative length", 64, -1, 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewWindowState(tc.subcarriers, tc.length, tc.cadence); err == nil {
				t.Error("Expected error for invalid parameters")
			}
		})
	}
}

func TestWindowState_VectorLengthMismatch(t *testing.T) {
	state, err := NewWindowState(4, 10, 20)
	if err != nil {
		t.Fatalf("Failed to create window state: %v", err)
	}

	if _, err := state.Update([]float64{1, 2, 3}); err == nil {
		t.Error("Expected error for short amplitude vector")
	}
}

func TestWindowState_SnapshotIsDetached(t *testing.T) {
	state, err := NewWindowState(1, 3, 20)
	if err != nil {
		t.Fatalf("Failed to create window state: %v", err)
	}

	first, _ := state.Update([]float64{1})
	second, _ := state.Update([]float64{2})

	if first.Windows[0][2] != 1 {
		t.Errorf("Earlier snapshot mutated by later update: %v", first.Windows[0])
	}
	if second.Windows[0][2] != 2 {
		t.Errorf("Unexpected window tail: %v", second.Windows[0])
	}
}
