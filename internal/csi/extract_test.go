package csi

import (
	"encoding/binary"
	"math"
	"testing"
)

// bandwidth4 yields N = 4 subcarriers.
const bandwidth4 = 1.25

// payloadFromPairs packs (real, imag) int16 pairs into the wire layout.
func payloadFromPairs(pairs [][2]int16) []byte {
	p := make([]byte, 4*len(pairs))
	for i, c := range pairs {
		binary.LittleEndian.PutUint16(p[4*i:], uint16(c[0]))
		binary.LittleEndian.PutUint16(p[4*i+2:], uint16(c[1]))
	}
	return p
}

func TestExtract_ShiftAndMagnitude(t *testing.T) {
	// Four unit samples on the axes: the shift swaps the halves and
	// every magnitude is 1.
	payload := payloadFromPairs([][2]int16{{1, 0}, {0, 1}, {-1, 0}, {0, -1}})

	amplitudes, err := Extract(payload, bandwidth4)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(amplitudes) != 4 {
		t.Fatalf("Expected 4 amplitudes, got %d", len(amplitudes))
	}
	for i, a := range amplitudes {
		if math.Abs(a-1) > 1e-12 {
			t.Errorf("Amplitude %d: expected 1, got %g", i, a)
		}
	}
}

func TestExtract_ShiftedOrder(t *testing.T) {
	// Distinct magnitudes per subcarrier so the reorder is visible:
	// natural order magnitudes 1,2,3,4 must come out as 3,4,1,2.
	payload := payloadFromPairs([][2]int16{{1, 0}, {0, 2}, {-3, 0}, {0, -4}})

	amplitudes, err := Extract(payload, bandwidth4)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	expected := []float64{3, 4, 1, 2}
	for i, want := range expected {
		if math.Abs(amplitudes[i]-want) > 1e-12 {
			t.Errorf("Amplitude %d: expected %g, got %g", i, want, amplitudes[i])
		}
	}
}

func TestExtract_InsufficientData(t *testing.T) {
	payload := payloadFromPairs([][2]int16{{1, 0}, {0, 1}, {-1, 0}})

	if _, err := Extract(payload, bandwidth4); err == nil {
		t.Error("Expected error for short payload")
	}
}

func TestExtract_TrailingBytesIgnored(t *testing.T) {
	payload := payloadFromPairs([][2]int16{{3, 4}, {0, 0}, {0, 0}, {0, 0}})
	payload = append(payload, 0xde, 0xad, 0xbe, 0xef)

	amplitudes, err := Extract(payload, bandwidth4)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// (3,4) lands in the second half after the shift
	if got := amplitudes[2]; math.Abs(got-5) > 1e-12 {
		t.Errorf("Expected amplitude 5 at shifted index 2, got %g", got)
	}
}

func TestExtract_NonNegative(t *testing.T) {
	payload := payloadFromPairs([][2]int16{
		{-32768, -32768}, {32767, -1}, {-7, 7}, {0, 0},
		{1, -1}, {-100, 100}, {12345, -12345}, {-1, 0},
	})

	amplitudes, err := Extract(payload, 2.5) // N = 8
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(amplitudes) != 8 {
		t.Fatalf("Expected 8 amplitudes, got %d", len(amplitudes))
	}
	for i, a := range amplitudes {
		if a < 0 {
			t.Errorf("Amplitude %d is negative: %g", i, a)
		}
	}
}

func TestSubcarrierCount(t *testing.T) {
	testCases := []struct {
		bandwidth float64
		expected  int
	}{
		{20, 64},
		{40, 128},
		{80, 256},
		{1.25, 4},
	}

	for _, tc := range testCases {
		if got := SubcarrierCount(tc.bandwidth); got != tc.expected {
			t.Errorf("SubcarrierCount(%g): expected %d, got %d", tc.bandwidth, tc.expected, got)
		}
	}
}

func TestFFTShift_SelfInverseForEvenLength(t *testing.T) {
	x := make([]complex128, 64)
	for i := range x {
		x[i] = complex(float64(i), float64(-i))
	}

	twice := FFTShift(FFTShift(x))
	for i := range x {
		if twice[i] != x[i] {
			t.Fatalf("Index %d: expected %v, got %v", i, x[i], twice[i])
		}
	}
}

func TestFFTShift_OddLength(t *testing.T) {
	x := []complex128{0, 1, 2, 3, 4}
	expected := []complex128{3, 4, 0, 1, 2}

	shifted := FFTShift(x)
	for i := range expected {
		if shifted[i] != expected[i] {
			t.Errorf("Index %d: expected %v, got %v", i, expected[i], shifted[i])
		}
	}
}
