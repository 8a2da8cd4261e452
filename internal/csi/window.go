package csi

import "fmt"

// DefaultWindowLength is the number of recent amplitude samples kept
// per subcarrier for display.
const DefaultWindowLength = 100

// DefaultGapCadence is the number of accepted frames between min/max
// accumulator resets.
const DefaultGapCadence = 20

// Snapshot is the display-facing view of the window state after an
// update: one window of the most recent amplitudes per subcarrier,
// oldest first, plus the rolling min-max gap.
type Snapshot struct {
	Windows [][]float64
	Gap     float64
}

// WindowState owns, per subcarrier, a fixed-capacity FIFO of the most
// recent amplitude samples and a periodically-reset min/max
// accumulator. The gap reported with every update is the largest
// (max - min) amplitude spread across all subcarriers since the last
// reset; it is a quick stability check for the measurement setup.
//
// The state belongs to a single capture session and has no internal
// synchronization.
type WindowState struct {
	windows [][]float64
	mins    []float64
	maxs    []float64

	cadence int
	frames  uint64 // accepted frames so far; frames % cadence == 0 marks a reset
}

// NewWindowState creates windows for the given number of subcarriers,
// each pre-filled with length zeros, with the min/max accumulator
// resetting every cadence frames.
func NewWindowState(subcarriers, length, cadence int) (*WindowState, error) {
	if subcarriers <= 0 || length <= 0 || cadence <= 0 {
		return nil, fmt.Errorf("invalid window parameters: subcarriers=%d, length=%d, cadence=%d",
			subcarriers, length, cadence)
	}

	windows := make([][]float64, subcarriers)
	for i := range windows {
		windows[i] = make([]float64, length)
	}

	return &WindowState{
		windows: windows,
		mins:    make([]float64, subcarriers),
		maxs:    make([]float64, subcarriers),
		cadence: cadence,
	}, nil
}

// Update evicts the oldest sample from every subcarrier's window,
// appends the new amplitudes, advances the gap accumulator and returns
// a snapshot of the result. The amplitude vector must have exactly one
// value per subcarrier.
func (s *WindowState) Update(amplitudes []float64) (Snapshot, error) {
	if len(amplitudes) != len(s.windows) {
		return Snapshot{}, fmt.Errorf("amplitude vector has %d values, want %d", len(amplitudes), len(s.windows))
	}

	reset := s.frames%uint64(s.cadence) == 0
	for i, v := range amplitudes {
		w := s.windows[i]
		copy(w, w[1:])
		w[len(w)-1] = v

		if reset {
			s.mins[i], s.maxs[i] = v, v
			continue
		}
		if v < s.mins[i] {
			s.mins[i] = v
		}
		if v > s.maxs[i] {
			s.maxs[i] = v
		}
	}
	s.frames++

	return Snapshot{Windows: s.copyWindows(), Gap: s.gap()}, nil
}

// Frames returns the number of accepted frames folded into the state.
func (s *WindowState) Frames() uint64 {
	return s.frames
}

// Subcarriers returns the number of per-subcarrier windows.
func (s *WindowState) Subcarriers() int {
	return len(s.windows)
}

func (s *WindowState) gap() float64 {
	var gap float64
	for i := range s.mins {
		if d := s.maxs[i] - s.mins[i]; d > gap {
			gap = d
		}
	}
	return gap
}

func (s *WindowState) copyWindows() [][]float64 {
	out := make([][]float64, len(s.windows))
	for i, w := range s.windows {
		out[i] = append([]float64(nil), w...)
	}
	return out
}
