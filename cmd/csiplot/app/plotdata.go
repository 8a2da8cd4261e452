package app

import (
	"math"
	"time"

	"csi-monitor/internal/storage"
)

// PlotData accumulates the frames of one capture and tracks the
// amplitude bounds used to scale the rendered views.
type PlotData struct {
	Subcarriers                  int
	TimestampStart, TimestampEnd time.Time
	BoundsTracker                *SmoothBounds
	Timestamps                   []time.Time
	Frames                       [][]float64
}

func NewPlotData(b *SmoothBounds) *PlotData {
	return &PlotData{
		BoundsTracker: b,
		Timestamps:    make([]time.Time, 0),
		Frames:        make([][]float64, 0),
	}
}

func (p *PlotData) Update(frame *storage.Frame) {
	p.Subcarriers = max(p.Subcarriers, len(frame.Amplitudes))

	if p.TimestampStart.IsZero() || p.TimestampStart.After(frame.Timestamp) {
		p.TimestampStart = frame.Timestamp
	}
	if p.TimestampEnd.IsZero() || p.TimestampEnd.Before(frame.Timestamp) {
		p.TimestampEnd = frame.Timestamp
	}

	for _, amp := range frame.Amplitudes {
		p.BoundsTracker.Update(amp)
	}

	p.Timestamps = append(p.Timestamps, frame.Timestamp)
	p.Frames = append(p.Frames, frame.Amplitudes)
}

// SubcarrierStats returns the per-subcarrier mean and standard
// deviation across all accumulated frames.
func (p *PlotData) SubcarrierStats() (means, stddevs []float64) {
	if p.Subcarriers == 0 || len(p.Frames) == 0 {
		return nil, nil
	}

	means = make([]float64, p.Subcarriers)
	stddevs = make([]float64, p.Subcarriers)
	counts := make([]int, p.Subcarriers)

	for _, frame := range p.Frames {
		for i, amp := range frame {
			means[i] += amp
			counts[i]++
		}
	}
	for i := range means {
		if counts[i] > 0 {
			means[i] /= float64(counts[i])
		}
	}

	for _, frame := range p.Frames {
		for i, amp := range frame {
			d := amp - means[i]
			stddevs[i] += d * d
		}
	}
	for i := range stddevs {
		if counts[i] > 1 {
			stddevs[i] = math.Sqrt(stddevs[i] / float64(counts[i]-1))
		} else {
			stddevs[i] = 0
		}
	}

	return means, stddevs
}
