package app

import "math"

const (
	defaultMinAmplitude = 0.0
	defaultMaxAmplitude = 1500.0

	// Histogram bin width in amplitude units. Raw amplitudes span a few
	// thousand units, so 1-unit bins would be needlessly fine.
	amplitudeBinWidth = 10.0

	// Narrowest plotted amplitude range, so flat captures still render.
	minimumAmplitudeRange = 100

	// For 20 samples:
	// - 5% percentile  = 1 sample
	// - 95% percentile = 19th sample
	minimumSampleCount = 20
)

// AmplitudeBounds represents the calculated amplitude boundaries
type AmplitudeBounds struct {
	Min  float64 // 5th percentile amplitude
	Max  float64 // 95th percentile amplitude
	Mean float64 // Mean amplitude
}

func defaultAmplitudeBounds() AmplitudeBounds {
	return AmplitudeBounds{
		Min:  defaultMinAmplitude,
		Max:  defaultMaxAmplitude,
		Mean: (defaultMinAmplitude + defaultMaxAmplitude) / 2,
	}
}

// AmplitudeHistogram maintains a histogram of amplitude values with
// fixed-width bins
type AmplitudeHistogram struct {
	bins       map[int]uint32 // Map of bin index to count
	totalCount uint64         // Total number of samples
	minBin     int            // Cache for min bin
	maxBin     int            // Cache for max bin
}

// NewAmplitudeHistogram creates a new histogram
func NewAmplitudeHistogram() *AmplitudeHistogram {
	return &AmplitudeHistogram{
		bins:   make(map[int]uint32),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

// getBinIndex converts an amplitude value to a bin index
func getBinIndex(amplitude float64) int {
	return int(math.Floor(amplitude / amplitudeBinWidth))
}

// scaleDown scales all bin counts down by factor of 2
func (h *AmplitudeHistogram) scaleDown() {
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32

	// Scale down all bins by factor of 2
	for bin := range h.bins {
		h.bins[bin] /= 2
		// Remove bin if it becomes 0
		if h.bins[bin] == 0 {
			delete(h.bins, bin)
		}

		if bin < h.minBin {
			h.minBin = bin
		}
		if bin > h.maxBin {
			h.maxBin = bin
		}
	}
	h.totalCount /= 2
}

// Update adds a new amplitude reading to the histogram
func (h *AmplitudeHistogram) Update(amplitude float64) {
	bin := getBinIndex(amplitude)

	// Check both conditions for scaling
	if h.bins[bin] == math.MaxUint32 || h.totalCount == math.MaxUint64 {
		h.scaleDown()
	}

	h.bins[bin]++
	h.totalCount++

	if bin < h.minBin {
		h.minBin = bin
	}
	if bin > h.maxBin {
		h.maxBin = bin
	}
}

// Clear resets the histogram
func (h *AmplitudeHistogram) Clear() {
	h.bins = make(map[int]uint32)
	h.totalCount = 0
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32
}

// GetPercentileBounds returns amplitude bounds based on percentiles
func (h *AmplitudeHistogram) GetPercentileBounds() AmplitudeBounds {
	if h.totalCount < minimumSampleCount { // Require minimum samples
		return defaultAmplitudeBounds()
	}

	// Calculate target counts for 5th and 95th percentiles
	target5th := h.totalCount * 5 / 100

	// Find the bins corresponding to these percentiles
	var count uint64
	var min5th, max95th int

	// Find 5th percentile
	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += uint64(h.bins[bin])
		if count >= target5th {
			min5th = bin
			break
		}
	}

	// Find 95th percentile
	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += uint64(h.bins[bin])
		if count >= target5th {
			max95th = bin
			break
		}
	}

	// Calculate mean (weighted average of bin centers)
	var sumProduct float64
	for bin := h.minBin; bin <= h.maxBin; bin++ {
		sumProduct += float64(bin) * float64(h.bins[bin])
	}
	mean := (sumProduct / float64(h.totalCount)) * amplitudeBinWidth

	// Ensure a minimum plotted range
	if (max95th-min5th)*int(amplitudeBinWidth) < minimumAmplitudeRange {
		center := (max95th + min5th) / 2
		half := minimumAmplitudeRange / int(amplitudeBinWidth) / 2
		min5th = center - half
		max95th = center + half
	}

	// Add small margin
	margin := (max95th - min5th) * 1 / 10 // 10% margin
	minAmplitude := float64(min5th-margin) * amplitudeBinWidth
	maxAmplitude := float64(max95th+margin+1) * amplitudeBinWidth

	// Amplitudes are magnitudes, never negative.
	minAmplitude = math.Max(0, minAmplitude)

	return AmplitudeBounds{
		Min:  minAmplitude,
		Max:  maxAmplitude,
		Mean: mean,
	}
}

// SmoothBounds represents a smoothed version of the histogram bounds
type SmoothBounds struct {
	hist    *AmplitudeHistogram
	alpha   float64         // Smoothing factor (0-1)
	current AmplitudeBounds // Current smoothed bounds
}

// NewSmoothBounds creates a new bounds smoother
func NewSmoothBounds(alpha float64) *SmoothBounds {
	return &SmoothBounds{
		hist:    NewAmplitudeHistogram(),
		alpha:   alpha,
		current: defaultAmplitudeBounds(),
	}
}

// Update adds a new amplitude reading and returns smoothed bounds
func (s *SmoothBounds) Update(amplitude float64) AmplitudeBounds {
	// Update histogram
	s.hist.Update(amplitude)

	// Get new bounds
	newBounds := s.hist.GetPercentileBounds()

	// Apply exponential smoothing
	s.current.Min = s.current.Min*(1-s.alpha) + newBounds.Min*s.alpha
	s.current.Max = s.current.Max*(1-s.alpha) + newBounds.Max*s.alpha
	s.current.Mean = newBounds.Mean // Use new mean directly

	return s.current
}

// Current returns the current smoothed amplitude bounds
func (s *SmoothBounds) Current() AmplitudeBounds {
	return s.current
}

// Clear resets the histogram and bounds
func (s *SmoothBounds) Clear() {
	s.hist.Clear()
	s.current = defaultAmplitudeBounds()
}
