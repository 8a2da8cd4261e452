package csi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/cmplx"
)

// ErrInsufficientData is returned when a CSI payload is shorter than
// the 4*N bytes required for the declared bandwidth.
var ErrInsufficientData = errors.New("csi payload shorter than subcarrier data")

// Extract decodes a raw CSI payload into one amplitude per subcarrier.
//
// The first 4*N bytes are interpreted as 2*N little-endian signed
// 16-bit integers, alternating real and imaginary parts, forming N
// complex channel estimates in natural FFT order. The sequence is
// frequency-shifted so index 0 is the most negative frequency, then
// reduced to Euclidean magnitudes. Trailing bytes beyond 4*N are
// ignored.
func Extract(payload []byte, bandwidth float64) ([]float64, error) {
	n := SubcarrierCount(bandwidth)
	if len(payload) < 4*n {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrInsufficientData, len(payload), 4*n)
	}

	samples := make([]complex128, n)
	for i := range samples {
		re := int16(binary.LittleEndian.Uint16(payload[4*i:]))
		im := int16(binary.LittleEndian.Uint16(payload[4*i+2:]))
		samples[i] = complex(float64(re), float64(im))
	}

	amplitudes := make([]float64, n)
	for i, c := range FFTShift(samples) {
		amplitudes[i] = cmplx.Abs(c)
	}
	return amplitudes, nil
}

// FFTShift returns a copy of x reordered so the zero-frequency bin
// sits at the center: the upper half of the sequence is moved in front
// of the lower half. For even lengths the operation is self-inverse.
func FFTShift(x []complex128) []complex128 {
	h := (len(x) + 1) / 2

	out := make([]complex128, 0, len(x))
	out = append(out, x[h:]...)
	return append(out, x[:h]...)
}
