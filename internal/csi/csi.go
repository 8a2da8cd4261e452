package csi

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// SubcarriersPerMHz is the number of OFDM subcarriers reported per MHz
// of channel bandwidth.
const SubcarriersPerMHz = 3.2

// SubcarrierCount returns the number of subcarriers N carried by a CSI
// frame for the given channel bandwidth in MHz.
func SubcarrierCount(bandwidth float64) int {
	return int(bandwidth * SubcarriersPerMHz)
}

// Target is the 6-byte hardware address of the device whose CSI frames
// are of interest. Immutable once parsed; set at session start.
type Target [6]byte

// ParseTarget parses a hardware address given as 12 hex digits, with or
// without ":" / "-" separators (e.g. "5c0214fb6552" or "5c:02:14:fb:65:52").
func ParseTarget(s string) (Target, error) {
	var t Target

	cleaned := strings.NewReplacer(":", "", "-", "").Replace(s)
	if len(cleaned) != 2*len(t) {
		return t, fmt.Errorf("invalid target address %q: want %d hex digits", s, 2*len(t))
	}

	p, err := hex.DecodeString(cleaned)
	if err != nil {
		return t, fmt.Errorf("invalid target address %q: %w", s, err)
	}

	copy(t[:], p)
	return t, nil
}

// String returns the address as 12 lowercase hex digits, the form used
// in CSI frame payloads and session metadata.
func (t Target) String() string {
	return hex.EncodeToString(t[:])
}
