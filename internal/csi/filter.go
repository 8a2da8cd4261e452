package csi

import (
	"bytes"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// Offsets within the UDP payload of a CSI frame: the source
	// device's hardware address, followed by the raw subcarrier data
	// running to the end of the payload.
	targetOffset     = 4
	csiPayloadOffset = 18
)

// Filter classifies raw link-layer frames, accepting only UDP frames
// on the configured port that carry CSI data from the target device.
// Classification is pure: malformed or truncated frames are rejects,
// never errors, and no state is mutated across calls other than the
// reusable decoder buffers.
//
// The declared bandwidth attached to accepted frames is fixed session
// configuration: the reporting firmware keeps it constant for the
// lifetime of a capture.
type Filter struct {
	target    Target
	port      layers.UDPPort
	bandwidth float64

	eth     layers.Ethernet
	ip4     layers.IPv4
	udp     layers.UDP
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
}

// NewFilter creates a Filter for frames from target on the given UDP
// port, declaring the session bandwidth in MHz for accepted frames.
func NewFilter(target Target, port int, bandwidth float64) *Filter {
	f := Filter{
		target:    target,
		port:      layers.UDPPort(port),
		bandwidth: bandwidth,
	}

	f.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &f.eth, &f.ip4, &f.udp)
	f.parser.IgnoreUnsupported = true

	return &f
}

// Classify decides whether data is a relevant CSI frame. On acceptance
// it returns the CSI payload (valid until the next call) and the
// declared bandwidth in MHz.
func (f *Filter) Classify(data []byte) (payload []byte, bandwidth float64, ok bool) {
	f.decoded = f.decoded[:0]
	if err := f.parser.DecodeLayers(data, &f.decoded); err != nil {
		return nil, 0, false
	}

	var sawUDP bool
	for _, layerType := range f.decoded {
		if layerType == layers.LayerTypeUDP {
			sawUDP = true
			break
		}
	}
	if !sawUDP {
		return nil, 0, false
	}
	if f.udp.SrcPort != f.port && f.udp.DstPort != f.port {
		return nil, 0, false
	}

	p := f.udp.Payload
	if len(p) < csiPayloadOffset {
		return nil, 0, false
	}
	if !bytes.Equal(p[targetOffset:targetOffset+6], f.target[:]) {
		return nil, 0, false
	}

	return p[csiPayloadOffset:], f.bandwidth, true
}
