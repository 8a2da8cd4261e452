package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gopacket/pcap"
)

const (
	snapLen = 65535

	// ReadTimeout bounds each wait for a frame so the loop can poll
	// for cancellation between reads.
	ReadTimeout = 50 * time.Millisecond
)

// ErrTimeout is the normal empty result of a bounded wait on a capture
// source: no frame arrived within the read timeout.
var ErrTimeout = errors.New("timed out waiting for a frame")

// Frame is one captured link-layer frame with its capture timestamp.
// The data buffer is only valid until the next read from the source.
type Frame struct {
	Timestamp time.Time
	Data      []byte
}

// Source supplies captured frames one at a time. Next blocks for at
// most the source's read timeout and returns ErrTimeout when no frame
// arrived; any other error is a capture failure.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// PcapSource reads live traffic from a network interface through a
// BPF filter restricting capture to UDP on one port.
type PcapSource struct {
	handle *pcap.Handle
	device string
}

// OpenLive opens device for live capture and installs the CSI traffic
// filter. An unavailable interface or missing permissions surface here,
// before any session state exists.
func OpenLive(device string, port int, promiscuous bool) (*PcapSource, error) {
	handle, err := pcap.OpenLive(device, snapLen, promiscuous, ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("opening capture on %s: %w", device, err)
	}

	if err = handle.SetBPFFilter(fmt.Sprintf("udp and port %d", port)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("setting capture filter: %w", err)
	}

	return &PcapSource{handle: handle, device: device}, nil
}

func (s *PcapSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	data, ci, err := s.handle.ReadPacketData()
	if err != nil {
		if errors.Is(err, pcap.NextErrorTimeoutExpired) {
			return Frame{}, ErrTimeout
		}
		return Frame{}, fmt.Errorf("reading from %s: %w", s.device, err)
	}

	return Frame{Timestamp: ci.Timestamp, Data: data}, nil
}

func (s *PcapSource) Close() error {
	s.handle.Close()
	return nil
}

// Device returns the name of the capture interface.
func (s *PcapSource) Device() string {
	return s.device
}
