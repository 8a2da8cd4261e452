// Package discovery finds CSI transmitter candidates on the local
// network by sweeping an address range with ARP requests. It exists so
// that the capture target MAC can be picked from live hosts instead of
// being copied off a label.
package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

const (
	snapLen     = 128
	readTimeout = 50 * time.Millisecond
)

// Neighbor is one host that answered the ARP sweep.
type Neighbor struct {
	IP           net.IP
	HardwareAddr net.HardwareAddr
}

// ARPScanner broadcasts ARP requests for every address of a network and
// collects the replies.
type ARPScanner struct {
	device  string
	network *net.IPNet
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an ARPScanner.
type Option func(*ARPScanner)

// WithLogger sets the scanner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ARPScanner) {
		s.logger = logger
	}
}

// WithTimeout sets how long the scanner waits for replies after the
// requests have been sent.
func WithTimeout(timeout time.Duration) Option {
	return func(s *ARPScanner) {
		s.timeout = timeout
	}
}

// NewARPScanner creates a scanner sweeping network from device.
func NewARPScanner(device string, network *net.IPNet, options ...Option) (*ARPScanner, error) {
	if device == "" {
		return nil, errors.New("capture device required")
	}
	if network == nil {
		return nil, errors.New("network range required")
	}

	s := &ARPScanner{
		device:  device,
		network: network,
		timeout: 3 * time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Scan sends one ARP request per host address and returns every
// neighbor that replied within the timeout. The result is deduplicated
// by hardware address.
func (s *ARPScanner) Scan(ctx context.Context) ([]Neighbor, error) {
	iface, err := net.InterfaceByName(s.device)
	if err != nil {
		return nil, fmt.Errorf("looking up interface %s: %w", s.device, err)
	}

	srcIP, err := interfaceAddress(iface, s.network)
	if err != nil {
		return nil, err
	}

	handle, err := pcap.OpenLive(s.device, snapLen, false, readTimeout)
	if err != nil {
		return nil, fmt.Errorf("opening device %s: %w", s.device, err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter("arp"); err != nil {
		return nil, fmt.Errorf("setting capture filter: %w", err)
	}

	hosts := hostAddresses(s.network)
	s.logger.Info("sweeping network", "network", s.network.String(), "hosts", len(hosts))

	for _, target := range hosts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := buildRequest(iface.HardwareAddr, srcIP, target)
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", target, err)
		}
		if err := handle.WritePacketData(data); err != nil {
			return nil, fmt.Errorf("sending request for %s: %w", target, err)
		}
	}

	return s.collect(ctx, handle, srcIP)
}

func (s *ARPScanner) collect(ctx context.Context, handle *pcap.Handle, srcIP net.IP) ([]Neighbor, error) {
	var (
		eth     layers.Ethernet
		arp     layers.ARP
		decoded []gopacket.LayerType
	)
	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &arp)
	parser.IgnoreUnsupported = true

	deadline := time.Now().Add(s.timeout)
	seen := make(map[string]struct{})
	var neighbors []Neighbor

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return neighbors, ctx.Err()
		default:
		}

		data, _, err := handle.ReadPacketData()
		if err != nil {
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			return neighbors, fmt.Errorf("reading reply: %w", err)
		}

		if err := parser.DecodeLayers(data, &decoded); err != nil {
			continue
		}

		var isARP bool
		for _, layerType := range decoded {
			if layerType == layers.LayerTypeARP {
				isARP = true
				break
			}
		}
		if !isARP || arp.Operation != layers.ARPReply {
			continue
		}
		if net.IP(arp.SourceProtAddress).Equal(srcIP) {
			continue // our own chatter
		}

		key := string(arp.SourceHwAddress)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		neighbor := Neighbor{
			IP:           append(net.IP(nil), arp.SourceProtAddress...),
			HardwareAddr: append(net.HardwareAddr(nil), arp.SourceHwAddress...),
		}
		neighbors = append(neighbors, neighbor)
		s.logger.Debug("neighbor replied", "ip", neighbor.IP, "mac", neighbor.HardwareAddr)
	}

	return neighbors, nil
}

// interfaceAddress returns the IPv4 address of iface that belongs to
// network, or the first IPv4 address when none matches.
func interfaceAddress(iface *net.Interface, network *net.IPNet) (net.IP, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("listing addresses of %s: %w", iface.Name, err)
	}

	var first net.IP
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		if network.Contains(ip4) {
			return ip4, nil
		}
		if first == nil {
			first = ip4
		}
	}
	if first == nil {
		return nil, fmt.Errorf("interface %s has no IPv4 address", iface.Name)
	}
	return first, nil
}

// hostAddresses enumerates the usable host addresses of an IPv4
// network, excluding the network and broadcast addresses.
func hostAddresses(network *net.IPNet) []net.IP {
	ip4 := network.IP.To4()
	if ip4 == nil {
		return nil
	}
	ones, bits := network.Mask.Size()
	if bits != 32 || ones > 30 {
		// /31 and /32 have no usable broadcast scan range.
		return nil
	}

	base := uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
	base &= ^uint32(0) << (32 - ones)
	size := uint32(1) << (32 - ones)

	hosts := make([]net.IP, 0, size-2)
	for i := uint32(1); i < size-1; i++ {
		addr := base + i
		hosts = append(hosts, net.IPv4(byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr)).To4())
	}
	return hosts
}

func buildRequest(srcMAC net.HardwareAddr, srcIP, dstIP net.IP) ([]byte, error) {
	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: srcIP.To4(),
		DstHwAddress:      bytes.Repeat([]byte{0}, 6),
		DstProtAddress:    dstIP.To4(),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
