// Command discover sweeps a network range with ARP requests and prints
// the hosts that answered, so a capture target MAC can be picked from
// live devices.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csi-monitor/internal/discovery"
)

func main() {
	var (
		device  string
		cidr    string
		timeout time.Duration
		verbose bool
	)
	flag.StringVar(&device, "i", "", "Network interface to sweep from")
	flag.StringVar(&cidr, "r", "192.168.1.0/24", "Network range to sweep, in CIDR notation")
	flag.DurationVar(&timeout, "t", 3*time.Second, "How long to wait for replies")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if device == "" {
		logger.Error("no network interface provided")
		os.Exit(1)
	}

	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to parse network range: %s", err.Error()), slog.String("range", cidr))
		os.Exit(1)
	}

	scanner, err := discovery.NewARPScanner(device, network,
		discovery.WithLogger(logger),
		discovery.WithTimeout(timeout),
	)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	neighbors, err := scanner.Scan(ctx)
	if err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}

	if len(neighbors) == 0 {
		logger.Info("no hosts replied", slog.String("range", network.String()))
		return
	}

	for _, n := range neighbors {
		fmt.Printf("IP: %s, MAC: %s\n", n.IP, n.HardwareAddr)
	}
}
