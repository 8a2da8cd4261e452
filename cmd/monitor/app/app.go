package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"csi-monitor/internal/capture"
	"csi-monitor/internal/csi"
	"csi-monitor/internal/storage"
)

// Run wires the capture pipeline from the configuration and runs it
// until the context is cancelled.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	target, err := csi.ParseTarget(config.Capture.Target)
	if err != nil {
		return fmt.Errorf("parsing capture target: %w", err)
	}

	subcarriers := csi.SubcarrierCount(config.Capture.Bandwidth)

	source, err := capture.OpenLive(config.Capture.Interface, config.Capture.Port, config.Capture.Promiscuous)
	if err != nil {
		return fmt.Errorf("opening capture device: %w", err)
	}
	defer source.Close()

	csvLog, err := storage.NewCSVLog(config.Storage.DataDirectory, subcarriers)
	if err != nil {
		return fmt.Errorf("creating capture log: %w", err)
	}
	defer csvLog.Close()

	persisters := []capture.Persister{csvLog}

	if config.Storage.Database {
		dbPath := filepath.Join(config.Storage.DataDirectory,
			fmt.Sprintf("csi_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
		store := storage.NewSqliteStore(dbPath)
		defer store.Close()

		sessionID, err := store.CreateSession(ctx, config.Capture.Interface, target.String(), config.Capture.Bandwidth, config.Capture)
		if err != nil {
			return fmt.Errorf("creating capture session: %w", err)
		}
		persisters = append(persisters, store.SessionAppender(sessionID))

		logger.Info("recording to database", slog.String("path", dbPath), slog.Int64("session", sessionID))
	}

	state, err := csi.NewWindowState(subcarriers, config.Capture.WindowLength, config.Capture.GapCadence)
	if err != nil {
		return fmt.Errorf("creating window state: %w", err)
	}

	filter := csi.NewFilter(target, config.Capture.Port, config.Capture.Bandwidth)

	loop := capture.NewLoop(source, filter, state,
		capture.WithLogger(logger),
		capture.WithPersisters(persisters...),
		capture.WithDisplay(NewGapDisplay(logger)),
	)

	logger.Info("capture started",
		slog.String("interface", config.Capture.Interface),
		slog.String("target", target.String()),
		slog.Float64("bandwidth", config.Capture.Bandwidth),
		slog.Int("subcarriers", subcarriers),
		slog.String("file", csvLog.Path()),
	)

	return loop.Run(ctx)
}
