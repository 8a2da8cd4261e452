package app

import (
	"context"
	"log/slog"

	"csi-monitor/internal/csi"
)

// gapLogInterval is how many frames pass between info-level gap lines.
const gapLogInterval = 100

// GapDisplay is the live view of a running capture: it reports the gap
// statistic of every window snapshot on the logger. Each frame is
// logged at debug level, with a periodic info-level line so a capture
// at the default level still shows signal movement.
type GapDisplay struct {
	logger *slog.Logger
	frames uint64
}

func NewGapDisplay(logger *slog.Logger) *GapDisplay {
	return &GapDisplay{logger: logger}
}

func (d *GapDisplay) Update(_ context.Context, snapshot csi.Snapshot) error {
	d.frames++

	level := slog.LevelDebug
	if d.frames%gapLogInterval == 0 {
		level = slog.LevelInfo
	}
	d.logger.Log(context.Background(), level, "window updated",
		slog.Uint64("frames", d.frames),
		slog.Float64("gap", snapshot.Gap),
	)
	return nil
}
