package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"csi-monitor/internal/csi"
)

// Persister receives every accepted frame's timestamp and amplitude
// vector. Failures are logged by the loop and never stop capture.
type Persister interface {
	Append(ctx context.Context, timestamp time.Time, amplitudes []float64) error
}

// Display consumes the updated windows and gap after every accepted
// frame. Best-effort, like Persister.
type Display interface {
	Update(ctx context.Context, snapshot csi.Snapshot) error
}

// WithLogger sets the logger for the capture loop.
func WithLogger(logger *slog.Logger) func(*Loop) {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithPersisters registers persistence sinks for accepted frames.
func WithPersisters(sinks ...Persister) func(*Loop) {
	return func(l *Loop) {
		l.persisters = append(l.persisters, sinks...)
	}
}

// WithDisplay sets the display sink.
func WithDisplay(d Display) func(*Loop) {
	return func(l *Loop) {
		l.display = d
	}
}

// Loop drives the capture pipeline: it pulls frames from the source,
// suppresses duplicate captures, classifies, extracts amplitudes,
// updates the window state and forwards results to the sinks. It owns
// the source handle and the window state exclusively and processes one
// frame at a time, so persisted and displayed results keep frame
// arrival order.
type Loop struct {
	source Source
	filter *csi.Filter
	state  *csi.WindowState

	persisters []Persister
	display    Display
	logger     *slog.Logger

	prevTimestamp float64
	accepted      uint64
}

// NewLoop creates a capture loop with a discard logger and no sinks.
func NewLoop(source Source, filter *csi.Filter, state *csi.WindowState, options ...func(*Loop)) *Loop {
	l := Loop{
		source: source,
		filter: filter,
		state:  state,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// Run pulls and processes frames until ctx is cancelled or the source
// fails. Cancellation is polled between frames; in-flight processing
// of the current frame always completes. A timed-out read is a normal
// empty result, not an error.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("starting capture")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("capture stopped", slog.Uint64("frames", l.accepted))
			return nil
		default:
		}

		frame, err := l.source.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, ErrTimeout):
				continue
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				continue // picked up by the select above
			default:
				return err
			}
		}

		l.process(ctx, frame)
	}
}

// Accepted returns the number of frames processed so far.
func (l *Loop) Accepted() uint64 {
	return l.accepted
}

func (l *Loop) process(ctx context.Context, frame Frame) {
	timestamp := float64(frame.Timestamp.UnixMicro()) / 1e6

	// Duplicate-capture suppression. This is a heuristic, not a
	// guarantee: two captures count as one when their timestamps match
	// on integer seconds and again after truncation to one decimal.
	if duplicateTimestamp(timestamp, l.prevTimestamp) {
		l.prevTimestamp = timestamp
		return
	}

	payload, bandwidth, ok := l.filter.Classify(frame.Data)
	if !ok {
		return
	}

	amplitudes, err := csi.Extract(payload, bandwidth)
	if err != nil {
		// Accepted frame with a short CSI record: drop it, keep going.
		l.logger.Debug("dropping frame", slog.String("error", err.Error()))
		return
	}

	snapshot, err := l.state.Update(amplitudes)
	if err != nil {
		l.logger.Debug("dropping frame", slog.String("error", err.Error()))
		return
	}

	for _, p := range l.persisters {
		if err := p.Append(ctx, frame.Timestamp, amplitudes); err != nil {
			l.logger.Error("persisting frame", slog.String("error", err.Error()))
		}
	}
	if l.display != nil {
		if err := l.display.Update(ctx, snapshot); err != nil {
			l.logger.Error("updating display", slog.String("error", err.Error()))
		}
	}

	l.prevTimestamp = timestamp
	l.accepted++
}

// duplicateTimestamp reports whether ts and prev agree on integer
// seconds and after truncation to one decimal place.
func duplicateTimestamp(ts, prev float64) bool {
	if math.Trunc(ts) != math.Trunc(prev) {
		return false
	}
	return truncate(ts, 1) == truncate(prev, 1)
}

// truncate cuts v to the given number of decimal places without
// rounding.
func truncate(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Trunc(v*p) / p
}
