// Package storage persists decoded CSI amplitude frames. The primary
// sink is an append-only CSV log, one file per capture run. A SQLite
// store is also provided for captures that need session metadata and
// queryable history.
package storage

import (
	"context"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store provides an interface for managing CSI capture data storage
// operations. It handles capture sessions and per-frame amplitude
// vectors in a thread-safe manner. All operations that write to the
// database should be considered atomic.
type Store interface {
	// CreateSession initializes a new capture session and returns its
	// unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - captureInterface: Network interface the capture runs on (e.g., "wlan0")
	//   - target: MAC address of the transmitter being monitored
	//   - bandwidth: Channel bandwidth in MHz
	//   - config: Optional capture configuration. Can be string, []byte,
	//     or JSON-serializable object
	CreateSession(ctx context.Context, captureInterface, target string, bandwidth float64, config any) (sessionID int64, err error)

	// Session retrieves a specific capture session by its ID.
	Session(ctx context.Context, id int64) (session *Session, err error)

	// Sessions returns all capture sessions stored in the database,
	// ordered by start time in ascending order.
	Sessions(ctx context.Context) (sessions []*Session, err error)

	// StoreFrame saves one decoded amplitude vector for a session.
	// All subcarrier values of the frame are stored in a single atomic
	// transaction.
	StoreFrame(ctx context.Context, sessionID int64, timestamp time.Time, amplitudes []float64) error

	// ReadFrames creates a FrameReader iterating over the amplitude
	// frames of a session in timestamp order. The returned reader must
	// be closed after use to release database resources.
	ReadFrames(ctx context.Context, sessionID int64, opts ...ReaderOption) (*FrameReader, error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}

// Session describes one capture run stored in the database.
type Session struct {
	ID               int64
	StartTime        time.Time
	CaptureInterface string
	Target           string
	Bandwidth        float64
	Config           *string
}

// Frame is one decoded CSI measurement: a capture timestamp and the
// DC-centered amplitude of every subcarrier.
type Frame struct {
	Timestamp  time.Time
	Amplitudes []float64
}
