package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoData indicates either that no amplitude data exists for the given
// parameters, or that all available data has been read from the reader.
var ErrNoData = fmt.Errorf("no data available")

// ReaderOption configures a FrameReader with specific filtering criteria.
type ReaderOption func(*FrameReader)

// WithStartTime sets the start time filter for the frame reader.
// Frames with timestamps before this time will be excluded.
func WithStartTime(t time.Time) ReaderOption {
	return func(r *FrameReader) {
		r.startTime = &t
	}
}

// WithEndTime sets the end time filter for the frame reader.
// Frames with timestamps after this time will be excluded.
func WithEndTime(t time.Time) ReaderOption {
	return func(r *FrameReader) {
		r.endTime = &t
	}
}

// WithTimeRange sets both start and end time filters. This is a
// convenience function equivalent to applying both WithStartTime and
// WithEndTime.
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(r *FrameReader) {
		r.startTime = &startTime
		r.endTime = &endTime
	}
}

// FrameReader provides an iterator-based interface for reading the
// amplitude frames of a capture session, with optional time filtering.
// Rows are stored one subcarrier per row and regrouped into full
// frames on the timestamp boundary.
type FrameReader struct {
	db *sql.DB

	sessionID int64
	session   *Session

	startTime *time.Time // Optional start of time range filter
	endTime   *time.Time // Optional end of time range filter

	currentFrame  *Frame
	nextValue     float64 // First subcarrier of next frame
	nextExists    bool
	nextTimestamp time.Time
	rows          *sql.Rows
	err           error
}

func newFrameReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*FrameReader, error) {
	fr := &FrameReader{
		db:        db,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(fr)
	}
	if err := fr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return fr, nil
}

func (fr *FrameReader) init(ctx context.Context) error {
	if fr.db == nil {
		return errors.New("database connection required")
	}
	if fr.sessionID <= 0 {
		return errors.New("session ID required")
	}
	if fr.startTime != nil && fr.endTime != nil && fr.startTime.After(*fr.endTime) {
		return fmt.Errorf("start time %s is after end time %s", fr.startTime, fr.endTime)
	}

	if err := fr.loadSession(ctx); err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if err := fr.initQuery(ctx); err != nil {
		return fmt.Errorf("initializing query: %w", err)
	}
	return nil
}

func (fr *FrameReader) loadSession(ctx context.Context) (err error) {
	stmt, err := fr.db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var sess Session
	var config sql.NullString
	if err = stmt.QueryRowContext(ctx, fr.sessionID).Scan(&sess.ID, &sess.StartTime, &sess.CaptureInterface, &sess.Target, &sess.Bandwidth, &config); err != nil {
		return fmt.Errorf("querying session: %w", err)
	}
	if config.Valid {
		sess.Config = &config.String
	}

	fr.session = &sess
	return
}

func (fr *FrameReader) initQuery(ctx context.Context) (err error) {
	stmt, err := fr.db.PrepareContext(ctx, selectAmplitudesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var startTime, endTime sql.NullTime
	if fr.startTime != nil {
		startTime.Valid = true
		startTime.Time = fr.startTime.UTC()
	}
	if fr.endTime != nil {
		endTime.Valid = true
		endTime.Time = fr.endTime.UTC()
	}

	if fr.rows, err = stmt.QueryContext(ctx, fr.sessionID, startTime, startTime, endTime, endTime); err != nil {
		return err
	}
	return nil
}

// Session returns metadata about the capture session this reader is
// accessing.
func (fr *FrameReader) Session() *Session {
	return fr.session
}

// Next advances the iterator and returns true if there is another frame
// to read, false when the iteration is complete or an error occurred.
func (fr *FrameReader) Next(ctx context.Context) bool {
	if fr.err != nil || fr.rows == nil {
		return false
	}

	fr.currentFrame = nil

	if fr.nextExists {
		fr.currentFrame = &Frame{
			Timestamp:  fr.nextTimestamp,
			Amplitudes: []float64{fr.nextValue},
		}
		fr.nextExists = false
	}

	for {
		select {
		case <-ctx.Done():
			fr.err = ctx.Err()
			return false
		default:
		}

		if !fr.rows.Next() {
			if fr.currentFrame != nil {
				fr.err = ErrNoData
				return true
			}
			return false
		}

		var timestamp time.Time
		var subcarrier int
		var amplitude float64
		if fr.err = fr.rows.Scan(&timestamp, &subcarrier, &amplitude); fr.err != nil {
			fr.err = fmt.Errorf("scanning amplitude: %w", fr.err)
			return false
		}

		if fr.currentFrame == nil {
			fr.currentFrame = &Frame{
				Timestamp:  timestamp,
				Amplitudes: []float64{amplitude},
			}
			continue
		}

		// Timestamp changed: the current frame is complete, park the
		// row for the next call.
		if !timestamp.Equal(fr.currentFrame.Timestamp) {
			fr.nextValue = amplitude
			fr.nextTimestamp = timestamp
			fr.nextExists = true
			return true
		}

		fr.currentFrame.Amplitudes = append(fr.currentFrame.Amplitudes, amplitude)
	}
}

// Current returns the current frame in the iteration. If called after
// Next() returns false, the behavior is undefined.
func (fr *FrameReader) Current() *Frame {
	return fr.currentFrame
}

// Error returns any error that occurred during iteration. If Next()
// returns false, Error() should be checked to distinguish between end
// of data and an error condition.
func (fr *FrameReader) Error() error {
	if fr.err != nil && !errors.Is(fr.err, ErrNoData) {
		return fr.err
	}
	if fr.rows != nil {
		return fr.rows.Err()
	}
	return nil
}

// Close releases any resources associated with the reader. After Close
// is called, the reader should not be used.
func (fr *FrameReader) Close() error {
	if fr.rows != nil {
		err := fr.rows.Close()
		fr.currentFrame = nil
		fr.nextExists = false
		fr.rows = nil
		return err
	}
	return nil
}
