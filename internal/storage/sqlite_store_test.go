package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	store := NewSqliteStore(filepath.Join(t.TempDir(), "capture.db"))
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return store
}

func TestSqliteStore_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	config := map[string]any{"port": 5500, "windowLength": 100}
	id, err := store.CreateSession(ctx, "wlan0", "5c:02:14:fb:65:52", 20, config)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if id <= 0 {
		t.Fatalf("Expected positive session ID, got %d", id)
	}

	sess, err := store.Session(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if sess.CaptureInterface != "wlan0" {
		t.Errorf("Expected interface wlan0, got %q", sess.CaptureInterface)
	}
	if sess.Target != "5c:02:14:fb:65:52" {
		t.Errorf("Expected target 5c:02:14:fb:65:52, got %q", sess.Target)
	}
	if sess.Bandwidth != 20 {
		t.Errorf("Expected bandwidth 20, got %g", sess.Bandwidth)
	}
	if sess.Config == nil {
		t.Fatal("Expected session config to be stored")
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != id {
		t.Errorf("Expected one session with ID %d, got %v", id, sessions)
	}
}

func TestSqliteStore_FrameRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateSession(ctx, "wlan0", "5c:02:14:fb:65:52", 1.25, nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	base := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	frames := []*Frame{
		{Timestamp: base, Amplitudes: []float64{1, 2, 3, 4}},
		{Timestamp: base.Add(time.Second), Amplitudes: []float64{5, 6, 7, 8}},
		{Timestamp: base.Add(2 * time.Second), Amplitudes: []float64{9, 10, 11, 12}},
	}
	for _, f := range frames {
		if err := store.StoreFrame(ctx, id, f.Timestamp, f.Amplitudes); err != nil {
			t.Fatalf("Failed to store frame: %v", err)
		}
	}

	reader, err := store.ReadFrames(ctx, id)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Close()

	if reader.Session() == nil || reader.Session().ID != id {
		t.Errorf("Expected reader session %d, got %v", id, reader.Session())
	}

	var got []*Frame
	for reader.Next(ctx) {
		got = append(got, reader.Current())
	}
	if err := reader.Error(); err != nil {
		t.Fatalf("Reader failed: %v", err)
	}

	if len(got) != len(frames) {
		t.Fatalf("Expected %d frames, got %d", len(frames), len(got))
	}
	for i, want := range frames {
		if !got[i].Timestamp.Equal(want.Timestamp) {
			t.Errorf("Frame %d: expected timestamp %v, got %v", i, want.Timestamp, got[i].Timestamp)
		}
		if len(got[i].Amplitudes) != len(want.Amplitudes) {
			t.Fatalf("Frame %d: expected %d amplitudes, got %d", i, len(want.Amplitudes), len(got[i].Amplitudes))
		}
		for j, amp := range want.Amplitudes {
			if got[i].Amplitudes[j] != amp {
				t.Errorf("Frame %d amplitude %d: expected %g, got %g", i, j, amp, got[i].Amplitudes[j])
			}
		}
	}
}

func TestSqliteStore_ReadFramesTimeFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateSession(ctx, "wlan0", "5c:02:14:fb:65:52", 1.25, nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	base := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		if err := store.StoreFrame(ctx, id, ts, []float64{float64(i), 0, 0, 0}); err != nil {
			t.Fatalf("Failed to store frame: %v", err)
		}
	}

	reader, err := store.ReadFrames(ctx, id,
		WithTimeRange(base.Add(time.Second), base.Add(3*time.Second)))
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Close()

	var got []float64
	for reader.Next(ctx) {
		got = append(got, reader.Current().Amplitudes[0])
	}
	if err := reader.Error(); err != nil {
		t.Fatalf("Reader failed: %v", err)
	}

	want := []float64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Expected %d frames in range, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Frame %d: expected amplitude %g, got %g", i, want[i], got[i])
		}
	}
}

func TestSqliteStore_ReadFramesUnknownSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.CreateSession(ctx, "wlan0", "5c:02:14:fb:65:52", 20, nil); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if _, err := store.ReadFrames(ctx, 999); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestSessionAppender(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateSession(ctx, "wlan0", "5c:02:14:fb:65:52", 1.25, nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	appender := store.SessionAppender(id)
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	if err := appender.Append(ctx, ts, []float64{1, 2, 3, 4}); err != nil {
		t.Fatalf("Failed to append frame: %v", err)
	}

	reader, err := store.ReadFrames(ctx, id)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Close()

	if !reader.Next(ctx) {
		t.Fatalf("Expected one frame, reader error: %v", reader.Error())
	}
	if got := reader.Current(); len(got.Amplitudes) != 4 || got.Amplitudes[3] != 4 {
		t.Errorf("Unexpected frame %v", got)
	}
}
