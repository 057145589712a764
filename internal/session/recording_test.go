package session

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/device"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) *mediastore.FS {
	t.Helper()
	s, err := mediastore.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

// fakeClock returns a controllable clock starting at a fixed instant.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestShortRecordingReportsAtLeastOneSecond(t *testing.T) {
	store := testStore(t)
	dev := &device.FakeCapture{StopPayload: []byte("audio")}
	clock := newFakeClock()
	s := NewRecordingSession(dev, store, testLogger(), WithClock(clock.Now))

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != RecordingActive {
		t.Fatalf("state = %s, want recording", s.State())
	}

	clock.Advance(300 * time.Millisecond)
	res, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.DurationSeconds != 1 {
		t.Errorf("duration = %d, want 1", res.DurationSeconds)
	}
	if !store.Exists(res.Audio) {
		t.Error("finished audio file should exist")
	}
	if !dev.Released() {
		t.Error("device should be released after stop")
	}
}

func TestDurationRounds(t *testing.T) {
	store := testStore(t)
	dev := &device.FakeCapture{StopPayload: []byte("audio")}
	clock := newFakeClock()
	s := NewRecordingSession(dev, store, testLogger(), WithClock(clock.Now))

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(2600 * time.Millisecond)
	res, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.DurationSeconds != 3 {
		t.Errorf("duration = %d, want 3", res.DurationSeconds)
	}
}

func TestEmptyRecordingFailsAndDeletesFile(t *testing.T) {
	store := testStore(t)
	dev := &device.FakeCapture{} // writes nothing on stop
	s := NewRecordingSession(dev, store, testLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err := s.Stop()
	if !errors.Is(err, apperr.ErrEmptyRecording) {
		t.Fatalf("err = %v, want ErrEmptyRecording", err)
	}
	if s.State() != RecordingFailed {
		t.Errorf("state = %s, want failed", s.State())
	}

	// The zero-length target file no longer exists.
	entries, _ := os.ReadDir(filepath.Join(store.Root(), string(models.CategoryAudio)))
	if len(entries) != 0 {
		t.Errorf("leftover files: %v", entries)
	}
}

func TestDeviceStopErrorAbsorbed(t *testing.T) {
	store := testStore(t)
	dev := &device.FakeCapture{
		StopPayload: []byte("audio"),
		StopErr:     errors.New("device hiccup"),
	}
	s := NewRecordingSession(dev, store, testLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// The stop error is absorbed: the non-empty file decides the outcome.
	res, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res == nil || res.DurationSeconds < 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestStopTwiceReturnsSameOutcome(t *testing.T) {
	store := testStore(t)
	dev := &device.FakeCapture{StopPayload: []byte("audio")}
	s := NewRecordingSession(dev, store, testLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	second, err := s.Stop()
	if err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if first != second {
		t.Error("second stop should return the prior result")
	}
}

func TestStartFailureDiscardsAllocation(t *testing.T) {
	store := testStore(t)
	dev := &device.FakeCapture{OpenErr: errors.New("mic unavailable")}
	s := NewRecordingSession(dev, store, testLogger())

	if err := s.Start(); err == nil {
		t.Fatal("expected error from failing device open")
	}
	if s.State() != RecordingFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
	entries, _ := os.ReadDir(filepath.Join(store.Root(), string(models.CategoryAudio)))
	if len(entries) != 0 {
		t.Errorf("allocation should be discarded, found: %v", entries)
	}
}
