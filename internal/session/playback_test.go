package session

import (
	"errors"
	"testing"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/device"
)

func newPlaybackFixture(t *testing.T, dev *device.FakePlayback) (*PlaybackSession, chan Progress) {
	t.Helper()
	progress := make(chan Progress, 256)
	s := NewPlaybackSession(dev, 10*time.Millisecond, func(p Progress) {
		select {
		case progress <- p:
		default:
		}
	}, testLogger())
	t.Cleanup(s.Dispose)
	return s, progress
}

func drain(ch chan Progress) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func TestLoadUnplayable(t *testing.T) {
	dev := &device.FakePlayback{PrepareErr: errors.New("unsupported container")}
	s, _ := newPlaybackFixture(t, dev)

	err := s.Load("/media/audio/note_1.m4a")
	if !errors.Is(err, apperr.ErrUnplayable) {
		t.Fatalf("err = %v, want ErrUnplayable", err)
	}
	if s.State() != PlaybackError {
		t.Errorf("state = %s, want error", s.State())
	}
	// No transport controls after a failed load.
	if err := s.Play(); err == nil {
		t.Error("play after failed load should error")
	}
}

func TestPlayPauseTransitions(t *testing.T) {
	dev := &device.FakePlayback{PreparedDurationMS: 60000}
	s, progress := newPlaybackFixture(t, dev)

	if err := s.Load("/media/audio/note_1.m4a"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != PlaybackReady || s.DurationMS() != 60000 {
		t.Fatalf("state = %s, duration = %d", s.State(), s.DurationMS())
	}

	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if s.State() != PlaybackPlaying {
		t.Fatalf("state = %s, want playing", s.State())
	}

	// Progress notifications arrive while playing.
	select {
	case p := <-progress:
		if p.DurationMS != 60000 {
			t.Errorf("progress duration = %d", p.DurationMS)
		}
	case <-time.After(time.Second):
		t.Fatal("no progress notification while playing")
	}

	if err := s.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if s.State() != PlaybackPaused {
		t.Errorf("state = %s, want paused", s.State())
	}

	// Notifications stop immediately on leaving Playing.
	drain(progress)
	time.Sleep(60 * time.Millisecond)
	select {
	case p := <-progress:
		t.Errorf("unexpected progress while paused: %+v", p)
	default:
	}

	if err := s.Play(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if s.State() != PlaybackPlaying {
		t.Errorf("state = %s, want playing after resume", s.State())
	}
}

func TestCommitSeekClamps(t *testing.T) {
	dev := &device.FakePlayback{PreparedDurationMS: 60000}
	s, _ := newPlaybackFixture(t, dev)
	if err := s.Load("/media/audio/note_1.m4a"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	s.BeginSeek()
	got, err := s.CommitSeek(150000)
	if err != nil {
		t.Fatalf("CommitSeek: %v", err)
	}
	if got != 60000 {
		t.Errorf("clamped position = %d, want 60000", got)
	}
	if dev.PositionMS() != 60000 {
		t.Errorf("device position = %d, want 60000", dev.PositionMS())
	}

	s.BeginSeek()
	got, _ = s.CommitSeek(-500)
	if got != 0 {
		t.Errorf("clamped position = %d, want 0", got)
	}
}

func TestBeginSeekSuspendsNotifications(t *testing.T) {
	dev := &device.FakePlayback{PreparedDurationMS: 60000}
	s, progress := newPlaybackFixture(t, dev)
	if err := s.Load("/media/audio/note_1.m4a"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	s.BeginSeek()
	drain(progress)
	time.Sleep(60 * time.Millisecond)
	select {
	case p := <-progress:
		t.Errorf("unexpected progress during seek: %+v", p)
	default:
	}

	// Commit resumes notifications from the new position.
	if _, err := s.CommitSeek(30000); err != nil {
		t.Fatalf("CommitSeek: %v", err)
	}
	select {
	case p := <-progress:
		if p.PositionMS != 30000 {
			t.Errorf("resumed position = %d, want 30000", p.PositionMS)
		}
	case <-time.After(time.Second):
		t.Fatal("no progress after commit")
	}
}

func TestReachEndResetsAndNeedsExplicitPlay(t *testing.T) {
	dev := &device.FakePlayback{PreparedDurationMS: 5000}
	s, progress := newPlaybackFixture(t, dev)
	if err := s.Load("/media/audio/note_1.m4a"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	drain(progress)
	dev.Complete()

	if s.State() != PlaybackEnded {
		t.Fatalf("state = %s, want ended", s.State())
	}

	// The end notification carries a reset position.
	var last Progress
	gotEnd := false
	deadline := time.After(time.Second)
	for !gotEnd {
		select {
		case last = <-progress:
			if last.PositionMS == 0 {
				gotEnd = true
			}
		case <-deadline:
			t.Fatal("no end-of-media notification")
		}
	}

	// No auto-replay: the device stays stopped until an explicit Play.
	if dev.Playing() {
		t.Error("device should not be playing after end")
	}
	if err := s.Play(); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if s.State() != PlaybackPlaying {
		t.Errorf("state = %s, want playing", s.State())
	}
	if dev.PositionMS() != 0 {
		t.Errorf("replay position = %d, want 0", dev.PositionMS())
	}
}

func TestDisposeIdempotent(t *testing.T) {
	dev := &device.FakePlayback{PreparedDurationMS: 1000}
	s, _ := newPlaybackFixture(t, dev)
	if err := s.Load("/media/audio/note_1.m4a"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	s.Dispose()
	if !dev.Released() {
		t.Error("device should be released")
	}
	if s.Live() {
		t.Error("session should not be live after dispose")
	}
	// Safe to call again.
	s.Dispose()
	s.Dispose()
}
