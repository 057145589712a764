package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/device"
)

// PlaybackState enumerates the playback state machine.
type PlaybackState int

const (
	PlaybackIdle PlaybackState = iota
	PlaybackLoading
	PlaybackReady
	PlaybackPlaying
	PlaybackPaused
	PlaybackEnded
	PlaybackError
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackIdle:
		return "idle"
	case PlaybackLoading:
		return "loading"
	case PlaybackReady:
		return "ready"
	case PlaybackPlaying:
		return "playing"
	case PlaybackPaused:
		return "paused"
	case PlaybackEnded:
		return "ended"
	case PlaybackError:
		return "error"
	default:
		return "unknown"
	}
}

// Progress is one periodic playback position notification.
type Progress struct {
	PositionMS int `json:"position_ms"`
	DurationMS int `json:"duration_ms"`
}

// ProgressFunc receives progress notifications while the session is playing,
// and a final position-zero notification when the media ends.
type ProgressFunc func(Progress)

// PlaybackSession wraps one exclusive playback device instance. All state
// transitions go through the session's mutex, including the asynchronous
// device-completion callback and the progress ticker, so there is a single
// event-ingestion point.
type PlaybackSession struct {
	dev      device.PlaybackDevice
	interval time.Duration
	notify   ProgressFunc
	logger   *slog.Logger

	mu         sync.Mutex
	state      PlaybackState
	durationMS int
	seeking    bool
	disposed   bool
	tickerStop chan struct{}
}

// NewPlaybackSession creates an idle session bound to the given device.
// interval is the progress notification period; notify may be nil.
func NewPlaybackSession(dev device.PlaybackDevice, interval time.Duration, notify ProgressFunc, logger *slog.Logger) *PlaybackSession {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &PlaybackSession{
		dev:      dev,
		interval: interval,
		notify:   notify,
		logger:   logger,
		state:    PlaybackIdle,
	}
}

// Load binds the device to the source and prepares it. A missing file or a
// rejected codec fails with ErrUnplayable; after a failed load the session
// exposes no transport controls.
func (s *PlaybackSession) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PlaybackIdle {
		return fmt.Errorf("playback: load from %s state", s.state)
	}
	s.state = PlaybackLoading

	if err := s.dev.SetSource(path); err != nil {
		s.state = PlaybackError
		return fmt.Errorf("%w: %v", apperr.ErrUnplayable, err)
	}
	if err := s.dev.Prepare(); err != nil {
		s.state = PlaybackError
		return fmt.Errorf("%w: %v", apperr.ErrUnplayable, err)
	}
	s.durationMS = s.dev.DurationMS()
	s.dev.OnComplete(s.onMediaEnd)
	s.state = PlaybackReady
	return nil
}

// Play starts or resumes playback. From Ended it restarts at position zero;
// an explicit call is required, the session never auto-replays.
func (s *PlaybackSession) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case PlaybackReady, PlaybackPaused:
	case PlaybackEnded:
		if err := s.dev.SeekTo(0); err != nil {
			return err
		}
	case PlaybackPlaying:
		return nil
	default:
		return fmt.Errorf("playback: play from %s state", s.state)
	}

	if err := s.dev.Start(); err != nil {
		return err
	}
	s.state = PlaybackPlaying
	s.startTickerLocked()
	return nil
}

// Pause suspends playback, retaining position. Notifications stop
// immediately.
func (s *PlaybackSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PlaybackPlaying {
		return nil
	}
	s.stopTickerLocked()
	if err := s.dev.Pause(); err != nil {
		return err
	}
	s.state = PlaybackPaused
	return nil
}

// BeginSeek suspends position notifications while the user drags the
// scrubber, avoiding UI feedback loops.
func (s *PlaybackSession) BeginSeek() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeking = true
}

// CommitSeek clamps targetMS to [0, duration], instructs the device to seek,
// and resumes notifications from the new position. It returns the clamped
// position.
func (s *PlaybackSession) CommitSeek(targetMS int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case PlaybackReady, PlaybackPlaying, PlaybackPaused, PlaybackEnded:
	default:
		return 0, fmt.Errorf("playback: seek from %s state", s.state)
	}

	if targetMS < 0 {
		targetMS = 0
	}
	if targetMS > s.durationMS {
		targetMS = s.durationMS
	}
	if err := s.dev.SeekTo(targetMS); err != nil {
		s.seeking = false
		return 0, err
	}
	s.seeking = false
	if s.state == PlaybackEnded {
		s.state = PlaybackPaused
	}
	s.notifyLocked(Progress{PositionMS: targetMS, DurationMS: s.durationMS})
	return targetMS, nil
}

// onMediaEnd is the device completion callback. Reaching end of media resets
// the displayed position to zero and waits for an explicit Play.
func (s *PlaybackSession) onMediaEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.state != PlaybackPlaying {
		return
	}
	s.stopTickerLocked()
	s.state = PlaybackEnded
	s.notifyLocked(Progress{PositionMS: 0, DurationMS: s.durationMS})
}

// Dispose releases the device and stops notifications. It is idempotent and
// safe to call from any state; dismissing a preview and navigating away run
// through here just like an explicit stop.
func (s *PlaybackSession) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.stopTickerLocked()
	s.dev.Release()
	s.state = PlaybackIdle
}

// Live reports whether the session still owns its device.
func (s *PlaybackSession) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.disposed
}

// State returns the current state.
func (s *PlaybackSession) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PositionMS returns the device position.
func (s *PlaybackSession) PositionMS() int {
	return s.dev.PositionMS()
}

// DurationMS returns the prepared media duration.
func (s *PlaybackSession) DurationMS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationMS
}

func (s *PlaybackSession) startTickerLocked() {
	if s.tickerStop != nil {
		return
	}
	stop := make(chan struct{})
	s.tickerStop = stop
	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.tick()
			}
		}
	}()
}

func (s *PlaybackSession) stopTickerLocked() {
	if s.tickerStop != nil {
		close(s.tickerStop)
		s.tickerStop = nil
	}
}

func (s *PlaybackSession) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PlaybackPlaying || s.seeking {
		return
	}
	s.notifyLocked(Progress{PositionMS: s.dev.PositionMS(), DurationMS: s.durationMS})
}

func (s *PlaybackSession) notifyLocked(p Progress) {
	if s.notify != nil {
		s.notify(p)
	}
}
