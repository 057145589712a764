package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/device"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/models"
)

// CaptureFactory constructs a fresh capture device per recording session.
type CaptureFactory func() device.CaptureDevice

// PlaybackFactory constructs a fresh playback device per preview session.
type PlaybackFactory func() device.PlaybackDevice

// Coordinator owns the application-wide "currently active session" state:
// at most one live RecordingSession and at most one live PlaybackSession.
// Acquire and release are the only mutators; nothing else holds a device.
//
// Recording is not serialized against playback. Capture and playback use
// independent device paths; if the platform cannot support that, failure
// surfaces at acquire time as a normal busy/unplayable error.
type Coordinator struct {
	store       mediastore.Provider
	newCapture  CaptureFactory
	newPlayback PlaybackFactory
	interval    time.Duration
	notify      ProgressFunc
	logger      *slog.Logger

	mu        sync.Mutex
	recording *RecordingSession
	playback  *PlaybackSession
}

// NewCoordinator creates a coordinator. interval and notify configure the
// progress notifications of acquired playback sessions.
func NewCoordinator(store mediastore.Provider, newCapture CaptureFactory, newPlayback PlaybackFactory, interval time.Duration, notify ProgressFunc, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:       store,
		newCapture:  newCapture,
		newPlayback: newPlayback,
		interval:    interval,
		notify:      notify,
		logger:      logger,
	}
}

// AcquireRecording starts a new recording session. It fails with
// ErrSessionBusy while another session is recording. An attached session is
// always either starting or active — finalized sessions are detached by the
// stop paths — so attachment alone marks the coordinator busy, closing the
// window between publishing a session and its Start taking effect.
func (c *Coordinator) AcquireRecording() (*RecordingSession, error) {
	c.mu.Lock()
	if c.recording != nil {
		c.mu.Unlock()
		return nil, apperr.ErrSessionBusy
	}
	s := NewRecordingSession(c.newCapture(), c.store, c.logger)
	c.recording = s
	c.mu.Unlock()

	if err := s.Start(); err != nil {
		c.mu.Lock()
		if c.recording == s {
			c.recording = nil
		}
		c.mu.Unlock()
		return nil, err
	}
	return s, nil
}

// StopRecording finalizes the live recording session and detaches it from
// the coordinator. The session's own stop logic decides between a finished
// artifact and a failure.
func (c *Coordinator) StopRecording() (*RecordingResult, error) {
	c.mu.Lock()
	s := c.recording
	c.recording = nil
	c.mu.Unlock()
	if s == nil {
		return nil, apperr.ErrNotFound
	}
	return s.Stop()
}

// CancelRecording stops the live recording and discards whatever it
// produced. Used when the user backs out of the capture screen.
func (c *Coordinator) CancelRecording() error {
	res, err := c.StopRecording()
	if res != nil {
		_ = c.store.Delete(res.Audio)
	}
	if err != nil {
		// A failed or already-finalized stop leaves nothing to keep.
		return nil
	}
	return nil
}

// Recording returns the live recording session, or nil.
func (c *Coordinator) Recording() *RecordingSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// AcquirePlayback disposes any live playback session, then constructs and
// loads a new one for the reference. Opening a second preview, or reopening
// the same note, always yields a clean single-owner session; two sessions
// never drive the output device concurrently.
func (c *Coordinator) AcquirePlayback(ref models.MediaReference) (*PlaybackSession, error) {
	c.mu.Lock()
	prev := c.playback
	c.playback = nil
	c.mu.Unlock()
	if prev != nil {
		prev.Dispose()
	}

	if !c.store.Exists(ref) {
		return nil, apperr.ErrUnplayable
	}
	abs, err := c.store.Abs(ref)
	if err != nil {
		return nil, err
	}

	s := NewPlaybackSession(c.newPlayback(), c.interval, c.notify, c.logger)
	if err := s.Load(abs); err != nil {
		s.Dispose()
		return nil, err
	}

	c.mu.Lock()
	c.playback = s
	c.mu.Unlock()
	return s, nil
}

// Playback returns the live playback session, or nil.
func (c *Coordinator) Playback() *PlaybackSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playback
}

// ReleasePlayback disposes the live playback session, if any. Safe to call
// repeatedly.
func (c *Coordinator) ReleasePlayback() {
	c.mu.Lock()
	s := c.playback
	c.playback = nil
	c.mu.Unlock()
	if s != nil {
		s.Dispose()
	}
}

// Shutdown force-stops everything. A live recording runs the same stop path
// as a user stop; its artifact, if any, is left on disk unreferenced.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	rec := c.recording
	c.recording = nil
	play := c.playback
	c.playback = nil
	c.mu.Unlock()

	if rec != nil {
		if _, err := rec.Stop(); err != nil {
			c.logger.Warn("shutdown: recording stop", slog.String("error", err.Error()))
		}
	}
	if play != nil {
		play.Dispose()
	}
}
