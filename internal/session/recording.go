// Package session implements the recording and playback state machines and
// the coordinator that keeps at most one of each live.
package session

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/device"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/models"
)

// RecordingState enumerates the recording state machine.
type RecordingState int

const (
	RecordingIdle RecordingState = iota
	RecordingActive
	RecordingFinished
	RecordingFailed
)

func (s RecordingState) String() string {
	switch s {
	case RecordingIdle:
		return "idle"
	case RecordingActive:
		return "recording"
	case RecordingFinished:
		return "finished"
	case RecordingFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecordingResult is the finished audio artifact.
type RecordingResult struct {
	Audio           models.MediaReference `json:"audio"`
	DurationSeconds int                   `json:"duration_seconds"`
}

// RecordingSession wraps one exclusive capture device instance. It is
// created on a start-recording action and destroyed (device released) on the
// transition into finished or failed, including a forced stop when the user
// navigates away.
type RecordingSession struct {
	dev    device.CaptureDevice
	store  mediastore.Provider
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     RecordingState
	target    models.MediaReference
	startedAt time.Time
	result    *RecordingResult
	failure   error
}

// RecordingOption configures a RecordingSession.
type RecordingOption func(*RecordingSession)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) RecordingOption {
	return func(s *RecordingSession) { s.now = now }
}

// NewRecordingSession creates an idle session bound to the given device.
func NewRecordingSession(dev device.CaptureDevice, store mediastore.Provider, logger *slog.Logger, opts ...RecordingOption) *RecordingSession {
	s := &RecordingSession{
		dev:    dev,
		store:  store,
		logger: logger,
		now:    time.Now,
		state:  RecordingIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start allocates the target file, opens the capture device at the fixed
// quality profile, and begins recording. A failure releases the device and
// discards the allocated file.
func (s *RecordingSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != RecordingIdle {
		return fmt.Errorf("recording: start from %s state", s.state)
	}

	target, err := s.store.Allocate(models.CategoryAudio, ".m4a")
	if err != nil {
		s.state = RecordingFailed
		s.failure = err
		return err
	}
	s.target = target

	abs, err := s.store.Abs(target)
	if err == nil {
		if err = s.dev.Open(abs, device.DefaultProfile); err == nil {
			err = s.dev.Start()
		}
	}
	if err != nil {
		s.dev.Release()
		_ = s.store.Delete(target)
		s.state = RecordingFailed
		s.failure = err
		return err
	}

	s.startedAt = s.now()
	s.state = RecordingActive
	s.logger.Info("recording started",
		slog.String("target", target.String()),
		slog.String("profile", device.DefaultProfile.String()))
	return nil
}

// Stop closes the device and finalizes the session. Device-level stop errors
// are absorbed; the outcome is decided by inspecting the produced file: a
// missing or empty file fails the session with ErrEmptyRecording and the
// partial file is deleted. The reported duration is wall-clock elapsed time,
// rounded, and never below one second.
//
// Calling Stop on an already finalized session returns the prior outcome, so
// a forced stop racing a user stop is harmless.
func (s *RecordingSession) Stop() (*RecordingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case RecordingFinished:
		return s.result, nil
	case RecordingFailed:
		return nil, s.failure
	case RecordingIdle:
		return nil, fmt.Errorf("recording: stop before start")
	}

	elapsed := s.now().Sub(s.startedAt)
	if err := s.dev.Stop(); err != nil {
		// Best-effort release; the file on disk decides the outcome.
		s.logger.Debug("capture stop error absorbed", slog.String("error", err.Error()))
	}
	s.dev.Release()

	size, err := s.store.Size(s.target)
	if err != nil || size == 0 {
		_ = s.store.Delete(s.target)
		s.state = RecordingFailed
		s.failure = apperr.ErrEmptyRecording
		s.logger.Warn("recording produced no audio", slog.String("target", s.target.String()))
		return nil, s.failure
	}

	seconds := int(math.Round(elapsed.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	s.result = &RecordingResult{Audio: s.target, DurationSeconds: seconds}
	s.state = RecordingFinished
	s.logger.Info("recording finished",
		slog.String("audio", s.target.String()),
		slog.Int("duration_seconds", seconds))
	return s.result, nil
}

// State returns the current state.
func (s *RecordingSession) State() RecordingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the finished artifact, or nil before a successful stop.
func (s *RecordingSession) Result() *RecordingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
