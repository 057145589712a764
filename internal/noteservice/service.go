// Package noteservice coordinates the metadata store, the media store, the
// lifecycle manager, and the session coordinator behind one API used by the
// HTTP and MCP surfaces.
package noteservice

import (
	"context"
	"io"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/lifecycle"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/models"
	"github.com/soundscapelab/soundscape/internal/notesdb"
	"github.com/soundscapelab/soundscape/internal/session"
)

// Service is the application-facing orchestration layer.
type Service struct {
	notes notesdb.Store
	media mediastore.Provider
	life  *lifecycle.Manager
	coord *session.Coordinator
}

// NewService creates a new note service.
func NewService(notes notesdb.Store, media mediastore.Provider, life *lifecycle.Manager, coord *session.Coordinator) *Service {
	return &Service{notes: notes, media: media, life: life, coord: coord}
}

// CreateParams carries the fields of a create commit. Audio comes from a
// finished recording session; Image from a prior import.
type CreateParams struct {
	Title           string
	Audio           models.MediaReference
	DurationSeconds int
	Image           *models.MediaReference
}

// UpdateParams carries the fields of an edit commit. Nil staged references
// leave the corresponding file untouched.
type UpdateParams struct {
	Title           string
	Audio           *models.MediaReference
	DurationSeconds int
	Image           *models.MediaReference
	RemoveImage     bool
}

// ListNotes returns notes matching the filter.
func (s *Service) ListNotes(_ context.Context, f notesdb.Filter) ([]models.Note, error) {
	return s.notes.List(f)
}

// GetNote returns a single note, plus whether its audio file is currently
// playable. A missing file leaves the note valid and browsable; only the
// preview is disabled.
func (s *Service) GetNote(_ context.Context, id int64) (*models.Note, bool, error) {
	note, err := s.notes.GetByID(id)
	if err != nil {
		return nil, false, err
	}
	return note, s.media.Exists(note.Audio), nil
}

// CreateNote commits a new note.
func (s *Service) CreateNote(_ context.Context, p CreateParams) (*models.Note, error) {
	audio := p.Audio
	return s.life.Commit(models.EditDraft{
		Title:                 p.Title,
		StagedAudio:           &audio,
		StagedDurationSeconds: p.DurationSeconds,
		StagedImage:           p.Image,
	})
}

// UpdateNote commits an edit against the stored note.
func (s *Service) UpdateNote(_ context.Context, id int64, p UpdateParams) (*models.Note, error) {
	base, err := s.notes.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.life.Commit(models.EditDraft{
		Base:                  base,
		Title:                 p.Title,
		StagedAudio:           p.Audio,
		StagedDurationSeconds: p.DurationSeconds,
		StagedImage:           p.Image,
		RemoveImage:           p.RemoveImage,
	})
}

// DeleteNote removes the note and its media files.
func (s *Service) DeleteNote(_ context.Context, id int64) error {
	note, err := s.notes.GetByID(id)
	if err != nil {
		return err
	}
	return s.life.Delete(note)
}

// ImportImage copies an externally picked image into owned storage and
// returns the staged reference for a later commit.
func (s *Service) ImportImage(_ context.Context, r io.Reader, extHint string) (models.MediaReference, error) {
	return s.media.ImportExternal(r, models.CategoryImage, extHint)
}

// StartRecording acquires the application-wide recording session.
func (s *Service) StartRecording(_ context.Context) error {
	_, err := s.coord.AcquireRecording()
	return err
}

// StopRecording finalizes the live recording and returns the staged audio
// artifact.
func (s *Service) StopRecording(_ context.Context) (*session.RecordingResult, error) {
	return s.coord.StopRecording()
}

// CancelRecording stops the live recording and discards its output.
func (s *Service) CancelRecording(_ context.Context) error {
	return s.coord.CancelRecording()
}

// Preview describes an opened playback session.
type Preview struct {
	Note       *models.Note `json:"note"`
	DurationMS int          `json:"duration_ms"`
}

// OpenPreview acquires a playback session for the note's audio, superseding
// any session already live.
func (s *Service) OpenPreview(_ context.Context, id int64) (*Preview, error) {
	note, err := s.notes.GetByID(id)
	if err != nil {
		return nil, err
	}
	sess, err := s.coord.AcquirePlayback(note.Audio)
	if err != nil {
		return nil, err
	}
	return &Preview{Note: note, DurationMS: sess.DurationMS()}, nil
}

// Play starts or resumes the live preview.
func (s *Service) Play(_ context.Context) error {
	sess := s.coord.Playback()
	if sess == nil {
		return apperr.ErrNotFound
	}
	return sess.Play()
}

// Pause suspends the live preview.
func (s *Service) Pause(_ context.Context) error {
	sess := s.coord.Playback()
	if sess == nil {
		return apperr.ErrNotFound
	}
	return sess.Pause()
}

// Seek moves the live preview to targetMS, clamped to the media duration,
// and returns the applied position.
func (s *Service) Seek(_ context.Context, targetMS int) (int, error) {
	sess := s.coord.Playback()
	if sess == nil {
		return 0, apperr.ErrNotFound
	}
	sess.BeginSeek()
	return sess.CommitSeek(targetMS)
}

// ClosePreview disposes the live preview, if any.
func (s *Service) ClosePreview(_ context.Context) {
	s.coord.ReleasePlayback()
}
