// Package lifecycle reconciles note metadata with the media files it
// references. Metadata lives in a database row, content lives in loose files;
// the commit ordering here keeps the two consistent without a real
// transaction spanning both.
package lifecycle

import (
	"log/slog"
	"strings"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/models"
	"github.com/soundscapelab/soundscape/internal/notesdb"
)

// Manager performs edit-draft commits and note deletions.
type Manager struct {
	notes  notesdb.Store
	media  mediastore.Provider
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a lifecycle manager.
func NewManager(notes notesdb.Store, media mediastore.Provider, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{notes: notes, media: media, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Commit reconciles the draft against its base note, persists the result,
// and deletes the files the commit orphaned.
//
// Validation happens before any side effect. The metadata write happens
// before any file deletion, so a crash in between can only leave an extra
// unreferenced file on disk, never a row pointing at a deleted file. An old
// reference is discarded only once its replacement is durably referenced by
// the committed row.
func (m *Manager) Commit(draft models.EditDraft) (*models.Note, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, apperr.Validation(apperr.ReasonEmptyTitle)
	}
	if draft.Base == nil && draft.StagedAudio == nil {
		return nil, apperr.Validation(apperr.ReasonMissingAudio)
	}

	final, orphans := reconcile(draft, title, m.now)

	if draft.Base == nil {
		id, err := m.notes.Insert(final)
		if err != nil {
			return nil, err
		}
		final.ID = id
	} else {
		if err := m.notes.Update(final); err != nil {
			return nil, err
		}
	}

	m.deleteOrphans(orphans)
	return final, nil
}

// Delete removes the note row, then best-effort deletes both media files.
// Failure to delete one file does not block the other, and never rolls back
// the metadata delete.
func (m *Manager) Delete(note *models.Note) error {
	if err := m.notes.Delete(note.ID); err != nil {
		return err
	}
	orphans := []models.MediaReference{note.Audio}
	if note.Image != nil {
		orphans = append(orphans, *note.Image)
	}
	m.deleteOrphans(orphans)
	return nil
}

// reconcile computes the final note and its deletion set without touching
// storage.
func reconcile(draft models.EditDraft, title string, now func() time.Time) (*models.Note, []models.MediaReference) {
	if draft.Base == nil {
		n := &models.Note{
			Title:           title,
			Audio:           *draft.StagedAudio,
			Image:           draft.StagedImage,
			// Rows store creation time as unix millis; mint at that
			// precision so the returned note matches what a later read
			// rehydrates.
			CreatedAt:       time.UnixMilli(now().UnixMilli()),
			DurationSeconds: draft.StagedDurationSeconds,
		}
		return n, nil
	}

	final := *draft.Base
	final.Title = title
	var orphans []models.MediaReference

	if draft.StagedAudio != nil && draft.StagedAudio.Name != final.Audio.Name {
		orphans = append(orphans, final.Audio)
		final.Audio = *draft.StagedAudio
		final.DurationSeconds = draft.StagedDurationSeconds
	}

	switch {
	case draft.StagedImage != nil:
		if final.Image != nil && final.Image.Name != draft.StagedImage.Name {
			orphans = append(orphans, *final.Image)
		}
		final.Image = draft.StagedImage
	case draft.RemoveImage:
		if final.Image != nil {
			orphans = append(orphans, *final.Image)
		}
		final.Image = nil
	}

	return &final, orphans
}

// deleteOrphans removes each file independently, best-effort. Only owned
// references are eligible.
func (m *Manager) deleteOrphans(refs []models.MediaReference) {
	for _, ref := range refs {
		if !ref.Owned || ref.Zero() {
			continue
		}
		if err := m.media.Delete(ref); err != nil {
			m.logger.Warn("orphan delete failed",
				slog.String("ref", ref.String()),
				slog.String("error", err.Error()))
		}
	}
}
