package lifecycle

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/models"
	"github.com/soundscapelab/soundscape/internal/notesdb"
)

type fixture struct {
	mgr   *Manager
	notes *notesdb.DB
	media *mediastore.FS
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbFile, err := os.CreateTemp("", "soundscape-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := notesdb.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	media, err := mediastore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		mgr:   NewManager(db, media, logger),
		notes: db,
		media: media,
	}
}

func (f *fixture) stagedAudio(t *testing.T) models.MediaReference {
	t.Helper()
	ref, err := f.media.ImportExternal(strings.NewReader("aac bytes"), models.CategoryAudio, "")
	if err != nil {
		t.Fatalf("stage audio: %v", err)
	}
	return ref
}

func (f *fixture) stagedImage(t *testing.T) models.MediaReference {
	t.Helper()
	ref, err := f.media.ImportExternal(strings.NewReader("jpeg bytes"), models.CategoryImage, "")
	if err != nil {
		t.Fatalf("stage image: %v", err)
	}
	return ref
}

func TestCommitCreate(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)

	note, err := f.mgr.Commit(models.EditDraft{
		Title:                 "Park walk",
		StagedAudio:           &audio,
		StagedDurationSeconds: 7,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if note.ID == 0 {
		t.Error("id should be assigned")
	}
	if note.Audio != audio || note.Image != nil {
		t.Errorf("note = %+v", note)
	}

	persisted, err := f.notes.GetByID(note.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.Audio.Name != audio.Name || persisted.Image != nil {
		t.Errorf("persisted = %+v", persisted)
	}
	if !f.media.Exists(audio) {
		t.Error("staged audio must still exist after commit")
	}
}

func TestCommitCreateTimestampRoundTrips(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)

	note, err := f.mgr.Commit(models.EditDraft{Title: "Stamp", StagedAudio: &audio})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := note.CreatedAt.UnixNano() % int64(time.Millisecond); got != 0 {
		t.Errorf("created_at carries sub-millisecond precision: %v", note.CreatedAt)
	}

	persisted, err := f.notes.GetByID(note.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !persisted.CreatedAt.Equal(note.CreatedAt) {
		t.Errorf("created_at = %v persisted, %v returned", persisted.CreatedAt, note.CreatedAt)
	}
}

func TestCommitCreateRequiresAudio(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Commit(models.EditDraft{Title: "No recording"})
	ve, ok := apperr.IsValidation(err)
	if !ok || ve.Reason != apperr.ReasonMissingAudio {
		t.Fatalf("err = %v, want ValidationError(missing_audio)", err)
	}
	if notes, _ := f.notes.List(notesdb.Filter{}); len(notes) != 0 {
		t.Error("no note may be persisted")
	}
}

func TestCommitEmptyTitleHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)

	_, err := f.mgr.Commit(models.EditDraft{Title: "   ", StagedAudio: &audio})
	ve, ok := apperr.IsValidation(err)
	if !ok || ve.Reason != apperr.ReasonEmptyTitle {
		t.Fatalf("err = %v, want ValidationError(empty_title)", err)
	}

	// The staged file is neither deleted nor referenced by any note.
	if !f.media.Exists(audio) {
		t.Error("staged audio must survive a failed validation")
	}
	if notes, _ := f.notes.List(notesdb.Filter{}); len(notes) != 0 {
		t.Error("no note may be persisted")
	}
}

func TestCommitTrimsTitle(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)
	note, err := f.mgr.Commit(models.EditDraft{Title: "  Park walk  ", StagedAudio: &audio})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if note.Title != "Park walk" {
		t.Errorf("title = %q", note.Title)
	}
}

func TestEditReplaceImage(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)
	oldImage := f.stagedImage(t)

	base, err := f.mgr.Commit(models.EditDraft{
		Title:       "With photo",
		StagedAudio: &audio,
		StagedImage: &oldImage,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newImage := f.stagedImage(t)
	updated, err := f.mgr.Commit(models.EditDraft{
		Base:        base,
		Title:       base.Title,
		StagedImage: &newImage,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if updated.Image == nil || updated.Image.Name != newImage.Name {
		t.Errorf("image = %+v, want %s", updated.Image, newImage.Name)
	}
	// Audio carried over unmodified and still on disk; old image gone.
	if updated.Audio != audio {
		t.Errorf("audio changed: %+v", updated.Audio)
	}
	if !f.media.Exists(audio) {
		t.Error("audio must still exist")
	}
	if f.media.Exists(oldImage) {
		t.Error("replaced image must be deleted")
	}
	if !f.media.Exists(newImage) {
		t.Error("new image must exist")
	}
}

func TestEditRemoveImage(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)
	image := f.stagedImage(t)

	base, err := f.mgr.Commit(models.EditDraft{
		Title:       "With photo",
		StagedAudio: &audio,
		StagedImage: &image,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.mgr.Commit(models.EditDraft{
		Base:        base,
		Title:       "Without photo",
		RemoveImage: true,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Image != nil {
		t.Errorf("image = %+v, want nil", updated.Image)
	}
	if f.media.Exists(image) {
		t.Error("removed image must be deleted")
	}
	persisted, _ := f.notes.GetByID(base.ID)
	if persisted.Image != nil {
		t.Error("persisted image should be cleared")
	}
}

func TestEditReplaceAudio(t *testing.T) {
	f := newFixture(t)
	oldAudio := f.stagedAudio(t)

	base, err := f.mgr.Commit(models.EditDraft{
		Title:                 "Take one",
		StagedAudio:           &oldAudio,
		StagedDurationSeconds: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newAudio := f.stagedAudio(t)
	updated, err := f.mgr.Commit(models.EditDraft{
		Base:                  base,
		Title:                 "Take two",
		StagedAudio:           &newAudio,
		StagedDurationSeconds: 9,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Audio.Name != newAudio.Name || updated.DurationSeconds != 9 {
		t.Errorf("updated = %+v", updated)
	}
	if f.media.Exists(oldAudio) {
		t.Error("replaced audio must be deleted")
	}
	if !f.media.Exists(newAudio) {
		t.Error("new audio must exist")
	}
}

func TestEditKeepsCreatedAtAndID(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)
	base, err := f.mgr.Commit(models.EditDraft{Title: "a", StagedAudio: &audio})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.mgr.Commit(models.EditDraft{Base: base, Title: "b"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.ID != base.ID {
		t.Errorf("id changed: %d -> %d", base.ID, updated.ID)
	}
	persisted, _ := f.notes.GetByID(base.ID)
	if !persisted.CreatedAt.Equal(base.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", base.CreatedAt, persisted.CreatedAt)
	}
}

func TestDeleteNoteRemovesRowAndFiles(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)
	image := f.stagedImage(t)

	note, err := f.mgr.Commit(models.EditDraft{
		Title:       "Doomed",
		StagedAudio: &audio,
		StagedImage: &image,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.mgr.Delete(note); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.notes.GetByID(note.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("row should be gone, got %v", err)
	}
	if f.media.Exists(audio) || f.media.Exists(image) {
		t.Error("both media files must be deleted")
	}
}

func TestDeleteMissingNote(t *testing.T) {
	f := newFixture(t)
	err := f.mgr.Delete(&models.Note{ID: 123, Audio: models.MediaReference{Category: models.CategoryAudio, Name: "note_x.m4a", Owned: true}})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteIsBestEffortPerFile(t *testing.T) {
	f := newFixture(t)
	audio := f.stagedAudio(t)
	image := f.stagedImage(t)

	note, err := f.mgr.Commit(models.EditDraft{
		Title:       "Half gone",
		StagedAudio: &audio,
		StagedImage: &image,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The audio file vanished externally; deleting the note still removes
	// the row and the image.
	if err := f.media.Delete(audio); err != nil {
		t.Fatalf("pre-delete audio: %v", err)
	}
	if err := f.mgr.Delete(note); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if f.media.Exists(image) {
		t.Error("image must be deleted even when audio was already gone")
	}
}
