package mediastore

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/soundscapelab/soundscape/internal/models"
)

// MissingCallback is called when a stored media file disappears from disk
// behind the application's back (moved or deleted externally). The note that
// references it stays valid; only its preview becomes unavailable.
type MissingCallback func(ref models.MediaReference)

// Watch starts an fsnotify watcher on the media category directories and
// reports external removals until ctx is cancelled. Removals performed
// through the store also surface here; consumers are expected to treat the
// event as "preview may be unavailable", not as a mutation command.
func Watch(ctx context.Context, store *FS, logger *slog.Logger, cb MissingCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, cat := range []models.Category{models.CategoryAudio, models.CategoryImage} {
		if err := store.ensureCategoryDir(cat); err != nil {
			return err
		}
		if err := w.Add(filepath.Join(store.Root(), string(cat))); err != nil {
			return err
		}
	}

	logger.Info("media watcher: started", slog.String("root", store.Root()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("media watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			ref, ok := refFromPath(store.Root(), ev.Name)
			if !ok {
				continue
			}
			logger.Warn("media watcher: file missing", slog.String("ref", ref.String()))
			if cb != nil {
				cb(ref)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("media watcher: error", slog.String("error", err.Error()))
		}
	}
}

// refFromPath maps an absolute path inside the media root back to a
// reference. Temp files and unknown categories are ignored.
func refFromPath(root, abs string) (models.MediaReference, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return models.MediaReference{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 {
		return models.MediaReference{}, false
	}
	cat := models.Category(parts[0])
	name := parts[1]
	if !cat.Valid() || name == "" || strings.HasPrefix(name, ".") {
		return models.MediaReference{}, false
	}
	return models.MediaReference{Category: cat, Name: name, Owned: true}, true
}
