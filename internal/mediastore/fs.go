package mediastore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/models"
)

// File name prefixes per category, matching the category-prefix + creation
// timestamp layout the store guarantees.
var namePrefix = map[models.Category]string{
	models.CategoryAudio: "note_",
	models.CategoryImage: "img_",
}

// Default extensions when the caller gives no hint.
var defaultExt = map[models.Category]string{
	models.CategoryAudio: ".m4a",
	models.CategoryImage: ".jpg",
}

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the media root directory

	mu sync.Mutex // serializes allocation within one process
}

// NewFS creates a new FS provider rooted at the given directory. The
// directory must already exist; category subdirectories are created on
// demand.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("mediastore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("mediastore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mediastore: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute media root directory.
func (f *FS) Root() string {
	return f.root
}

// resolve validates the reference and returns its absolute path. Names with
// path separators or traversal components are rejected.
func (f *FS) resolve(ref models.MediaReference) (string, error) {
	if !ref.Category.Valid() {
		return "", fmt.Errorf("mediastore: unknown category: %q", ref.Category)
	}
	if ref.Name == "" {
		return "", fmt.Errorf("mediastore: empty file name")
	}
	cleaned := filepath.Clean(ref.Name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("mediastore: invalid file name: %q", ref.Name)
	}
	abs := filepath.Join(f.root, string(ref.Category), cleaned)
	dir := filepath.Join(f.root, string(ref.Category))
	if !strings.HasPrefix(abs, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("mediastore: path escapes media root: %q", ref.Name)
	}
	return abs, nil
}

func (f *FS) ensureCategoryDir(cat models.Category) error {
	if err := os.MkdirAll(filepath.Join(f.root, string(cat)), 0o755); err != nil {
		return fmt.Errorf("mediastore: mkdir category: %w", err)
	}
	return nil
}

func normalizeExt(cat models.Category, extHint string) string {
	ext := strings.TrimSpace(extHint)
	if ext == "" {
		return defaultExt[cat]
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

// Allocate reserves a unique, collision-free name in the category's
// directory. The name is claimed by creating the file exclusively (empty), so
// a concurrent allocation can never hand out the same reference twice. The
// returned reference is owned by whichever note ends up holding it.
func (f *FS) Allocate(cat models.Category, extHint string) (models.MediaReference, error) {
	if !cat.Valid() {
		return models.MediaReference{}, fmt.Errorf("mediastore: unknown category: %q", cat)
	}
	if err := f.ensureCategoryDir(cat); err != nil {
		return models.MediaReference{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ext := normalizeExt(cat, extHint)
	stamp := time.Now().UnixMilli()
	for n := 0; ; n++ {
		name := fmt.Sprintf("%s%d%s", namePrefix[cat], stamp, ext)
		if n > 0 {
			name = fmt.Sprintf("%s%d-%d%s", namePrefix[cat], stamp, n, ext)
		}
		ref := models.MediaReference{Category: cat, Name: name, Owned: true}
		abs, err := f.resolve(ref)
		if err != nil {
			return models.MediaReference{}, err
		}
		file, err := os.OpenFile(abs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return models.MediaReference{}, fmt.Errorf("mediastore: allocate: %w", err)
		}
		if err := file.Close(); err != nil {
			return models.MediaReference{}, fmt.Errorf("mediastore: allocate close: %w", err)
		}
		return ref, nil
	}
}

// ImportExternal copies r fully into a newly allocated owned file. The copy
// goes through a temp file (write, fsync, rename) so a failed source read or
// destination write never leaves a half-written file referenced.
func (f *FS) ImportExternal(r io.Reader, cat models.Category, extHint string) (models.MediaReference, error) {
	ref, err := f.Allocate(cat, extHint)
	if err != nil {
		return models.MediaReference{}, err
	}
	abs, err := f.resolve(ref)
	if err != nil {
		return models.MediaReference{}, err
	}

	dir := filepath.Dir(abs)
	tmpName := filepath.Join(dir, ".import-"+uuid.NewString())
	tmp, err := os.OpenFile(tmpName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		_ = f.Delete(ref)
		return models.MediaReference{}, fmt.Errorf("mediastore: create temp: %w", err)
	}

	// Clean up the temp file and the claimed name on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			_ = f.Delete(ref)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return models.MediaReference{}, fmt.Errorf("mediastore: import copy: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return models.MediaReference{}, fmt.Errorf("mediastore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return models.MediaReference{}, fmt.Errorf("mediastore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return models.MediaReference{}, fmt.Errorf("mediastore: rename: %w", err)
	}
	success = true
	return ref, nil
}

// Open returns the file's bytes for reading.
func (f *FS) Open(ref models.MediaReference) (io.ReadCloser, error) {
	abs, err := f.resolve(ref)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("mediastore: open %s: %w", ref, err)
	}
	return file, nil
}

// Exists reports whether ref resolves to an existing file.
func (f *FS) Exists(ref models.MediaReference) bool {
	abs, err := f.resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// Size returns the file size in bytes.
func (f *FS) Size(ref models.MediaReference) (int64, error) {
	abs, err := f.resolve(ref)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, apperr.ErrNotFound
		}
		return 0, fmt.Errorf("mediastore: stat %s: %w", ref, err)
	}
	return info.Size(), nil
}

// Delete removes the file. Deleting a non-existent reference is not an error.
func (f *FS) Delete(ref models.MediaReference) error {
	abs, err := f.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("mediastore: delete %s: %w", ref, err)
	}
	return nil
}

// Abs resolves the reference to an absolute path.
func (f *FS) Abs(ref models.MediaReference) (string, error) {
	return f.resolve(ref)
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
