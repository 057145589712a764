// Package mediastore owns the directory of audio and image blobs referenced
// by notes.
package mediastore

import (
	"io"

	"github.com/soundscapelab/soundscape/internal/models"
)

// Provider is the interface for media file operations.
type Provider interface {
	// Allocate reserves a unique file name in the category's directory.
	// The file is claimed empty; no payload bytes are written yet.
	Allocate(cat models.Category, extHint string) (models.MediaReference, error)
	// ImportExternal copies an externally supplied byte stream fully into a
	// newly allocated owned file. No half-written file is ever left behind.
	ImportExternal(r io.Reader, cat models.Category, extHint string) (models.MediaReference, error)
	// Open returns the file's bytes, or apperr.ErrNotFound if absent.
	Open(ref models.MediaReference) (io.ReadCloser, error)
	// Exists reports whether the reference resolves to an existing file.
	Exists(ref models.MediaReference) bool
	// Size returns the file size in bytes, or apperr.ErrNotFound if absent.
	Size(ref models.MediaReference) (int64, error)
	// Delete removes the file. Deleting a non-existent reference is not an
	// error.
	Delete(ref models.MediaReference) error
	// Abs resolves the reference to an absolute path for device I/O and
	// file serving.
	Abs(ref models.MediaReference) (string, error)
}
