// Package models defines the domain types for Soundscape.
package models

import "time"

// Category identifies the media class a file belongs to. Each category is
// stored in its own directory under the media root.
type Category string

const (
	CategoryAudio Category = "audio"
	CategoryImage Category = "images"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryAudio || c == CategoryImage
}

// MediaReference is an opaque handle to a stored media file: a category plus
// a plain filename inside that category's directory.
//
// Owned marks a file created for a note through the store; owned files are
// deleted when no note references them anymore. All imported content is
// copied into owned storage, never referenced in place, so references minted
// by the store are always owned.
type MediaReference struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Owned    bool     `json:"-"`
}

// Zero reports whether the reference is the empty value.
func (r MediaReference) Zero() bool {
	return r.Name == ""
}

// String renders the reference as category/name for logging and URLs.
func (r MediaReference) String() string {
	return string(r.Category) + "/" + r.Name
}

// Note represents a persisted voice note. ID is assigned on first save and
// immutable thereafter, as is CreatedAt. Audio is required after save; a
// persisted note whose audio no longer resolves to a readable file is
// browsable but not playable.
type Note struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Audio           MediaReference  `json:"audio"`
	Image           *MediaReference `json:"image,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	DurationSeconds int             `json:"duration_seconds"`
}

// EditDraft is the transient state of a create or edit workflow. Nothing of
// it is persisted until the lifecycle commit reconciles it against Base.
//
// Base == nil means create. A nil StagedAudio on edit carries the base
// note's audio over unmodified. StagedImage replaces the current image;
// RemoveImage clears it with no replacement. Staging and removing an image
// at the same time is a caller bug and treated as a replace.
type EditDraft struct {
	Base                  *Note
	Title                 string
	StagedAudio           *MediaReference
	StagedDurationSeconds int
	StagedImage           *MediaReference
	RemoveImage           bool
}
