package api

import (
	"github.com/soundscapelab/soundscape/internal/models"
)

// MediaRef identifies a stored media file in request and response bodies.
type MediaRef struct {
	Category string `json:"category" example:"audio" validate:"required"`
	Name     string `json:"name" example:"note_1718000000000.m4a" validate:"required"`
}

func (m MediaRef) toModel() models.MediaReference {
	return models.MediaReference{
		Category: models.Category(m.Category),
		Name:     m.Name,
		Owned:    true,
	}
}

func toMediaRef(r models.MediaReference) MediaRef {
	return MediaRef{Category: string(r.Category), Name: r.Name}
}

// NoteResponse is a note as returned by the API. CreatedAt is unix
// milliseconds. Playable is only populated on single-note responses.
type NoteResponse struct {
	ID              int64     `json:"id" example:"7" validate:"required"`
	Title           string    `json:"title" example:"Park walk" validate:"required"`
	Audio           MediaRef  `json:"audio" validate:"required"`
	AudioURL        string    `json:"audioUrl" example:"/media/audio/note_1718000000000.m4a" validate:"required"`
	Image           *MediaRef `json:"image,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty" example:"/media/images/img_1718000000000.jpg"`
	CreatedAt       int64     `json:"createdAt" example:"1718000000000" validate:"required"`
	DurationSeconds int       `json:"durationSeconds" example:"42" validate:"required"`
	Playable        *bool     `json:"playable,omitempty"`
}

func toNoteResponse(n *models.Note, playable *bool) NoteResponse {
	resp := NoteResponse{
		ID:              n.ID,
		Title:           n.Title,
		Audio:           toMediaRef(n.Audio),
		AudioURL:        "/media/" + n.Audio.String(),
		CreatedAt:       n.CreatedAt.UnixMilli(),
		DurationSeconds: n.DurationSeconds,
		Playable:        playable,
	}
	if n.Image != nil {
		img := toMediaRef(*n.Image)
		resp.Image = &img
		resp.ImageURL = "/media/" + n.Image.String()
	}
	return resp
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteResponse `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// CreateNoteRequest is the request body for creating a note. Audio must
// reference a file produced by a finished recording.
type CreateNoteRequest struct {
	Title           string    `json:"title" example:"Park walk" validate:"required"`
	Audio           *MediaRef `json:"audio" validate:"required"`
	DurationSeconds int       `json:"durationSeconds" example:"42" validate:"required"`
	Image           *MediaRef `json:"image,omitempty"`
}

// UpdateNoteRequest is the request body for updating a note. Nil fields keep
// the current value; RemoveImage clears the image entirely.
type UpdateNoteRequest struct {
	Title           string    `json:"title" example:"Park walk" validate:"required"`
	Audio           *MediaRef `json:"audio,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty" example:"42"`
	Image           *MediaRef `json:"image,omitempty"`
	RemoveImage     bool      `json:"removeImage,omitempty"`
}

// RecordingResultResponse is returned when a recording stops successfully.
type RecordingResultResponse struct {
	Audio           MediaRef `json:"audio" validate:"required"`
	DurationSeconds int      `json:"durationSeconds" example:"42" validate:"required"`
}

// PreviewResponse is returned when a playback preview opens.
type PreviewResponse struct {
	Note       NoteResponse `json:"note" validate:"required"`
	DurationMS int          `json:"durationMs" example:"42000" validate:"required"`
}

// SeekRequest is the request body for a playback seek.
type SeekRequest struct {
	PositionMS int `json:"positionMs" example:"15000" validate:"required"`
}

// SeekResponse reports the position actually applied after clamping.
type SeekResponse struct {
	PositionMS int `json:"positionMs" example:"15000" validate:"required"`
}

// ImageImportResponse is returned after a successful image upload.
type ImageImportResponse struct {
	Image MediaRef `json:"image" validate:"required"`
	URL   string   `json:"url" example:"/media/images/img_1718000000000.jpg" validate:"required"`
}
