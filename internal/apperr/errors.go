// Package apperr defines the error taxonomy shared across Soundscape.
//
// Nothing in this taxonomy is fatal: every failure is reported to the caller
// as a value and the system returns to a well-defined idle state.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a note or media file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSessionBusy is returned when an exclusive device session is
	// already live. The caller may retry after releasing it.
	ErrSessionBusy = errors.New("session busy")
	// ErrUnplayable is returned when a referenced audio file is missing or
	// the playback device rejects its content. The note itself stays valid
	// and browsable; only preview is disabled.
	ErrUnplayable = errors.New("recording unavailable")
	// ErrEmptyRecording is returned when a stopped recording produced no
	// usable audio. The capture is treated as failed, never silently saved.
	ErrEmptyRecording = errors.New("recording produced no audio")
)

// ValidationReason identifies the user-correctable input problem.
type ValidationReason string

const (
	ReasonEmptyTitle   ValidationReason = "empty_title"
	ReasonMissingAudio ValidationReason = "missing_audio"
)

// ValidationError reports a user-correctable input problem. It is raised
// before any file or metadata mutation occurs.
type ValidationError struct {
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmptyTitle:
		return "validation: title must not be empty"
	case ReasonMissingAudio:
		return "validation: a recording is required"
	default:
		return fmt.Sprintf("validation: %s", e.Reason)
	}
}

// Validation constructs a ValidationError with the given reason.
func Validation(reason ValidationReason) error {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError and, if so, returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
