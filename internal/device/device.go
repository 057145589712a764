// Package device abstracts the capture and playback hardware. Each device is
// singly owned by the live recording or playback session; no other component
// touches it directly.
package device

import "fmt"

// QualityProfile fixes the capture encoding parameters. Recording quality is
// not user-configurable.
type QualityProfile struct {
	Codec        string
	BitrateKbps  int
	SampleRateHz int
}

// DefaultProfile is the fixed capture profile (AAC, 128 kbps, 44.1 kHz).
var DefaultProfile = QualityProfile{Codec: "aac", BitrateKbps: 128, SampleRateHz: 44100}

func (p QualityProfile) String() string {
	return fmt.Sprintf("%s@%dkbps/%dHz", p.Codec, p.BitrateKbps, p.SampleRateHz)
}

// CaptureDevice is an exclusive handle on the recording hardware. Open binds
// it to a target file, Start begins capture, Stop finalizes the file
// best-effort. Release is always safe and idempotent.
type CaptureDevice interface {
	Open(targetPath string, profile QualityProfile) error
	Start() error
	Stop() error
	Release()
}

// PlaybackDevice is an exclusive handle on the playback hardware. Prepare may
// fail when the codec or container is unsupported. Positions and durations
// are milliseconds. The completion callback fires once per run when the media
// reaches its end.
type PlaybackDevice interface {
	SetSource(path string) error
	Prepare() error
	Start() error
	Pause() error
	SeekTo(ms int) error
	PositionMS() int
	DurationMS() int
	OnComplete(fn func())
	Release()
}
