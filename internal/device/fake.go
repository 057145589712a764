package device

import (
	"os"
	"sync"
)

// FakeCapture is an in-process CaptureDevice for tests. Stop writes
// StopPayload to the target file, so a test chooses between a usable
// recording (non-empty payload) and an empty one.
type FakeCapture struct {
	OpenErr  error
	StartErr error
	StopErr  error
	// StopPayload is written to the target on Stop. Leave nil to simulate
	// a capture that produced no audio.
	StopPayload []byte

	mu       sync.Mutex
	target   string
	profile  QualityProfile
	started  bool
	released bool
}

func (d *FakeCapture) Open(targetPath string, profile QualityProfile) error {
	if d.OpenErr != nil {
		return d.OpenErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = targetPath
	d.profile = profile
	return nil
}

func (d *FakeCapture) Start() error {
	if d.StartErr != nil {
		return d.StartErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
	return nil
}

func (d *FakeCapture) Stop() error {
	d.mu.Lock()
	target := d.target
	payload := d.StopPayload
	d.started = false
	d.mu.Unlock()
	if len(payload) > 0 && target != "" {
		_ = os.WriteFile(target, payload, 0o644)
	}
	return d.StopErr
}

func (d *FakeCapture) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

// Released reports whether Release has been called.
func (d *FakeCapture) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Profile returns the profile the device was opened with.
func (d *FakeCapture) Profile() QualityProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profile
}

var _ CaptureDevice = (*FakeCapture)(nil)

// FakePlayback is an in-process PlaybackDevice for tests. Position only
// moves through SeekTo, Advance, or Complete, so transitions are
// deterministic.
type FakePlayback struct {
	PrepareErr error
	// Duration reported after a successful Prepare, in milliseconds.
	PreparedDurationMS int

	mu       sync.Mutex
	src      string
	duration int
	pos      int
	playing  bool
	released bool
	complete func()
}

func (d *FakePlayback) SetSource(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.src = path
	d.pos = 0
	return nil
}

func (d *FakePlayback) Prepare() error {
	if d.PrepareErr != nil {
		return d.PrepareErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.duration = d.PreparedDurationMS
	return nil
}

func (d *FakePlayback) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = true
	return nil
}

func (d *FakePlayback) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	return nil
}

func (d *FakePlayback) SeekTo(ms int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ms < 0 {
		ms = 0
	}
	if ms > d.duration {
		ms = d.duration
	}
	d.pos = ms
	return nil
}

func (d *FakePlayback) PositionMS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos
}

func (d *FakePlayback) DurationMS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duration
}

func (d *FakePlayback) OnComplete(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.complete = fn
}

func (d *FakePlayback) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
	d.playing = false
}

// Advance moves the position forward as if ms of media had played.
func (d *FakePlayback) Advance(ms int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos += ms
	if d.pos > d.duration {
		d.pos = d.duration
	}
}

// Complete simulates the media reaching its end: position jumps to the
// duration and the registered completion callback fires.
func (d *FakePlayback) Complete() {
	d.mu.Lock()
	d.pos = d.duration
	d.playing = false
	cb := d.complete
	d.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Released reports whether Release has been called.
func (d *FakePlayback) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Playing reports whether the device believes it is playing.
func (d *FakePlayback) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// Source returns the path bound by SetSource.
func (d *FakePlayback) Source() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.src
}

var _ PlaybackDevice = (*FakePlayback)(nil)
