package device

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FFplayPlayback plays a stored audio file by driving an ffplay process.
// Position is tracked against the wall clock from the run's start offset;
// seeking restarts ffplay at the target offset.
type FFplayPlayback struct {
	mu         sync.Mutex
	src        string
	durationMS int
	baseMS     int // position at the start of the current run, or while paused
	startedAt  time.Time
	playing    bool
	run        *playRun
	complete   func()
}

type playRun struct {
	cmd       *exec.Cmd
	cancelled bool // set before we kill the process ourselves
}

// NewFFplayPlayback creates a playback device.
func NewFFplayPlayback() *FFplayPlayback {
	return &FFplayPlayback{}
}

// SetSource binds the device to a file path.
func (d *FFplayPlayback) SetSource(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		return fmt.Errorf("playback: cannot change source while playing")
	}
	d.src = path
	d.baseMS = 0
	d.durationMS = 0
	return nil
}

// Prepare probes the source and resolves its duration. It fails when the
// file is missing or the container is not decodable.
func (d *FFplayPlayback) Prepare() error {
	d.mu.Lock()
	src := d.src
	d.mu.Unlock()
	if src == "" {
		return fmt.Errorf("playback: no source set")
	}
	if _, err := exec.LookPath("ffplay"); err != nil {
		return fmt.Errorf("playback: ffplay not found in PATH: %w", err)
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return fmt.Errorf("playback: ffprobe not found in PATH: %w", err)
	}

	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	).Output()
	if err != nil {
		return fmt.Errorf("playback: probe %s: %w", src, err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || seconds < 0 {
		return fmt.Errorf("playback: unreadable duration for %s", src)
	}

	d.mu.Lock()
	d.durationMS = int(seconds * 1000)
	d.mu.Unlock()
	return nil
}

// Start begins (or resumes) playback from the current position.
func (d *FFplayPlayback) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		return nil
	}
	if d.src == "" {
		return fmt.Errorf("playback: no source set")
	}

	cmd := exec.Command("ffplay",
		"-nodisp", "-autoexit",
		"-loglevel", "quiet",
		"-ss", fmt.Sprintf("%.3f", float64(d.baseMS)/1000),
		d.src,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("playback: start ffplay: %w", err)
	}
	run := &playRun{cmd: cmd}
	d.run = run
	d.playing = true
	d.startedAt = time.Now()
	go d.waitRun(run)
	return nil
}

// waitRun observes the process exit. Only a self-terminated run (media played
// to its end) fires the completion callback.
func (d *FFplayPlayback) waitRun(run *playRun) {
	_ = run.cmd.Wait()

	d.mu.Lock()
	if run.cancelled || d.run != run {
		d.mu.Unlock()
		return
	}
	d.run = nil
	d.playing = false
	d.baseMS = d.durationMS
	cb := d.complete
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// stopRun kills the active process, marking the run as cancelled so its exit
// is not mistaken for completion. Caller must hold d.mu.
func (d *FFplayPlayback) stopRun() {
	if d.run == nil {
		return
	}
	d.run.cancelled = true
	if d.run.cmd.Process != nil {
		_ = d.run.cmd.Process.Kill()
	}
	d.run = nil
}

// Pause halts playback, retaining the current position.
func (d *FFplayPlayback) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing {
		return nil
	}
	d.baseMS = d.positionLocked()
	d.stopRun()
	d.playing = false
	return nil
}

// SeekTo moves the position. A playing device restarts its run at the new
// offset; a paused one just records it.
func (d *FFplayPlayback) SeekTo(ms int) error {
	d.mu.Lock()
	if ms < 0 {
		ms = 0
	}
	if d.durationMS > 0 && ms > d.durationMS {
		ms = d.durationMS
	}
	wasPlaying := d.playing
	d.stopRun()
	d.playing = false
	d.baseMS = ms
	d.mu.Unlock()

	if wasPlaying {
		return d.Start()
	}
	return nil
}

// PositionMS returns the current position in milliseconds.
func (d *FFplayPlayback) PositionMS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionLocked()
}

func (d *FFplayPlayback) positionLocked() int {
	if !d.playing {
		return d.baseMS
	}
	pos := d.baseMS + int(time.Since(d.startedAt).Milliseconds())
	if d.durationMS > 0 && pos > d.durationMS {
		pos = d.durationMS
	}
	return pos
}

// DurationMS returns the probed media duration in milliseconds.
func (d *FFplayPlayback) DurationMS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.durationMS
}

// OnComplete registers the end-of-media callback.
func (d *FFplayPlayback) OnComplete(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.complete = fn
}

// Release stops any running process. Safe to call repeatedly.
func (d *FFplayPlayback) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopRun()
	d.playing = false
}

var _ PlaybackDevice = (*FFplayPlayback)(nil)
