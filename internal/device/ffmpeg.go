package device

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// FFmpegCapture records from a system audio input by driving an ffmpeg
// process. Stopping sends an interrupt so ffmpeg writes the container
// trailer and the file is playable.
type FFmpegCapture struct {
	format string // ffmpeg input format, e.g. "pulse"
	source string // input device name, e.g. "default"

	mu      sync.Mutex
	cmd     *exec.Cmd
	target  string
	profile QualityProfile
}

// NewFFmpegCapture creates a capture device reading from the given input.
// Empty values fall back to the PulseAudio default source.
func NewFFmpegCapture(format, source string) *FFmpegCapture {
	if format == "" {
		format = "pulse"
	}
	if source == "" {
		source = "default"
	}
	return &FFmpegCapture{format: format, source: source}
}

// Open binds the device to a target file at the given profile.
func (d *FFmpegCapture) Open(targetPath string, profile QualityProfile) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("capture: ffmpeg not found in PATH: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd != nil {
		return fmt.Errorf("capture: device already started")
	}
	d.target = targetPath
	d.profile = profile
	return nil
}

// Start launches the encoder process.
func (d *FFmpegCapture) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.target == "" {
		return fmt.Errorf("capture: device not opened")
	}
	if d.cmd != nil {
		return fmt.Errorf("capture: already recording")
	}

	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", d.format,
		"-i", d.source,
		"-c:a", d.profile.Codec,
		"-b:a", fmt.Sprintf("%dk", d.profile.BitrateKbps),
		"-ar", fmt.Sprintf("%d", d.profile.SampleRateHz),
		"-y", d.target,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("capture: start ffmpeg: %w", err)
	}
	d.cmd = cmd
	return nil
}

// Stop interrupts the encoder and waits for it to finalize the file. The
// session decides the outcome by inspecting the file afterwards, so errors
// here carry diagnostics only.
func (d *FFmpegCapture) Stop() error {
	d.mu.Lock()
	cmd := d.cmd
	d.cmd = nil
	d.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("capture: interrupt: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		// ffmpeg exits non-zero on SIGINT; the file on disk decides.
		if err != nil {
			return fmt.Errorf("capture: ffmpeg exit: %w", err)
		}
		return nil
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		<-done
		return fmt.Errorf("capture: ffmpeg did not stop in time")
	}
}

// Release force-kills any running encoder. Safe to call repeatedly.
func (d *FFmpegCapture) Release() {
	d.mu.Lock()
	cmd := d.cmd
	d.cmd = nil
	d.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

var _ CaptureDevice = (*FFmpegCapture)(nil)
