package mediastore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/soundscapelab/soundscape/internal/models"
)

func TestWatchReportsExternalRemoval(t *testing.T) {
	s := tempStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ref, err := s.ImportExternal(strings.NewReader("audio"), models.CategoryAudio, "")
	if err != nil {
		t.Fatalf("ImportExternal: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	missing := make(chan models.MediaReference, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, s, logger, func(r models.MediaReference) {
			missing <- r
		})
	}()

	// Give the watcher a moment to register the category directories.
	time.Sleep(100 * time.Millisecond)

	abs, _ := s.Abs(ref)
	if err := os.Remove(abs); err != nil {
		t.Fatalf("remove: %v", err)
	}

	select {
	case got := <-missing:
		if got != ref {
			t.Errorf("missing ref = %+v, want %+v", got, ref)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for missing callback")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRefFromPathIgnoresTempAndForeign(t *testing.T) {
	root := "/media"
	cases := []struct {
		path string
		ok   bool
	}{
		{"/media/audio/note_1.m4a", true},
		{"/media/images/img_1.jpg", true},
		{"/media/images/.import-abc", false},
		{"/media/videos/clip.mp4", false},
		{"/media/stray.txt", false},
		{"/media/audio/sub/deep.m4a", false},
	}
	for _, c := range cases {
		_, ok := refFromPath(root, c.path)
		if ok != c.ok {
			t.Errorf("refFromPath(%q) ok = %v, want %v", c.path, ok, c.ok)
		}
	}
}
