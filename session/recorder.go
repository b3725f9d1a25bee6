package session

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/richinsley/goglitch/encoder"
	"github.com/richinsley/goglitch/imageio"
	"github.com/richinsley/goglitch/logger"
)

// Recorder saves a fixed number of frames as numbered PNG files. Numbering
// restarts at 000 with every recording.
type Recorder struct {
	dir       string
	total     int
	next      int
	remaining int
	// recorded is the frame count of the last recording, kept after it ends.
	recorded int
}

func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

func (r *Recorder) Dir() string { return r.dir }

// Active reports whether frames are still to be captured.
func (r *Recorder) Active() bool { return r.remaining > 0 }

// Recorded returns how many frames the latest recording saved.
func (r *Recorder) Recorded() int { return r.recorded }

// FramePath returns the file frame i is saved to.
func (r *Recorder) FramePath(i int) string {
	return filepath.Join(r.dir, fmt.Sprintf(encoder.FramePattern, i))
}

// Start begins capturing n frames.
func (r *Recorder) Start(n int) {
	r.total = n
	r.remaining = n
	r.next = 0
	r.recorded = 0
	logger.Info("recording %d frames to %s", n, r.dir)
}

// Stop cancels the recording and reports whether one was running.
func (r *Recorder) Stop() bool {
	if !r.Active() {
		return false
	}
	logger.Info("recording stopped after %d of %d frames", r.next, r.total)
	r.remaining = 0
	return true
}

// Capture saves img as the next frame and reports progress on out. A failed
// save ends the recording.
func (r *Recorder) Capture(img *image.RGBA, out Output) error {
	if !r.Active() {
		return nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.remaining = 0
		return fmt.Errorf("failed to create record directory: %w", err)
	}
	path := r.FramePath(r.next)
	if err := imageio.Save(path, img); err != nil {
		r.remaining = 0
		return err
	}

	r.next++
	r.recorded = r.next
	r.remaining--
	out.AddOutput(fmt.Sprintf("Saved frame %d/%d", r.next, r.total))
	logger.Debug("saved %s", path)
	if r.remaining == 0 {
		out.AddOutput("Done recording")
		logger.Info("recording finished: %d frames", r.total)
	}
	return nil
}
