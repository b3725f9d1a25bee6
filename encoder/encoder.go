// Package encoder turns recorded PNG frames into a video file by running
// ffmpeg in the background.
package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/richinsley/goglitch/logger"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FramePattern is the printf pattern recorded frames are named with.
const FramePattern = "%03d.png"

var (
	// ErrBusy is returned when an encode is already running.
	ErrBusy = errors.New("an encode is already running")
	// ErrNoFrames is returned when the frame directory holds no recorded frames.
	ErrNoFrames = errors.New("no recorded frames")
)

// Job describes one encode.
type Job struct {
	// Dir holds the frames, named by FramePattern from 000.
	Dir string
	// Frames limits how many frames are read. Zero reads them all.
	Frames int
	FPS    float64
	Output string
}

// Result is posted when a job finishes.
type Result struct {
	Output string
	Err    error
}

// Encoder runs one job at a time. Results are delivered on Results and must
// be drained by the caller.
type Encoder struct {
	ffmpegPath string
	codec      string
	busy       atomic.Bool
	results    chan Result

	// run executes the compiled command; replaced in tests.
	run func(*ffmpeg.Stream) error
}

// New returns an encoder. An empty ffmpegPath uses ffmpeg from PATH; codec is
// "h264" (default) or "hevc".
func New(ffmpegPath, codec string) *Encoder {
	return &Encoder{
		ffmpegPath: ffmpegPath,
		codec:      codec,
		results:    make(chan Result, 4),
		run:        func(s *ffmpeg.Stream) error { return s.Run() },
	}
}

// Results delivers one Result per started job.
func (e *Encoder) Results() <-chan Result { return e.results }

// Busy reports whether a job is running.
func (e *Encoder) Busy() bool { return e.busy.Load() }

// CountFrames returns how many consecutive frames from 000 exist in dir.
func CountFrames(dir string) int {
	matches, err := filepath.Glob(filepath.Join(dir, "[0-9][0-9][0-9].png"))
	if err != nil {
		return 0
	}
	present := make(map[string]bool, len(matches))
	for _, m := range matches {
		present[filepath.Base(m)] = true
	}
	n := 0
	for present[fmt.Sprintf(FramePattern, n)] {
		n++
	}
	return n
}

// Start validates job and runs it in the background.
func (e *Encoder) Start(job Job) error {
	if job.Output == "" {
		return errors.New("no output file")
	}
	if job.FPS <= 0 || math.IsNaN(job.FPS) || math.IsInf(job.FPS, 0) {
		return fmt.Errorf("invalid frame rate %g", job.FPS)
	}
	if CountFrames(job.Dir) == 0 {
		return fmt.Errorf("%s: %w", job.Dir, ErrNoFrames)
	}
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	var stderr bytes.Buffer
	stream := e.stream(job).WithErrorOutput(&stderr)
	logger.Info("encoding %s from %s at %g fps", job.Output, job.Dir, job.FPS)

	go func() {
		err := e.run(stream)
		if err != nil {
			err = fmt.Errorf("ffmpeg failed: %w%s", err, tail(stderr.String()))
			logger.Error("encoding %s: %v", job.Output, err)
		} else {
			logger.Info("encoded %s", job.Output)
		}
		e.busy.Store(false)
		e.results <- Result{Output: job.Output, Err: err}
	}()
	return nil
}

// Args returns the ffmpeg command line job would run.
func (e *Encoder) Args(job Job) []string {
	return e.stream(job).GetArgs()
}

func (e *Encoder) stream(job Job) *ffmpeg.Stream {
	inputArgs := ffmpeg.KwArgs{
		"framerate":    strconv.FormatFloat(job.FPS, 'g', -1, 64),
		"start_number": "0",
	}
	outputArgs := e.outputArgs(job)

	s := ffmpeg.Input(filepath.Join(job.Dir, FramePattern), inputArgs).
		Output(job.Output, outputArgs).
		OverWriteOutput()
	if e.ffmpegPath != "" {
		s = s.SetFfmpegPath(e.ffmpegPath)
	}
	return s
}

func (e *Encoder) outputArgs(job Job) ffmpeg.KwArgs {
	args := ffmpeg.KwArgs{
		"pix_fmt": "yuv420p",
		// yuv420p needs even dimensions.
		"vf": "pad=ceil(iw/2)*2:ceil(ih/2)*2",
	}
	if job.Frames > 0 {
		args["frames:v"] = strconv.Itoa(job.Frames)
	}
	switch strings.ToLower(filepath.Ext(job.Output)) {
	case ".gif":
		delete(args, "pix_fmt")
		return args
	case ".webm":
		args["c:v"] = "libvpx-vp9"
		return args
	}
	if e.codec == "hevc" {
		args["c:v"] = "libx265"
		if strings.HasSuffix(job.Output, ".mp4") {
			args["tag:v"] = "hvc1"
		}
	} else {
		args["c:v"] = "libx264"
	}
	return args
}

// tail keeps the last line ffmpeg printed, which names the failure.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return ": " + s
}
