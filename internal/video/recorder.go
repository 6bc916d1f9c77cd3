package video

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"packwatch/internal/session"
)

// codec is MJPG in an AVI container: universally writable without external
// encoder binaries, at the cost of file size.
const codec = "MJPG"

// Filename returns the evidence filename convention for an invoice:
// NF<invoice>.avi. If the same invoice commits twice in one run the second
// session overwrites the first file; that is a documented limitation of the
// convention, not of the recorder.
func Filename(invoice string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, strings.TrimSpace(invoice))
	return fmt.Sprintf("NF%s.avi", sanitized)
}

// Recorder opens exclusive evidence sinks and routes live frames to whichever
// sink is currently open. The orchestrator owns open/close ordering; the
// recorder enforces the single-writer rule defensively at its own level.
type Recorder struct {
	dir    string
	fps    float64
	width  int
	height int

	mu      sync.Mutex
	current *Writer
}

// NewRecorder constructs a recorder writing into dir with the camera's
// geometry.
func NewRecorder(dir string, width, height int, fps float64) *Recorder {
	return &Recorder{dir: dir, fps: fps, width: width, height: height}
}

// Open starts the evidence file for an invoice and returns its sink handle
// and filename.
func (r *Recorder) Open(invoice string) (session.Sink, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return nil, "", fmt.Errorf("video sink already open for NF %s", r.current.invoice)
	}

	name := Filename(invoice)
	writer, err := gocv.VideoWriterFile(filepath.Join(r.dir, name), codec, r.fps, r.width, r.height, true)
	if err != nil {
		return nil, "", fmt.Errorf("open video writer %s: %w", name, err)
	}

	r.current = &Writer{recorder: r, invoice: invoice, vw: writer}
	return r.current, name, nil
}

// WriteFrame appends the frame to the open sink, if any. A tick with no open
// session is a no-op.
func (r *Recorder) WriteFrame(img gocv.Mat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}
	if err := r.current.vw.Write(img); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Writer is one open evidence file.
type Writer struct {
	recorder *Recorder
	invoice  string
	vw       *gocv.VideoWriter
}

// Close finalizes the file and releases the recorder's single-writer slot.
func (w *Writer) Close() error {
	w.recorder.mu.Lock()
	if w.recorder.current == w {
		w.recorder.current = nil
	}
	w.recorder.mu.Unlock()

	if err := w.vw.Close(); err != nil {
		return fmt.Errorf("finalize video: %w", err)
	}
	return nil
}
