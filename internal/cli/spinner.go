package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a one-line render status. It draws on stderr so
// artifacts written to stdout stay clean, and the status can change while
// it runs (watch mode counts re-renders in it).
type spinner struct {
	out     io.Writer
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu    sync.Mutex
	msg   string
	drawn int // display width of the last frame
}

// startSpinner draws msg on w until stop is called or ctx ends.
func startSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	s := &spinner{
		out:     w,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		msg:     msg,
	}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clear()
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.msg)
	// Pad over a longer previous status.
	width := ansi.StringWidth(line)
	pad := max(s.drawn-width, 0)
	fmt.Fprintf(s.out, "\r%s%s", line, strings.Repeat(" ", pad))
	s.drawn = width
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.drawn))
	s.drawn = 0
}

// update replaces the status shown from the next frame on.
func (s *spinner) update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// stop ends the animation and clears the line. Safe to call more than once.
func (s *spinner) stop() {
	s.once.Do(s.cancel)
	<-s.stopped
}

// succeed stops the spinner and prints a success line.
func (s *spinner) succeed(format string, args ...any) {
	s.stop()
	printSuccess(format, args...)
}

// fail stops the spinner and prints an error line.
func (s *spinner) fail(format string, args ...any) {
	s.stop()
	printError(format, args...)
}

// cancelled reports whether the command context ended, as opposed to the
// spinner being stopped after a finished render.
func (s *spinner) cancelled() bool {
	return s.parent.Err() != nil
}

// renderStatus is the spinner text for the n-th render of source. Watch
// mode renders once on start and again for every saved change.
func renderStatus(source string, n int) string {
	name := filepath.Base(source)
	if n <= 1 {
		return fmt.Sprintf("Rendering %s...", name)
	}
	return fmt.Sprintf("Re-rendering %s (change %d)...", name, n-1)
}
