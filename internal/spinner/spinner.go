// Package spinner draws a single-line progress indicator on a terminal.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const interval = 80 * time.Millisecond

// Spinner animates a message until stopped. Update and Stop are safe to call
// from several goroutines.
type Spinner struct {
	w io.Writer

	mu      sync.Mutex
	message string
	// widest line drawn so far, used to clear the line on Stop.
	width int

	done     chan struct{}
	cleared  chan struct{}
	stopOnce sync.Once
}

// Enabled reports whether w is a terminal worth animating on.
func Enabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start displays an animated spinner with the given message on w.
// Call Stop to halt it and clear the line.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		message: message,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
	}
	go s.run()
	return s
}

// Update replaces the message shown next to the spinner.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop halts the animation and clears the line. It blocks until the line is
// cleared and may be called more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.cleared
}

//nolint:errcheck // display-only writes
func (s *Spinner) run() {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.done:
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
			s.mu.Unlock()
			close(s.cleared)
			return
		case <-ticker.C:
			s.mu.Lock()
			line := frames[i%len(frames)] + " " + s.message
			pad := ""
			w := runewidth.StringWidth(line)
			if w < s.width {
				pad = strings.Repeat(" ", s.width-w)
			} else {
				s.width = w
			}
			fmt.Fprintf(s.w, "\r%s%s", line, pad)
			s.mu.Unlock()
		}
	}
}
