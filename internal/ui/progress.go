package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Spinner represents an animated spinner for long operations
type Spinner struct {
	w       io.Writer
	frames  []string
	current int
	message string
	stop    chan struct{}
	done    chan struct{}
	started bool
	stopped bool
	mu      sync.Mutex
}

// NewSpinner creates a new spinner writing to Output
func NewSpinner(message string) *Spinner {
	return &Spinner{
		w:       out(),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.w, "\r%s %s%s",
					ColorProgress(s.frames[s.current]),
					s.message,
					strings.Repeat(" ", 20),
				)
				s.current = (s.current + 1) % len(s.frames)
				s.mu.Unlock()
			}
		}
	}()
}

// Stop stops the spinner and prints the final status. It is safe to call more than once.
func (s *Spinner) Stop(success bool, message string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	close(s.stop)
	if started {
		<-s.done
	}

	fmt.Fprint(s.w, "\r\033[K")
	if success {
		fmt.Fprintf(s.w, "%s %s\n", ColorSuccess("✓"), message)
	} else {
		fmt.Fprintf(s.w, "%s %s\n", ColorError("✗"), message)
	}
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}
