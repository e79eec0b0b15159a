package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestSpinner(t *testing.T, message string) (*Spinner, *syncBuffer) {
	t.Helper()
	withColor(t, false)
	buf := &syncBuffer{}
	original := Output
	Output = buf
	t.Cleanup(func() { Output = original })
	return NewSpinner(message), buf
}

func TestSpinner(t *testing.T) {
	spinner, buf := newTestSpinner(t, "Loading dashboard data")

	spinner.Start()
	time.Sleep(250 * time.Millisecond)
	spinner.Stop(true, "Loaded")

	output := buf.String()
	if !strings.Contains(output, "Loading dashboard data") {
		t.Errorf("Spinner message not rendered: %q", output)
	}
	if !strings.HasSuffix(output, "✓ Loaded\n") {
		t.Errorf("Expected success line at the end, got %q", output)
	}

	// Stopping twice is a no-op.
	spinner.Stop(false, "again")
	if strings.Contains(buf.String(), "again") {
		t.Error("Second Stop should not print")
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	spinner, buf := newTestSpinner(t, "never shown")

	done := make(chan struct{})
	go func() {
		spinner.Stop(false, "Failed")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that never started")
	}
	if !strings.Contains(buf.String(), "✗ Failed") {
		t.Errorf("Expected failure line, got %q", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.duration); got != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
		}
	}
}
