package orchestrator

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Sink receives free-text progress notifications for every dispatch, outcome
// and lane move. Sinks are observational only; a sink must never influence
// control flow, and the orchestrator never blocks on one.
type Sink interface {
	Progress(msg string)
}

// NopSink discards all notifications.
type NopSink struct{}

// Progress implements Sink.
func (NopSink) Progress(msg string) {}

// WriterSink writes timestamped progress lines to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Progress implements Sink.
func (s *WriterSink) Progress(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[aiq] %s  %s\n", time.Now().Format("15:04:05"), msg)
}
