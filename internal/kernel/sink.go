package kernel

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSinkCapacity is the number of lines buffered before producers block
const DefaultSinkCapacity = 4096

// StderrPrefix tags lines read from the kernel's stderr
const StderrPrefix = "[STDERR] "

// Stream identifies where a line came from
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Line is one line of kernel output
type Line struct {
	Stream Stream    `json:"stream"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// Sink carries lines from many producers to a single consumer.
// Order is preserved per producer.
type Sink struct {
	lines     chan Line
	closed    chan struct{}
	closeOnce sync.Once
	draining  atomic.Bool
}

// NewSink creates a sink buffering up to capacity lines
func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultSinkCapacity
	}
	return &Sink{
		lines:  make(chan Line, capacity),
		closed: make(chan struct{}),
	}
}

// Send enqueues a line, blocking while the buffer is full.
// It returns false if the sink was closed before the line was accepted.
func (s *Sink) Send(line Line) bool {
	select {
	case <-s.closed:
		return false
	default:
	}

	select {
	case s.lines <- line:
		return true
	case <-s.closed:
		return false
	}
}

// Drain returns up to limit buffered lines without blocking (limit <= 0 means everything
// currently buffered). Drain must only ever be called from one goroutine.
func (s *Sink) Drain(limit int) []Line {
	if !s.draining.CompareAndSwap(false, true) {
		panic("kernel: concurrent Sink.Drain")
	}
	defer s.draining.Store(false)

	if limit <= 0 {
		limit = cap(s.lines)
	}

	var out []Line
	for len(out) < limit {
		select {
		case line := <-s.lines:
			out = append(out, line)
		default:
			return out
		}
	}
	return out
}

// Len returns the number of buffered lines
func (s *Sink) Len() int {
	return len(s.lines)
}

// Close releases blocked producers. Buffered lines can still be drained.
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}
