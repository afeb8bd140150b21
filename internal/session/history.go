package session

import (
	"time"

	"commandcenter/internal/kernel"
)

// LogEntry is one line of the session transcript
type LogEntry struct {
	Seq    uint64        `json:"seq"`
	Stream kernel.Stream `json:"stream,omitempty"`
	Text   string        `json:"text"`
	Kind   string        `json:"kind,omitempty"`
	At     time.Time     `json:"at"`
}

// history is a bounded ring of log entries with increasing sequence numbers
type history struct {
	limit int
	buf   []LogEntry
	start int
	seq   uint64
}

func newHistory(limit int) *history {
	return &history{limit: limit, buf: make([]LogEntry, 0, min(limit, 1024))}
}

func (h *history) append(e LogEntry) LogEntry {
	h.seq++
	e.Seq = h.seq
	if len(h.buf) < h.limit {
		h.buf = append(h.buf, e)
		return e
	}
	h.buf[h.start] = e
	h.start = (h.start + 1) % h.limit
	return e
}

// since returns entries with a sequence number greater than seq, oldest first
func (h *history) since(seq uint64) []LogEntry {
	out := make([]LogEntry, 0)
	for i := range h.buf {
		e := h.buf[(h.start+i)%len(h.buf)]
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

func (h *history) last() uint64 {
	return h.seq
}
