package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryRing(t *testing.T) {
	h := newHistory(2)
	assert.Empty(t, h.since(0))

	h.append(LogEntry{Text: "a"})
	h.append(LogEntry{Text: "b"})
	e := h.append(LogEntry{Text: "c"})

	assert.Equal(t, uint64(3), e.Seq)
	assert.Equal(t, uint64(3), h.last())
	assert.Equal(t, []string{"b", "c"}, texts(h.since(0)))
	assert.Equal(t, []string{"c"}, texts(h.since(2)))
}
