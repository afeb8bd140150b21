package kernel

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkDrainEmptyDoesNotBlock(t *testing.T) {
	sink := NewSink(4)

	done := make(chan []Line)
	go func() { done <- sink.Drain(0) }()

	select {
	case lines := <-done:
		assert.Empty(t, lines)
	case <-time.After(time.Second):
		t.Fatal("Drain blocked on an empty sink")
	}
}

func TestSinkDrainLimit(t *testing.T) {
	sink := NewSink(10)
	for i := 0; i < 5; i++ {
		require.True(t, sink.Send(Line{Text: fmt.Sprint(i)}))
	}

	first := sink.Drain(3)
	require.Len(t, first, 3)
	assert.Equal(t, "0", first[0].Text)
	assert.Equal(t, 2, sink.Len())

	rest := sink.Drain(0)
	require.Len(t, rest, 2)
	assert.Equal(t, "3", rest[0].Text)
}

func TestSinkManyProducersKeepPerProducerOrder(t *testing.T) {
	const producers, perProducer = 4, 500
	sink := NewSink(16)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				sink.Send(Line{Stream: Stream(fmt.Sprint(p)), Text: fmt.Sprint(i)})
			}
		}(p)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	next := make(map[Stream]int)
	total := 0
	for total < producers*perProducer {
		for _, line := range sink.Drain(0) {
			assert.Equal(t, fmt.Sprint(next[line.Stream]), line.Text, "producer %s", line.Stream)
			next[line.Stream]++
			total++
		}
		time.Sleep(time.Millisecond)
	}
	<-finished
	assert.Equal(t, producers*perProducer, total)
}

func TestSinkCloseReleasesBlockedProducer(t *testing.T) {
	sink := NewSink(1)
	require.True(t, sink.Send(Line{Text: "fills the buffer"}))

	result := make(chan bool)
	go func() { result <- sink.Send(Line{Text: "blocked"}) }()

	select {
	case <-result:
		t.Fatal("Send should block on a full sink")
	case <-time.After(20 * time.Millisecond):
	}

	sink.Close()
	assert.False(t, <-result)
	assert.False(t, sink.Send(Line{Text: "after close"}))

	// buffered lines survive Close
	lines := sink.Drain(0)
	require.Len(t, lines, 1)
	assert.Equal(t, "fills the buffer", lines[0].Text)
}
