package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	assert.Equal(t, start, c.Now())
	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, start.Add(1500*time.Millisecond), c.Now())
}

func TestFakeTicker(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	ticker := c.NewTicker(10 * time.Millisecond)

	select {
	case <-ticker.C:
		t.Fatal("ticker fired before its interval")
	default:
	}

	c.Advance(10 * time.Millisecond)
	select {
	case at := <-ticker.C:
		assert.Equal(t, time.Unix(0, 0).Add(10*time.Millisecond), at)
	default:
		t.Fatal("ticker did not fire")
	}

	// a slow consumer sees at most one pending tick
	c.Advance(50 * time.Millisecond)
	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("expected dropped ticks")
	default:
	}

	ticker.Stop()
	c.Advance(time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestRealClock(t *testing.T) {
	c := Real()
	before := time.Now()
	assert.False(t, c.Now().Before(before))

	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C:
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
}
