package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Schedule(t *testing.T) {
	base, max := time.Second, 30*time.Second
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, Backoff(i, base, max), "retry %d", i)
	}
}

func TestBackoff_NonDecreasing(t *testing.T) {
	prev := time.Duration(0)
	for i := 0; i < 100; i++ {
		d := Backoff(i, 250*time.Millisecond, 10*time.Second)
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, 10*time.Second)
		prev = d
	}
}

func TestBackoff_Edges(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(3, 0, time.Second))
	assert.Equal(t, time.Second, Backoff(0, 5*time.Second, time.Second), "base above max is clamped")
	assert.Greater(t, Backoff(200, time.Second, 0), time.Duration(0), "no ceiling must not overflow negative")
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8000/ws", EndpointURL("localhost:8000", false))
	assert.Equal(t, "wss://swarm.example.com/ws", EndpointURL("swarm.example.com", true))
}
