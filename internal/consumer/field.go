package consumer

import (
	"sync"

	"grimm.is/swarmctl/internal/protocol"
)

// DefaultTrailAge is how many updates a trail point survives.
const DefaultTrailAge = 50

// TrailPoint is a past agent position. Age counts updates since it was laid.
type TrailPoint struct {
	X, Y float64
	Age  int
}

// FieldSnapshot is a consistent copy of the field for one render.
type FieldSnapshot struct {
	Agents  []protocol.Agent
	Trail   []TrailPoint
	MaxAge  int
	Updates uint64
}

// Field keeps the latest agent set and the fading trail behind it.
type Field struct {
	mu      sync.RWMutex
	maxAge  int
	agents  []protocol.Agent
	trail   []TrailPoint
	updates uint64
}

// NewField creates a field whose trail points live maxAge updates.
func NewField(maxAge int) *Field {
	if maxAge <= 0 {
		maxAge = DefaultTrailAge
	}
	return &Field{maxAge: maxAge}
}

// ConsumeState replaces the agent set and ages the trail by one update.
func (f *Field) ConsumeState(update *protocol.StateUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.agents = append([]protocol.Agent(nil), update.Agents...)
	f.updates++

	kept := f.trail[:0]
	for _, p := range f.trail {
		if p.Age+1 < f.maxAge {
			p.Age++
			kept = append(kept, p)
		}
	}
	for _, a := range update.Agents {
		kept = append(kept, TrailPoint{X: a.X, Y: a.Y})
	}
	f.trail = kept
	return nil
}

// Snapshot returns a copy safe to read while updates continue.
func (f *Field) Snapshot() FieldSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return FieldSnapshot{
		Agents:  append([]protocol.Agent(nil), f.agents...),
		Trail:   append([]TrailPoint(nil), f.trail...),
		MaxAge:  f.maxAge,
		Updates: f.updates,
	}
}

// Reset clears agents and trail.
func (f *Field) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = nil
	f.trail = nil
}
