package consumer

import (
	"fmt"
	"sync"
	"time"

	"grimm.is/swarmctl/internal/clock"
	"grimm.is/swarmctl/internal/protocol"
)

// BehaviorResult is the last server verdict on a custom behavior.
type BehaviorResult struct {
	Success    bool
	Message    string
	ReceivedAt time.Time
}

// BehaviorStatus tracks behavior_response frames.
type BehaviorStatus struct {
	clock clock.Clock

	mu     sync.RWMutex
	last   BehaviorResult
	seen   bool
	notify func(BehaviorResult)
}

// NewBehaviorStatus creates a status tracker. notify, if set, is called
// with every response.
func NewBehaviorStatus(c clock.Clock, notify func(BehaviorResult)) *BehaviorStatus {
	if c == nil {
		c = clock.Default()
	}
	return &BehaviorStatus{clock: c, notify: notify}
}

// ConsumeMessage handles behavior_response and ignores other types.
func (b *BehaviorStatus) ConsumeMessage(msg protocol.Message) error {
	if msg.Type != protocol.TypeBehaviorResponse {
		return nil
	}

	var resp protocol.BehaviorResponse
	if err := msg.Decode(&resp); err != nil {
		return fmt.Errorf("decode behavior_response: %w", err)
	}

	result := BehaviorResult{
		Success:    resp.Success,
		Message:    resp.Message,
		ReceivedAt: b.clock.Now(),
	}

	b.mu.Lock()
	b.last = result
	b.seen = true
	notify := b.notify
	b.mu.Unlock()

	if notify != nil {
		notify(result)
	}
	return nil
}

// Last returns the latest result and whether any has arrived.
func (b *BehaviorStatus) Last() (BehaviorResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.seen
}
