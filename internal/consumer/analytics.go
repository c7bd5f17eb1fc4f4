package consumer

import (
	"sync"

	"grimm.is/swarmctl/internal/protocol"
)

// AnalyticsView is what the analytics card shows.
type AnalyticsView struct {
	Agents    int
	Analytics *protocol.Analytics
	// PredatorPrey is the newest predator/prey distance; HasPredatorPrey is
	// false when the server reported none.
	PredatorPrey    float64
	HasPredatorPrey bool
}

// AnalyticsPanel keeps the most recent analytics block. Updates without
// analytics refresh the agent count but keep the previous block.
type AnalyticsPanel struct {
	mu   sync.RWMutex
	view AnalyticsView
}

// NewAnalyticsPanel creates an empty panel.
func NewAnalyticsPanel() *AnalyticsPanel {
	return &AnalyticsPanel{}
}

// ConsumeState records the agent count and any analytics.
func (p *AnalyticsPanel) ConsumeState(update *protocol.StateUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view.Agents = len(update.Agents)
	if update.Analytics != nil {
		p.view.Analytics = update.Analytics
		p.view.PredatorPrey, p.view.HasPredatorPrey = update.Analytics.LatestPredatorPreyDistance()
	}
	return nil
}

// View returns the current card contents.
func (p *AnalyticsPanel) View() AnalyticsView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}
