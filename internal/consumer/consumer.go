// Package consumer holds the state and message consumers that sit behind
// the router: the agent field with motion trails, the analytics panel, the
// recording sink and the behavior status line.
package consumer

import (
	"grimm.is/swarmctl/internal/protocol"
	"grimm.is/swarmctl/internal/router"
)

// StateConsumer receives each accepted state update.
type StateConsumer interface {
	ConsumeState(update *protocol.StateUpdate) error
}

// MessageConsumer receives every non-state frame.
type MessageConsumer interface {
	ConsumeMessage(msg protocol.Message) error
}

// Attach subscribes c to r under name for each consumer interface it
// implements and returns the subscriptions.
func Attach(r *router.Router, name string, c any) []router.Subscription {
	var subs []router.Subscription
	if sc, ok := c.(StateConsumer); ok {
		subs = append(subs, r.SubscribeState(name, sc.ConsumeState))
	}
	if mc, ok := c.(MessageConsumer); ok {
		subs = append(subs, r.SubscribeMessage(name, mc.ConsumeMessage))
	}
	return subs
}

// Detach removes subscriptions returned by Attach.
func Detach(r *router.Router, subs []router.Subscription) {
	for _, s := range subs {
		r.Unsubscribe(s)
	}
}
