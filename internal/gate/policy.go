package gate

import "fmt"

// Policy decides how parameter changes are paced.
type Policy int

const (
	// PolicyImmediate sends every accepted change at once.
	PolicyImmediate Policy = iota
	// PolicyDebounced sends only the last change after a quiet window.
	PolicyDebounced
)

func (p Policy) String() string {
	if p == PolicyImmediate {
		return "immediate"
	}
	return "debounced"
}

// ParsePolicy converts a config name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "immediate":
		return PolicyImmediate, nil
	case "debounced", "":
		return PolicyDebounced, nil
	}
	return 0, fmt.Errorf("unknown pacing policy %q", s)
}

// Rule is the pacing policy and accepted range for one parameter.
type Rule struct {
	Name   string
	Policy Policy
	Min    float64
	Max    float64
}

// Contains reports whether v lies within [Min, Max].
func (r Rule) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// DefaultRules is the built-in parameter table.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "agentCount", Policy: PolicyImmediate, Min: 5, Max: 50},
		{Name: "agentSpeed", Policy: PolicyDebounced, Min: 1, Max: 10},
		{Name: "swarmCohesion", Policy: PolicyDebounced, Min: 0, Max: 10},
		{Name: "swarmAlignment", Policy: PolicyDebounced, Min: 0, Max: 10},
		{Name: "waveFrequency", Policy: PolicyDebounced, Min: 0.1, Max: 5},
		{Name: "waveAmplitude", Policy: PolicyDebounced, Min: 0, Max: 50},
	}
}

// Patterns the stock simulation understands. Others are forwarded as-is.
var Patterns = []string{"flocking", "circle", "scatter"}
