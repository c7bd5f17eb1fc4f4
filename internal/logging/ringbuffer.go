package logging

import (
	"sync"
	"time"
)

// DefaultRingSize is how many entries the application buffer keeps.
const DefaultRingSize = 500

// AppLogEntry is one captured log record.
type AppLogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"`
	Source    string            `json:"source"` // component, or "system"
	Message   string            `json:"message"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// RingBuffer keeps the most recent log entries in memory. The viewer reads
// it for its log pane since the terminal itself is taken.
type RingBuffer struct {
	mu          sync.RWMutex
	entries     []AppLogEntry
	next        int
	full        bool
	overwritten uint64
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{entries: make([]AppLogEntry, size)}
}

// Add appends an entry, overwriting the oldest when full.
func (rb *RingBuffer) Add(e AppLogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.full {
		rb.overwritten++
	}
	rb.entries[rb.next] = e
	rb.next++
	if rb.next == len(rb.entries) {
		rb.next = 0
		rb.full = true
	}
}

// Len returns the number of entries held.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.lenLocked()
}

func (rb *RingBuffer) lenLocked() int {
	if rb.full {
		return len(rb.entries)
	}
	return rb.next
}

// Overwritten counts entries lost to wraparound.
func (rb *RingBuffer) Overwritten() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.overwritten
}

// Last returns up to n of the newest entries, oldest first.
func (rb *RingBuffer) Last(n int) []AppLogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if have := rb.lenLocked(); n > have {
		n = have
	}
	if n <= 0 {
		return []AppLogEntry{}
	}

	out := make([]AppLogEntry, n)
	size := len(rb.entries)
	for i := range out {
		out[i] = rb.entries[(rb.next-n+i+size)%size]
	}
	return out
}

// All returns every held entry, oldest first.
func (rb *RingBuffer) All() []AppLogEntry {
	return rb.Last(rb.Len())
}

// Component returns up to limit of the newest entries from one component,
// oldest first. A limit of zero means no limit.
func (rb *RingBuffer) Component(name string, limit int) []AppLogEntry {
	all := rb.All()
	var out []AppLogEntry
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Source != name {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Reset drops every entry.
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	clear(rb.entries)
	rb.next = 0
	rb.full = false
	rb.overwritten = 0
}

var appLogs = NewRingBuffer(DefaultRingSize)

// AppLogs returns the process-wide buffer every Logger taps into.
func AppLogs() *RingBuffer {
	return appLogs
}
