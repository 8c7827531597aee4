package editor

import (
	"sync"
	"time"
)

// IDGenerator issues field ids that are strictly increasing, so a deleted
// field's id is never handed out again within a schema.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator that never issues ids at or below floor
func NewIDGenerator(floor int64, now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{last: floor, now: now}
}

// Next returns a fresh id, seeded from the clock in milliseconds
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe raises the floor so ids already present are never issued
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
