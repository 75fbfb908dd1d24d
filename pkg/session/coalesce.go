package session

import (
	"sync"
	"time"

	"github.com/matzehuels/linkboard/pkg/schema"
	"github.com/matzehuels/linkboard/pkg/selection"
)

// DefaultCoalesceWindow is how long property edits settle before they are
// committed to the graph.
const DefaultCoalesceWindow = 300 * time.Millisecond

// edit is a proposed attribute tree for one entity.
type edit struct {
	ref   selection.Ref
	value schema.Value
}

// coalescer debounces property edits. Each submit restarts the window;
// when it elapses settled is called, and the owner collects the latest
// value per entity with take. Edits to different entities are kept side
// by side in submission order.
//
// The coalescer never hands a batch to its owner itself: pending edits
// stay visible to lookup until the owner takes them under its own lock.
type coalescer struct {
	mu      sync.Mutex
	window  time.Duration
	settled func()
	pending []edit
	timer   *time.Timer
	stopped bool
}

func newCoalescer(window time.Duration, settled func()) *coalescer {
	return &coalescer{window: window, settled: settled}
}

// submit records v as the latest value for ref.
func (c *coalescer) submit(ref selection.Ref, v schema.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	replaced := false
	for i := range c.pending {
		if c.pending[i].ref == ref {
			c.pending[i].value = v
			replaced = true
			break
		}
	}
	if !replaced {
		c.pending = append(c.pending, edit{ref: ref, value: v})
	}

	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.fire)
		return
	}
	c.timer.Reset(c.window)
}

// lookup returns the pending value for ref, if any.
func (c *coalescer) lookup(ref selection.Ref) (schema.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.pending {
		if e.ref == ref {
			return e.value, true
		}
	}
	return schema.Value{}, false
}

// take removes and returns every pending edit without committing them.
func (c *coalescer) take() []edit {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	batch := c.pending
	c.pending = nil
	return batch
}

// discard drops the pending edit for ref.
func (c *coalescer) discard(ref selection.Ref) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.pending {
		if e.ref == ref {
			c.pending = append(c.pending[:i:i], c.pending[i+1:]...)
			return
		}
	}
}

// len returns the number of entities with a pending edit.
func (c *coalescer) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *coalescer) fire() {
	c.mu.Lock()
	ready := len(c.pending) > 0 && !c.stopped
	c.mu.Unlock()
	if ready {
		c.settled()
	}
}

// stop cancels the timer and returns the edits that never committed.
func (c *coalescer) stop() []edit {
	batch := c.take()
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	return batch
}
