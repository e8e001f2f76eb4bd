package core

import (
	"context"
	"sync"
	"time"
)

// EventChannel is an ordered, unbounded delivery path from background workers
// to a single consumer. Publish never blocks beyond the enqueue itself and no
// event is ever dropped; capacity is bounded only by process memory, which is
// acceptable because event volume is bounded by rounds x turns x retries.
//
// Producers may publish from any goroutine. Drain must be called by exactly
// one consumer.
type EventChannel struct {
	mu    sync.Mutex
	queue []Event
}

// NewEventChannel constructs an empty event channel.
func NewEventChannel() *EventChannel {
	return &EventChannel{}
}

// Publish appends an event to the queue in arrival order.
func (c *EventChannel) Publish(ev Event) {
	c.mu.Lock()
	c.queue = append(c.queue, ev)
	c.mu.Unlock()
}

// Drain returns all events enqueued since the previous drain, in enqueue
// order, or nil if none are pending.
func (c *EventChannel) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	out := c.queue
	c.queue = nil
	return out
}

// Len reports the number of pending events.
func (c *EventChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Consume polls ch on a fixed cadence, dispatching each drained event to fn
// in order. It returns when ctx is cancelled or after fn has seen an
// EventFinished, draining one final time first so no trailing events are
// lost. interval <= 0 falls back to 100ms, the reference polling cadence.
func Consume(ctx context.Context, ch *EventChannel, interval time.Duration, fn func(Event)) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			finished := false
			for _, ev := range ch.Drain() {
				fn(ev)
				if ev.Kind == EventFinished {
					finished = true
				}
			}
			if finished {
				return nil
			}
		}
	}
}

// FinishGuard makes a post-session side effect idempotent. The consumer may
// observe finished more than once; Fire runs fn at most once.
type FinishGuard struct {
	once sync.Once
}

// Fire runs fn if and only if no prior Fire call has run it.
func (g *FinishGuard) Fire(fn func()) {
	g.once.Do(fn)
}
