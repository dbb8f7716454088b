// File: reactor/queue.go
// Author: momentics <momentics@gmail.com>
//
// postedQueue is the cross-thread event inbox the Reactor drains each tick
// (spec §4.6 step 2, SPEC_FULL §B wires github.com/eapache/queue here as the
// teacher's own go.mod dependency, in place of hand-rolling a ring buffer).
// Delivery checks the target ObjectID's generation against the live slot
// table and silently drops stale entries (spec §8 "generation drop"
// scenario) rather than erroring, since the poster has no way to know
// whether its target outlived the post.
package reactor

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/solidframe-go/api"
)

type postedQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newPostedQueue() *postedQueue {
	return &postedQueue{q: queue.New()}
}

func (p *postedQueue) push(ev api.PostedEvent) {
	p.mu.Lock()
	p.q.Add(ev)
	p.mu.Unlock()
}

// drain removes and returns every event queued so far, leaving the queue
// empty for the next tick. Events posted concurrently with drain land in the
// next tick's batch, not this one.
func (p *postedQueue) drain() []api.PostedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.q.Length()
	if n == 0 {
		return nil
	}
	out := make([]api.PostedEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, p.q.Remove().(api.PostedEvent))
	}
	return out
}
