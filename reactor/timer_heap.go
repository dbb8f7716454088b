// File: reactor/timer_heap.go
// Author: momentics <momentics@gmail.com>
//
// TimerHeap (spec §4.5, component C5): a container/heap min-heap ordered by
// deadline, with insertion sequence as a FIFO tie-breaker for equal
// deadlines (spec §4.5 "Equal deadlines fire in registration order") and an
// index kept on each entry so Cancel is O(log n) instead of a linear scan.
//
// Grounded on the teacher's internal/concurrency/scheduler.go, which sketches
// the same container/heap-backed design.
package reactor

import (
	"container/heap"
	"time"

	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/pool"
)

// timerEntry is one scheduled deadline. index is maintained by heap.Interface
// so Cancel can remove it directly instead of scanning.
type timerEntry struct {
	deadline time.Time
	seq      uint64
	handler  *CompletionHandler
	fn       func(api.Context)
	index    int
}

type timerHeapData []*timerEntry

func (h timerHeapData) Len() int { return len(h) }

func (h timerHeapData) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeapData) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeapData) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeapData) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimerHeap wraps timerHeapData with the sequence counter and the
// cancellation-by-pointer convenience spec §4.5 requires (the Timer facade
// holds the *timerEntry it registered and cancels it directly).
//
// entries is a pool.SyncPool recycling *timerEntry values: a busy reactor
// schedules and fires timers continuously (every post_recv_some/post_send_all
// pairs with a watchdog Timer in the typical pattern, spec §8 scenario 2), so
// pooling avoids one heap allocation per timer on the hot path.
type TimerHeap struct {
	data    timerHeapData
	seq     uint64
	entries *pool.SyncPool[*timerEntry]
}

// NewTimerHeap returns an empty heap ready for use.
func NewTimerHeap() *TimerHeap {
	return &TimerHeap{
		entries: pool.NewSyncPool(func() *timerEntry { return &timerEntry{} }),
	}
}

// Add schedules fn to run at deadline, returning the entry handle used for
// Cancel.
func (t *TimerHeap) Add(deadline time.Time, fn func(api.Context)) *timerEntry {
	t.seq++
	e := t.entries.Get()
	e.deadline = deadline
	e.seq = t.seq
	e.handler = nil
	e.fn = fn
	heap.Push(&t.data, e)
	return e
}

// Cancel removes e if it is still pending. Safe to call on an already-fired
// or already-canceled entry (index -1 marks those).
func (t *TimerHeap) Cancel(e *timerEntry) bool {
	if e.index < 0 || e.index >= len(t.data) || t.data[e.index] != e {
		return false
	}
	heap.Remove(&t.data, e.index)
	e.index = -1
	t.release(e)
	return true
}

// release clears e's references and returns it to the pool. Callers must not
// touch e again afterwards.
func (t *TimerHeap) release(e *timerEntry) {
	e.handler = nil
	e.fn = nil
	t.entries.Put(e)
}

// Release returns an entry popped by PopExpired to the pool once the caller
// no longer needs it (Run copies fn out and releases the entry before
// invoking fn). Calling it on an entry still in the heap would corrupt the
// heap, so it is only safe on entries PopExpired already removed.
func (t *TimerHeap) Release(e *timerEntry) {
	t.release(e)
}

// Len reports the number of still-pending timers.
func (t *TimerHeap) Len() int { return t.data.Len() }

// NextDeadline returns the earliest pending deadline and true, or the zero
// time and false if the heap is empty. Run's step 4 derives the poll timeout
// from it.
func (t *TimerHeap) NextDeadline() (time.Time, bool) {
	if len(t.data) == 0 {
		return time.Time{}, false
	}
	return t.data[0].deadline, true
}

// PopExpired pops and returns every entry whose deadline is <= now, in
// deadline (then sequence) order, per spec §4.6 main loop step 3.
func (t *TimerHeap) PopExpired(now time.Time) []*timerEntry {
	var expired []*timerEntry
	for len(t.data) > 0 && !t.data[0].deadline.After(now) {
		e := heap.Pop(&t.data).(*timerEntry)
		expired = append(expired, e)
	}
	return expired
}
