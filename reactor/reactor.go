// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Reactor (spec §4.6, component C6) is the single-threaded cooperative
// engine: a slot table of Objects with generation counters (spec §8
// "generation drop" scenario), a TimerHeap, the OS readiness poller, and a
// cross-thread posted-event queue. Run must be called from the goroutine
// that is to become the reactor thread; every other method on this type is
// safe to call from any goroutine unless documented otherwise.
package reactor

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/momentics/solidframe-go/affinity"
	"github.com/momentics/solidframe-go/api"
)

type objectSlot struct {
	gen      uint32
	obj      api.Object
	handlers *CompletionHandler // intrusive sibling list head
	live     bool
	fresh    bool // true until its OnInit has been dispatched
}

// Reactor implements api.Reactor.
type Reactor struct {
	cfg Config

	poller osPoller
	timers *TimerHeap
	posted *postedQueue

	deviceHandlers map[int]*CompletionHandler

	mu    sync.Mutex // guards slots, free and stopRequested; dispatch takes it briefly via slotLive
	slots []objectSlot
	free  []uint32

	stopRequested int32
	ctx           reactorContext

	pollEventsBuf []readinessEvent

	log *log.Logger
}

// New constructs a Reactor. The OS poller is created here so New can fail
// early (e.g. ErrNotSupported on an unsupported platform) rather than
// deferring the error to Run.
func New(cfg Config) (*Reactor, error) {
	poller, err := newOSPoller()
	if err != nil {
		return nil, err
	}
	r := &Reactor{
		cfg:            cfg,
		poller:         poller,
		timers:         NewTimerHeap(),
		posted:         newPostedQueue(),
		deviceHandlers: make(map[int]*CompletionHandler),
		pollEventsBuf:  make([]readinessEvent, cfg.maxPollEvents()),
		log:            cfg.logger(),
	}
	r.ctx.r = r
	return r, nil
}

// Register allocates a slot for obj (spec §4.6 "slot table of Objects").
func (r *Reactor) Register(obj api.Object) (api.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[idx].obj = obj
		r.slots[idx].live = true
		r.slots[idx].fresh = true
		r.slots[idx].handlers = nil
	} else {
		if r.cfg.MaxObjects > 0 && len(r.slots) >= r.cfg.MaxObjects {
			r.log.Printf("reactor: object slot table exhausted at %d/%d", len(r.slots), r.cfg.MaxObjects)
			return api.ObjectID{}, api.ErrCapacityError
		}
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, objectSlot{obj: obj, live: true, fresh: true})
	}
	return api.ObjectID{Slot: idx, Gen: r.slots[idx].gen}, nil
}

// Unregister releases id's slot, bumping its generation so any in-flight
// PostedEvent addressed to the old id is dropped on delivery (spec §8).
func (r *Reactor) Unregister(id api.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(id.Slot) >= len(r.slots) {
		return api.NewError(api.ErrCodeInternal, "reactor: unregister of unknown slot")
	}
	slot := &r.slots[id.Slot]
	if !slot.live || slot.gen != id.Gen {
		return nil // already gone; idempotent
	}
	for h := slot.handlers; h != nil; {
		next := h.next
		h.Close()
		h = next
	}
	slot.obj = nil
	slot.handlers = nil
	slot.live = false
	slot.gen++
	r.free = append(r.free, id.Slot)
	return nil
}

// Post enqueues fn against id, to run on the reactor thread on the next
// drain (spec §4.6 step 2). Safe from any goroutine.
func (r *Reactor) Post(id api.ObjectID, fn func(api.Context)) error {
	r.posted.push(api.PostedEvent{Target: id, Fn: fn})
	if r.poller != nil {
		_ = r.poller.Wake()
	}
	return nil
}

// Stop requests the main loop exit after finishing its current iteration.
// Safe from any goroutine.
func (r *Reactor) Stop() {
	r.mu.Lock()
	r.stopRequested = 1
	r.mu.Unlock()
	if r.poller != nil {
		_ = r.poller.Wake()
	}
}

func (r *Reactor) shouldStop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRequested != 0
}

func (r *Reactor) slotLive(id api.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(id.Slot) >= len(r.slots) {
		return false
	}
	s := &r.slots[id.Slot]
	return s.live && s.gen == id.Gen
}

// Run drives the main loop until Stop is called (spec §4.6). It is intended
// to be called once, from the goroutine that becomes the reactor thread.
func (r *Reactor) Run() error {
	if r.cfg.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if r.cfg.PinCPU >= 0 {
			_ = affinity.SetAffinity(r.cfg.PinCPU)
		}
	}

	for !r.shouldStop() {
		now := time.Now()
		r.ctx.now = now

		// Step 2: drain posted events.
		for _, ev := range r.posted.drain() {
			if !r.slotLive(ev.Target) {
				continue
			}
			fn, ctx := ev.Fn, r.ctx.forObject(ev.Target)
			r.guard(func() { fn(ctx) })
		}

		// Step 3: drain expired timers.
		for _, e := range r.timers.PopExpired(now) {
			var owner api.ObjectID
			live := true
			if e.handler != nil {
				owner = e.handler.owner
				live = r.slotLive(owner)
			}
			fn := e.fn
			r.timers.Release(e)
			if !live {
				continue
			}
			ctx := r.ctx.forObject(owner)
			r.guard(func() { fn(ctx) })
		}

		// Step 4: poll OS readiness.
		timeout := r.nextPollTimeout(now)
		n, err := r.poller.Wait(timeout, r.pollEventsBuf)
		if err != nil {
			r.log.Printf("reactor: poller wait error: %v", err)
		} else {
			for i := 0; i < n; i++ {
				ev := r.pollEventsBuf[i]
				h := r.deviceHandlers[ev.FD]
				if h == nil || !r.slotLive(h.owner) {
					continue
				}
				ctx, mask := r.ctx.forObject(h.owner), ev.Mask
				r.guard(func() { h.dispatch(ctx, mask) })
			}
		}

		// Step 5: dispatch freshly-registered Objects' init events.
		r.dispatchFreshInits()
	}
	return nil
}

func (r *Reactor) nextPollTimeout(now time.Time) time.Duration {
	const maxIdle = 1 * time.Second
	deadline, ok := r.timers.NextDeadline()
	if !ok {
		return maxIdle
	}
	d := deadline.Sub(now)
	if d < 0 {
		return 0
	}
	if d > maxIdle {
		return maxIdle
	}
	return d
}

func (r *Reactor) dispatchFreshInits() {
	r.mu.Lock()
	var fresh []uint32
	for i := range r.slots {
		if r.slots[i].live && r.slots[i].fresh {
			r.slots[i].fresh = false
			fresh = append(fresh, uint32(i))
		}
	}
	r.mu.Unlock()

	for _, idx := range fresh {
		r.mu.Lock()
		slot := &r.slots[idx]
		if !slot.live {
			r.mu.Unlock()
			continue
		}
		obj := slot.obj
		id := api.ObjectID{Slot: idx, Gen: slot.gen}
		r.mu.Unlock()
		ctx := r.ctx.forObject(id)
		r.guard(func() { obj.OnInit(ctx) })
	}
}

// guard runs fn, recovering and logging any panic so one misbehaving
// callback never brings down the whole loop (grounded on the teacher's
// reactor/epoll_reactor.go recover-per-dispatch wrapper, widened to log the
// panic instead of silently discarding it).
func (r *Reactor) guard(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Printf("reactor: recovered panic in dispatched callback: %v", rec)
		}
	}()
	fn()
}

// NewHandler creates a CompletionHandler bound to owner on this reactor and
// links it into owner's sibling list, so Unregister can tear it down.
func (r *Reactor) NewHandler(owner api.ObjectID) *CompletionHandler {
	h := NewCompletionHandler(r, owner)
	r.mu.Lock()
	if int(owner.Slot) < len(r.slots) {
		slot := &r.slots[owner.Slot]
		h.next = slot.handlers
		slot.handlers = h
	}
	r.mu.Unlock()
	return h
}

// Close releases the OS poller. Call after Run returns.
func (r *Reactor) Close() error {
	if r.poller == nil {
		return nil
	}
	return r.poller.Close()
}

// Stats is a point-in-time snapshot for diagnostics/metrics exposure; it
// takes the slot-table lock briefly and is safe from any goroutine.
type Stats struct {
	LiveObjects   int
	FreeSlots     int
	PendingTimers int
	DeviceWatches int
}

// Stats reports the current slot table and timer/device watch occupancy.
func (r *Reactor) Stats() Stats {
	r.mu.Lock()
	live := 0
	for i := range r.slots {
		if r.slots[i].live {
			live++
		}
	}
	free := len(r.free)
	devices := len(r.deviceHandlers)
	r.mu.Unlock()
	return Stats{
		LiveObjects:   live,
		FreeSlots:     free,
		PendingTimers: r.timers.Len(),
		DeviceWatches: devices,
	}
}
