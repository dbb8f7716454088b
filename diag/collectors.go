// File: diag/collectors.go
// Author: momentics <momentics@gmail.com>
//
// Ready-made probes for this module's own components, so wiring diagnostics
// into a running reactor is one call rather than hand-rolled closures at
// every call site.
package diag

import (
	"github.com/momentics/solidframe-go/memcache"
	"github.com/momentics/solidframe-go/reactor"
)

// RegisterReactorProbes adds r's Stats() under the "reactor." namespace.
func RegisterReactorProbes(p *Probes, r *reactor.Reactor) {
	p.Register("reactor.live_objects", func() any { return r.Stats().LiveObjects })
	p.Register("reactor.free_slots", func() any { return r.Stats().FreeSlots })
	p.Register("reactor.pending_timers", func() any { return r.Stats().PendingTimers })
	p.Register("reactor.device_watches", func() any { return r.Stats().DeviceWatches })
}

// RegisterCacheProbes adds c's Stats() under the "memcache." namespace.
func RegisterCacheProbes(p *Probes, c *memcache.Cache) {
	p.Register("memcache.total_pages", func() any { return c.Stats().TotalPages })
	p.Register("memcache.empty_pages", func() any { return c.Stats().EmptyPages })
	p.Register("memcache.keep_pages", func() any { return c.Stats().KeepPages })
	p.Register("memcache.classes", func() any { return c.Stats().Classes })
}
