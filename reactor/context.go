// File: reactor/context.go
// Author: momentics <momentics@gmail.com>
//
// reactorContext is the concrete api.Context each Reactor holds as a single
// field and reuses (by mutation) across every dispatch, since spec §3
// forbids retaining a ReactorContext past the callback that received it — a
// single value standing in for every dispatch avoids an allocation per
// completion, mirroring the teacher's allocation-averse hot-path style
// elsewhere in pool/.
package reactor

import (
	"time"

	"github.com/momentics/solidframe-go/api"
)

type reactorContext struct {
	r         *Reactor
	now       time.Time
	object    api.ObjectID
	domainErr error
	sysErr    error
}

func (c *reactorContext) Now() time.Time { return c.now }

func (c *reactorContext) Err() error { return c.domainErr }

func (c *reactorContext) SystemErr() error { return c.sysErr }

func (c *reactorContext) ClearErr() {
	c.domainErr = nil
	c.sysErr = nil
}

func (c *reactorContext) Reactor() api.Reactor { return c.r }

func (c *reactorContext) Object() api.ObjectID { return c.object }

// Repost re-enters the posted-event queue for the context's own object
// (SPEC_FULL §C.2), letting a callback defer follow-up work to the next tick
// without reaching back through the Reactor interface by hand.
func (c *reactorContext) Repost(fn func(api.Context)) {
	_ = c.r.Post(c.object, fn)
}

// setError records a dispatch failure for the current callback to observe
// via Err/SystemErr (spec §7).
func (c *reactorContext) setError(domainErr *api.Error, sysErr error) {
	c.domainErr = domainErr
	c.sysErr = sysErr
}

func (c *reactorContext) forObject(id api.ObjectID) *reactorContext {
	c.object = id
	c.domainErr = nil
	c.sysErr = nil
	return c
}
