// File: api/reactor.go
// Package api: the public surface application code programs against
// (spec §6 "External Interfaces"). The concrete engine lives in package
// reactor; this file only fixes the contract so socket/secure/aio can refer
// to it without importing the engine (which in turn imports them).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "time"

// ObjectID identifies a registered Object by slot and generation (spec §3
// Object, §8 invariant 6 / "generation drop" scenario).
type ObjectID struct {
	Slot uint32
	Gen  uint32
}

// Context is the transient per-callback argument the reactor hands every
// completion handler (spec §3 ReactorContext). It is only ever stack-passed;
// nothing may retain it past the callback that received it.
type Context interface {
	// Now returns the reactor's snapshot of the current monotonic time for
	// this dispatch tick.
	Now() time.Time

	// Err returns the domain error set on this dispatch, or nil.
	Err() error

	// SystemErr returns the raw OS error backing Err, if any.
	SystemErr() error

	// ClearErr clears both error slots. The reactor clears both slots before
	// each dispatch; the aio operations do not call ClearErr on entry.
	ClearErr()

	// Reactor returns the reactor driving this callback.
	Reactor() Reactor

	// Object returns the id of the Object owning the handler being
	// dispatched.
	Object() ObjectID

	// Repost re-enters the posted-event queue for the current object from
	// inside one of its own callbacks (SPEC_FULL §C.2).
	Repost(fn func(Context))
}

// PostedEvent is a unit of cross-thread work targeted at a specific Object
// (spec §3 Event, §4.6 step 2).
type PostedEvent struct {
	Target ObjectID
	Fn     func(Context)
}

// Reactor is the engine application code registers Objects with and runs.
type Reactor interface {
	// Register allocates a slot for obj, returning its id. Fails with
	// ErrCapacityError if the slot table is full (spec §7).
	Register(obj Object) (ObjectID, error)

	// Unregister releases obj's slot and bumps its generation so any
	// in-flight PostedEvent addressed to the old id is dropped (spec §8
	// "generation drop").
	Unregister(id ObjectID) error

	// Post enqueues fn to run on the reactor thread against the Object
	// identified by id, iff its generation still matches (spec §4.6 step 2).
	// Safe to call from any goroutine.
	Post(id ObjectID, fn func(Context)) error

	// Run drives the loop until Stop is called.
	Run() error

	// Stop requests the loop exit after the current dispatch completes
	// (SPEC_FULL §C.4); safe to call from any goroutine.
	Stop()
}

// Object is a long-lived participant registered with a Reactor (spec §3).
type Object interface {
	// OnInit is dispatched exactly once, on the reactor thread, after
	// registration (spec §4.4 "init event").
	OnInit(ctx Context)
}
