// File: aio/outcome.go
// Author: momentics <momentics@gmail.com>
package aio

// Outcome is the synchronous-vs-deferred result every try-once façade method
// returns (spec §5 "Every async operation returns either Ready ... or
// Deferred").
type Outcome int

const (
	// Ready means the operation completed inline; the caller's result
	// values are already valid and no callback will fire for this call.
	Ready Outcome = iota
	// Deferred means a continuation was installed; the caller's supplied
	// function will fire exactly once from the reactor thread.
	Deferred
)
