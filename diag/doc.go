// File: diag/doc.go
// Author: momentics <momentics@gmail.com>
//
// Package diag exposes operator-facing metrics, debug probes, and a small
// HTTP surface over them. It never sits on a reactor's hot path: every value
// it reports is pulled on demand, from whatever goroutine handles the HTTP
// request, never from inside the reactor loop itself.
package diag
