// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
//
// Generic object pooling. Component-specific pools (memory blocks, timer
// entries) live with their owning package; this package only holds the
// reusable sync.Pool wrapper they're built on.
package pool
