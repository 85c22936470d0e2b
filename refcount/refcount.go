// Package refcount provides the atomic ownership count carried by every
// shared heap object in the store: messages, arrays and strings.
//
// A Count only manages the number. Mutating the object it is attached to
// remains the caller's job to serialize; the count is what makes it safe for
// several goroutines to hold and release independent references to the same
// read-only object.
package refcount

import (
	"sync/atomic"

	"github.com/wippyai/msg-runtime/errors"
)

// Count is an atomic reference count. The zero value is a count of 0.
type Count struct {
	n atomic.Int32
}

// Object is implemented by heap objects whose lifetime is governed by a Count.
type Object interface {
	Refs() *Count
}

// Init sets the count. Only valid before the object is shared.
func (c *Count) Init(n int32) {
	c.n.Store(n)
}

// Ref takes one reference.
func (c *Count) Ref() {
	c.n.Add(1)
}

// Unref drops one reference and reports whether it was the last one.
func (c *Count) Unref() bool {
	n := c.n.Add(-1)
	if n < 0 {
		panic(errors.Refcount("reference released more times than taken"))
	}
	return n == 0
}

// Only reports whether the caller holds the sole reference.
func (c *Count) Only() bool {
	return c.n.Load() == 1
}

// Load returns the current count.
func (c *Count) Load() int32 {
	return c.n.Load()
}
