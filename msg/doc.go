// Package msg implements message and array storage, the ownership protocol for
// nested objects, and the traversal that drives a handler set over a message.
//
// # Storage
//
// A Message is laid out by its schema.MessageDef: a data block holding the
// presence bitmap and inline scalars, and a slice of handle slots holding
// sub-messages, strings and arrays. An Array is a growable buffer of one
// element type whose capacity is always a power of two.
//
// # Ownership
//
// Messages, arrays and strings carry an atomic reference count. Every
// non-nil handle slot owns one reference to the object it holds:
//
//	m.Set(f, v)      refs the new value, then releases the old one
//	m.Unref()        on the last reference, releases every handle slot
//	                 (recursively) and frees the message
//
// Handle slots keep their objects after a field is cleared. A cleared
// message still owns them and hands them back out on the next append, so
// recycled arrays keep their capacity and recycled strings their buffers.
//
// # Recycling
//
// Recycle and RecycleArray reuse an object in place only when the caller
// holds the sole reference; a shared object is released and replaced, so no
// other holder ever observes the reset. Appending into a present but shared
// sub-message or array copies it first.
//
// # Traversal
//
// RunHandlers walks present fields in layout order and drives a
// handlers.Handlers set. BuilderHandlers is a handler set that rebuilds
// what it receives into a target message, so Copy is a traversal:
//
//	dst := msg.New(def)
//	if err := msg.Copy(dst, src); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Reference counts are atomic: read-only objects may be shared and released
// from any goroutine. Mutation of a single message or array is not
// synchronized and must be serialized by the caller.
//
// # Errors
//
// Contract violations (value type does not match the field, a field from
// another layout, use after free) panic with *errors.Error. Traversal
// outcomes are reported through handlers.Status.
package msg
