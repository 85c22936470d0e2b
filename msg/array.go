package msg

import (
	"go.uber.org/zap"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/internal/bits"
	"github.com/wippyai/msg-runtime/refcount"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/value"
)

// Array is a refcounted, growable buffer of one element type.
//
// Scalar elements are packed in data; handle elements live in handles. The
// array owns every non-nil handle in [0, Cap), including those past Len left
// behind by a shrink or recycle; they are reused by later appends and
// released when the array is freed.
type Array struct {
	refs    refcount.Count
	data    []byte
	handles []refcount.Object
	len     uint32
	cap     uint32
	elem    value.Type
	freed   bool
}

// NewArray creates an empty array of elem values with a count of 1.
func NewArray(elem value.Type) *Array {
	if elem == value.TypeInvalid || elem == value.TypeArray || elem > value.TypeArray {
		panic(errors.UnknownKind(errors.PhaseStore, elem.String()))
	}
	a := &Array{elem: elem}
	a.refs.Init(1)
	notify(EventAlloc, a)
	return a
}

func (a *Array) Refs() *refcount.Count { return &a.refs }

// Value wraps a as an array Value. A nil a yields an unset handle.
func (a *Array) Value() value.Value {
	if a == nil {
		return value.Ref(value.TypeArray, nil)
	}
	return value.Ref(value.TypeArray, a)
}

func (a *Array) Ref() { a.refs.Ref() }

// Unref drops one reference, freeing the array on the last one. It reports
// whether the array was freed.
func (a *Array) Unref() bool {
	if a == nil {
		return false
	}
	if !a.refs.Unref() {
		return false
	}
	a.free()
	return true
}

func (a *Array) free() {
	for i, h := range a.handles {
		a.handles[i] = nil
		release(h)
	}
	if ce := Logger().Check(zap.DebugLevel, "array freed"); ce != nil {
		ce.Write(zap.Stringer("elem", a.elem), zap.Uint32("cap", a.cap))
	}
	a.handles = nil
	a.data = nil
	a.len, a.cap = 0, 0
	a.freed = true
	notify(EventFree, a)
}

// Freed reports whether the last reference has been released.
func (a *Array) Freed() bool { return a.freed }

func (a *Array) Elem() value.Type { return a.elem }

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return int(a.len)
}

func (a *Array) Cap() int {
	if a == nil {
		return 0
	}
	return int(a.cap)
}

// Resize sets the logical length to n. When n exceeds the capacity, the
// capacity grows to the next power of two >= n and the new region is
// zeroed. Storage never shrinks, and shrinking the length leaves the
// elements past it untouched.
func (a *Array) Resize(n int) {
	a.checkLive()
	if n < 0 || uint64(n) > uint64(^uint32(0)>>1) {
		panic(errors.OutOfBounds(errors.PhaseStore, []string{"resize"}, n, int(a.len)))
	}
	if newLen := uint32(n); newLen > a.cap {
		a.grow(bits.RoundUpPow2(newLen))
	}
	a.len = uint32(n)
}

func (a *Array) grow(newCap uint32) {
	if a.elem.IsRef() {
		handles := make([]refcount.Object, newCap)
		copy(handles, a.handles)
		a.handles = handles
	} else {
		data := make([]byte, newCap*a.elem.Size())
		copy(data, a.data)
		a.data = data
	}
	a.cap = newCap
}

func (a *Array) checkLive() {
	if a.freed {
		panic(errors.Refcount("use of freed array"))
	}
}

func (a *Array) checkIndex(i int) {
	a.checkLive()
	if i < 0 || i >= int(a.len) {
		panic(errors.OutOfBounds(errors.PhaseStore, nil, i, int(a.len)))
	}
}

// Get returns element i.
func (a *Array) Get(i int) value.Value {
	a.checkIndex(i)
	if a.elem.IsRef() {
		return value.Ref(a.elem, a.handles[i])
	}
	size := a.elem.Size()
	return value.FromBits(a.elem, loadBits(a.data, uint32(i)*size, size))
}

// Set stores v at index i. Handle elements take a reference to the new
// value and release the old one.
func (a *Array) Set(i int, v value.Value) {
	a.set(i, v, nil)
}

// set is Set with the message layout elements must have. A nil def accepts
// any layout.
func (a *Array) set(i int, v value.Value, def *schema.MessageDef) {
	a.checkIndex(i)
	if v.Type() != a.elem {
		panic(errors.TypeMismatch(errors.PhaseStore, nil, v.Type().String(), a.elem.String()))
	}
	if a.elem.IsRef() {
		o := handleOf(v)
		checkHandle(func() []string { return nil }, a.elem, o, a.elem, def)
		storeHandle(&a.handles[i], o)
		return
	}
	size := a.elem.Size()
	storeBits(a.data, uint32(i)*size, size, v.Bits())
}

// Append grows the array by one and stores v in the new element.
func (a *Array) Append(v value.Value) {
	n := int(a.len)
	a.Resize(n + 1)
	a.Set(n, v)
}

// clone returns a private copy with a count of 1. The copy holds its own
// reference to every handle element, cached ones included.
func (a *Array) clone() *Array {
	c := NewArray(a.elem)
	if a.cap > 0 {
		c.grow(a.cap)
	}
	copy(c.data, a.data)
	for i, h := range a.handles {
		if h != nil {
			h.Refs().Ref()
			c.handles[i] = h
		}
	}
	c.len = a.len
	return c
}

// RecycleArray makes *slot an empty, sole-owned array of elem. A sole-owned
// array is reset to length 0 in place, keeping its capacity and cached
// elements; otherwise the old array is released and replaced. It reports
// whether the existing array was reused.
func RecycleArray(slot **Array, elem value.Type) bool {
	a, reused := recycleArray(*slot, elem)
	*slot = a
	return reused
}

func recycleArray(a *Array, elem value.Type) (*Array, bool) {
	if a != nil && a.elem == elem && a.refs.Only() {
		a.len = 0
		notify(EventRecycle, a)
		return a, true
	}
	if a != nil {
		a.Unref()
	}
	return NewArray(elem), false
}
