package msg

import (
	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/refcount"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/str"
	"github.com/wippyai/msg-runtime/value"
)

// Slot addresses one value location: a singular field of a message or one
// element of a repeated field's array.
type Slot struct {
	m *Message
	a *Array
	f *schema.Field
	i int
}

func (s Slot) Field() *schema.Field { return s.f }

// Index is the element index for array slots, -1 for message fields.
func (s Slot) Index() int {
	if s.a == nil {
		return -1
	}
	return s.i
}

// Get reads the slot. For message fields this follows Message.Get.
func (s Slot) Get() value.Value {
	if s.a != nil {
		return s.a.Get(s.i)
	}
	return s.m.Get(s.f)
}

// Set stores v in the slot with the usual ownership rules. v has the
// field's element type.
func (s Slot) Set(v value.Value) {
	if s.a != nil {
		s.a.set(s.i, v, s.f.Message)
		return
	}
	s.m.Set(s.f, v)
}

func (s Slot) handle() *refcount.Object {
	if s.a != nil {
		return &s.a.handles[s.i]
	}
	return &s.m.handles[s.f.Offset()]
}

// AppendElement returns the slot a decoder fills next for f. For a repeated
// field the array is extended by one element; the first append since the
// field was last unset recycles the array. For a singular field the slot is
// the field itself.
func (m *Message) AppendElement(f *schema.Field) Slot {
	m.checkField(f)
	if !f.IsArray() {
		return Slot{m: m, f: f}
	}

	h := &m.handles[f.Offset()]
	cur, _ := (*h).(*Array)
	switch {
	case !m.has(f) || cur == nil:
		// Slot owns cur; recycleArray either keeps it or releases it.
		cur, _ = recycleArray(cur, f.ElemType())
		*h = cur
		m.setHas(f)
	case !cur.refs.Only():
		c := cur.clone()
		*h = c
		cur.Unref()
		cur = c
	}

	n := cur.Len()
	cur.Resize(n + 1)
	return Slot{m: m, a: cur, f: f, i: n}
}

// Append adds v to f: a new element for repeated fields, an overwrite for
// singular ones. String values are copied into the string cached in the
// destination slot (recycled when sole-owned) rather than shared.
func (m *Message) Append(f *schema.Field, v value.Value) {
	m.checkField(f)
	if v.Type() != f.ElemType() {
		panic(errors.TypeMismatch(errors.PhaseStore, m.path(f), v.Type().String(), f.ElemType().String()))
	}

	s := m.AppendElement(f)
	if !f.IsString() {
		s.Set(v)
		return
	}

	src, _ := v.Handle().(*str.Str)
	h := s.handle()
	cached, _ := (*h).(*str.Str)
	if src != nil && src == cached {
		m.setHas(f)
		return
	}
	dst := recycleStr(cached)
	*h = dst
	if src != nil {
		str.Substr(dst, src, 0, src.Len())
	}
	m.setHas(f)
}

// recycleStr returns an empty string owned by the caller's slot, reusing s
// when the slot is its only owner. Otherwise the slot's reference to s is
// dropped.
func recycleStr(s *str.Str) *str.Str {
	if s != nil && s.Refs().Only() {
		str.Recycle(&s)
		notify(EventRecycle, s)
		return s
	}
	if s != nil {
		release(s)
	}
	n := str.New("")
	notify(EventAlloc, n)
	return n
}

// AppendMessage returns the sub-message a decoder fills next for f. For a
// repeated field this is a new element, recycled from the one cached at
// that index when possible. For a singular field that is unset the cached
// sub-message is recycled; a present one is returned for merging, copied
// first if it is shared.
func (m *Message) AppendMessage(f *schema.Field) *Message {
	m.checkField(f)
	if !f.IsSubmessage() {
		panic(errors.TypeMismatch(errors.PhaseStore, m.path(f), "message", f.ElemType().String()))
	}

	s := m.AppendElement(f)
	h := s.handle()
	cur, _ := (*h).(*Message)

	switch {
	case f.IsArray() || !m.has(f) || cur == nil:
		cur, _ = recycleMessage(cur, f.Message)
		*h = cur
		m.setHas(f)
	case !cur.refs.Only():
		c := cur.clone(1)
		*h = c
		cur.Unref()
		cur = c
	}
	return cur
}
