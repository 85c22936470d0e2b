package msg

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/refcount"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/value"
)

// Message is one instance of a message layout.
type Message struct {
	refs    refcount.Count
	def     *schema.MessageDef
	data    []byte
	handles []refcount.Object
	freed   bool
}

// New allocates a zeroed message of layout def with a count of 1. Every
// field starts unset.
func New(def *schema.MessageDef) *Message {
	return newMessage(def, 1)
}

func newMessage(def *schema.MessageDef, count int32) *Message {
	if !def.Finalized() {
		panic(errors.NotFinalized(errors.PhaseStore, def.Name()))
	}
	m := &Message{
		def:     def,
		data:    make([]byte, def.Size()),
		handles: make([]refcount.Object, def.Handles()),
	}
	m.refs.Init(count)
	notify(EventAlloc, m)
	return m
}

func (m *Message) Refs() *refcount.Count { return &m.refs }

func (m *Message) Def() *schema.MessageDef { return m.def }

// Value wraps m as a message Value. A nil m yields an unset handle.
func (m *Message) Value() value.Value {
	if m == nil {
		return value.Ref(value.TypeMessage, nil)
	}
	return value.Ref(value.TypeMessage, m)
}

func (m *Message) Ref() { m.refs.Ref() }

// Unref drops one reference, freeing the message on the last one. It reports
// whether the message was freed.
func (m *Message) Unref() bool {
	if m == nil {
		return false
	}
	if !m.refs.Unref() {
		return false
	}
	m.free()
	return true
}

func (m *Message) free() {
	for i, h := range m.handles {
		m.handles[i] = nil
		release(h)
	}
	if ce := Logger().Check(zap.DebugLevel, "message freed"); ce != nil {
		ce.Write(zap.String("type", m.def.Name()))
	}
	m.handles = nil
	m.data = nil
	m.freed = true
	notify(EventFree, m)
}

// Freed reports whether the last reference has been released.
func (m *Message) Freed() bool { return m.freed }

func (m *Message) path(f *schema.Field) []string {
	return []string{m.def.Name(), strconv.Itoa(int(f.Number))}
}

func (m *Message) checkField(f *schema.Field) {
	if m.freed {
		panic(errors.Refcount("use of freed message " + m.def.Name()))
	}
	if m.def.FieldByNumber(f.Number) != f {
		panic(errors.FieldUnknown(errors.PhaseStore, []string{m.def.Name()}, int32(f.Number)))
	}
}

// Has reports whether f holds an explicit value.
func (m *Message) Has(f *schema.Field) bool {
	m.checkField(f)
	return m.has(f)
}

func (m *Message) has(f *schema.Field) bool {
	idx, mask := f.HasBit()
	return m.data[idx]&mask != 0
}

func (m *Message) setHas(f *schema.Field) {
	idx, mask := f.HasBit()
	m.data[idx] |= mask
}

// Set stores v in f and marks f present. v's type must be f's declared
// in-memory type. For handle fields the new value gains a reference and the
// previous occupant loses one.
func (m *Message) Set(f *schema.Field, v value.Value) {
	m.checkField(f)
	if v.Type() != f.ValueType() {
		panic(errors.TypeMismatch(errors.PhaseStore, m.path(f), v.Type().String(), f.ValueType().String()))
	}
	if f.IsOwnershipManaged() {
		o := handleOf(v)
		checkHandle(func() []string { return m.path(f) }, v.Type(), o, f.ElemType(), f.Message)
		storeHandle(&m.handles[f.Offset()], o)
	} else {
		storeBits(m.data, f.Offset(), f.ValueType().Size(), v.Bits())
	}
	m.setHas(f)
}

// Get returns f's value, or its default when unset.
//
// An unset sub-message field is materialized: a copy of the default message
// (an empty message when the layout declares none) is stored into f, so
// repeated reads return the same object. Other unset fields return the
// default without modifying m.
func (m *Message) Get(f *schema.Field) value.Value {
	m.checkField(f)
	if !m.has(f) {
		if !f.IsSubmessage() || f.IsArray() {
			return f.Default
		}
		var sub *Message
		if proto, _ := f.Default.Handle().(*Message); proto != nil {
			sub = proto.clone(0)
		} else {
			sub = newMessage(f.Message, 0)
		}
		v := sub.Value()
		m.Set(f, v)
		return v
	}
	if f.IsOwnershipManaged() {
		return value.Ref(f.ValueType(), m.handles[f.Offset()])
	}
	t := f.ValueType()
	return value.FromBits(t, loadBits(m.data, f.Offset(), t.Size()))
}

// ClearField marks f unset. A handle it held stays cached in the slot.
func (m *Message) ClearField(f *schema.Field) {
	m.checkField(f)
	idx, mask := f.HasBit()
	m.data[idx] &^= mask
}

// Clear marks every field unset and zeroes the scalar block in place. Handle
// slots keep their objects for reuse by later appends.
func (m *Message) Clear() {
	if m.freed {
		panic(errors.Refcount("use of freed message " + m.def.Name()))
	}
	clear(m.data)
}

// clone returns a copy of m's presence bits and slots with the given count.
// The copy takes its own reference to every handle.
func (m *Message) clone(count int32) *Message {
	c := newMessage(m.def, count)
	copy(c.data, m.data)
	for i, h := range m.handles {
		if h != nil {
			h.Refs().Ref()
			c.handles[i] = h
		}
	}
	return c
}

// Recycle makes *slot an empty, sole-owned message of def. A sole-owned
// message is cleared in place without reallocating; otherwise the old
// message is released and replaced. It reports whether the existing message
// was reused. Clearing keeps the sub-objects in the message's handle slots,
// so a shared sub-object stays referenced until its slot is reused or the
// message is freed.
func Recycle(slot **Message, def *schema.MessageDef) bool {
	m, reused := recycleMessage(*slot, def)
	*slot = m
	return reused
}

func recycleMessage(m *Message, def *schema.MessageDef) (*Message, bool) {
	if m != nil && m.def == def && m.refs.Only() {
		m.Clear()
		notify(EventRecycle, m)
		return m, true
	}
	if m != nil {
		if ce := Logger().Check(zap.DebugLevel, "recycle replaced shared message"); ce != nil {
			ce.Write(zap.String("type", def.Name()), zap.Int32("refs", m.refs.Load()))
		}
		m.Unref()
	}
	return New(def), false
}

// MessageOf returns the message held by a message Value, or nil.
func MessageOf(v value.Value) *Message {
	m, _ := v.Handle().(*Message)
	return m
}

// ArrayOf returns the array held by an array Value, or nil.
func ArrayOf(v value.Value) *Array {
	a, _ := v.Handle().(*Array)
	return a
}
