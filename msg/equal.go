package msg

import (
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/str"
	"github.com/wippyai/msg-runtime/value"
)

// Equal reports whether a and b have the same layout, the same set of
// present fields and equal values in each. Sub-messages and arrays are
// compared by content. An unset message handle equals an empty message, and
// an unset repeated field equals a present empty one.
func Equal(a, b *Message) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return isEmpty(a) && isEmpty(b)
	}
	if a.def != b.def {
		return false
	}
	for _, f := range a.def.Fields() {
		if f.IsArray() {
			if !arrayEqual(a.arrayOf(f), b.arrayOf(f)) {
				return false
			}
			continue
		}
		ha, hb := a.has(f), b.has(f)
		if ha != hb {
			return false
		}
		if ha && !fieldEqual(f, a, b) {
			return false
		}
	}
	return true
}

func isEmpty(m *Message) bool {
	if m == nil {
		return true
	}
	for _, f := range m.def.Fields() {
		if f.IsArray() {
			if m.arrayOf(f).Len() > 0 {
				return false
			}
			continue
		}
		if m.has(f) {
			return false
		}
	}
	return true
}

// arrayOf returns f's array, or nil when f is unset.
func (m *Message) arrayOf(f *schema.Field) *Array {
	if !m.has(f) {
		return nil
	}
	x, _ := m.handles[f.Offset()].(*Array)
	return x
}

func fieldEqual(f *schema.Field, a, b *Message) bool {
	return valueEqual(a.Get(f), b.Get(f))
}

func arrayEqual(x, y *Array) bool {
	if x.Len() != y.Len() {
		return false
	}
	for i := 0; i < x.Len(); i++ {
		if !valueEqual(x.Get(i), y.Get(i)) {
			return false
		}
	}
	return true
}

func valueEqual(x, y value.Value) bool {
	if x.Type() != y.Type() {
		return false
	}
	switch x.Type() {
	case value.TypeString:
		xs, _ := x.Handle().(*str.Str)
		ys, _ := y.Handle().(*str.Str)
		return str.Equal(xs, ys)
	case value.TypeMessage:
		return Equal(MessageOf(x), MessageOf(y))
	case value.TypeArray:
		return arrayEqual(ArrayOf(x), ArrayOf(y))
	default:
		return x.Bits() == y.Bits()
	}
}
