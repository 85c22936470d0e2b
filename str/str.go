// Package str implements the refcounted byte string stored in string and
// bytes fields.
//
// Strings follow the same ownership discipline as arrays and messages: a Str
// starts with one reference, every slot that holds it owns one, and its buffer
// is dropped when the last reference is released. Recycle reuses a sole-owned
// Str's buffer instead of allocating.
package str

import (
	"bytes"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/refcount"
	"github.com/wippyai/msg-runtime/value"
)

// Str is a refcounted, mutable byte string.
type Str struct {
	refs  refcount.Count
	b     []byte
	freed bool
}

// New returns a Str holding a copy of s with a count of 1.
func New(s string) *Str {
	st := &Str{b: []byte(s)}
	st.refs.Init(1)
	return st
}

// FromBytes returns a Str holding a copy of b with a count of 1.
func FromBytes(b []byte) *Str {
	st := &Str{b: append([]byte(nil), b...)}
	st.refs.Init(1)
	return st
}

func (s *Str) Refs() *refcount.Count { return &s.refs }

// Value wraps s as a string Value. A nil s yields an unset handle.
func (s *Str) Value() value.Value {
	if s == nil {
		return value.Ref(value.TypeString, nil)
	}
	return value.Ref(value.TypeString, s)
}

func (s *Str) Ref() {
	s.refs.Ref()
}

// Unref drops one reference and frees the buffer on the last one.
// It reports whether the string was freed.
func (s *Str) Unref() bool {
	if s == nil {
		return false
	}
	if !s.refs.Unref() {
		return false
	}
	s.b = nil
	s.freed = true
	return true
}

// Freed reports whether the last reference has been released.
func (s *Str) Freed() bool { return s.freed }

func (s *Str) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Bytes returns the contents. The slice aliases s and is only valid until
// the next mutation.
func (s *Str) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

func (s *Str) String() string {
	if s == nil {
		return ""
	}
	return string(s.b)
}

// Equal compares contents. nil equals the empty string.
func Equal(a, b *Str) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// Recycle makes *slot a sole-owned, empty Str. A sole-owned Str is truncated in
// place and keeps its buffer; otherwise the old one is released and replaced.
// It reports whether the existing Str was reused.
func Recycle(slot **Str) bool {
	s := *slot
	if s != nil && s.refs.Only() {
		s.b = s.b[:0]
		return true
	}
	if s != nil {
		s.Unref()
	}
	*slot = New("")
	return false
}

// Substr replaces dst's contents with src[off:off+n], reusing dst's buffer.
func Substr(dst, src *Str, off, n int) {
	if off < 0 || n < 0 || off+n > src.Len() {
		panic(errors.OutOfBounds(errors.PhaseStore, []string{"substr"}, off+n, src.Len()))
	}
	dst.b = append(dst.b[:0], src.b[off:off+n]...)
}
