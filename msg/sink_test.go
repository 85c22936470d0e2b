package msg

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/value"
)

func TestCopy_RoundTrip(t *testing.T) {
	ts := newTestSchema(t)
	src := ts.populate(t)
	dst := New(ts.outer)

	if err := Copy(dst, src); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !Equal(dst, src) {
		t.Fatal("copy differs from source")
	}

	if strOf(dst.Get(ts.s)) == strOf(src.Get(ts.s)) {
		t.Error("copy shares a string with the source")
	}
	if MessageOf(dst.Get(ts.child)) == MessageOf(src.Get(ts.child)) {
		t.Error("copy shares a sub-message with the source")
	}

	src.Set(ts.a, value.Int32(100))
	MessageOf(src.Get(ts.child)).Set(ts.innerID, value.Int32(100))
	if dst.Get(ts.a).Int32() == 100 || MessageOf(dst.Get(ts.child)).Get(ts.innerID).Int32() == 100 {
		t.Error("mutating the source changed the copy")
	}
}

func TestCopy_EmptyRepeatedField(t *testing.T) {
	ts := newTestSchema(t)
	src := New(ts.outer)
	defer src.Unref()
	empty := NewArray(value.TypeInt32)
	src.Set(ts.nums, empty.Value())
	empty.Unref()

	dst := New(ts.outer)
	defer dst.Unref()
	if err := Copy(dst, src); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !Equal(dst, src) || !Equal(src, dst) {
		t.Error("present empty repeated field not equal to an unset one")
	}

	dst.Append(ts.nums, value.Int32(1))
	if Equal(dst, src) {
		t.Error("non-empty repeated field equal to an empty one")
	}
}

func TestCopy_ReplacesContents(t *testing.T) {
	ts := newTestSchema(t)
	src := New(ts.outer)
	src.Set(ts.b, value.Int64(2))

	dst := ts.populate(t)
	if err := Copy(dst, src); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !Equal(dst, src) {
		t.Error("fields of the previous contents survived Copy")
	}
	if dst.Has(ts.a) || dst.Has(ts.nums) {
		t.Error("Has reports stale fields")
	}
}

func TestCopy_ReusesDestinationStorage(t *testing.T) {
	ts := newTestSchema(t)
	src := ts.populate(t)
	dst := New(ts.outer)
	if err := Copy(dst, src); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	rec := record(t)
	if err := Copy(dst, src); err != nil {
		t.Fatalf("second Copy: %v", err)
	}
	if n := rec.count(EventAlloc); n != 0 {
		t.Errorf("allocations on repeat copy = %d, want 0", n)
	}
	if !Equal(dst, src) {
		t.Error("repeat copy differs from source")
	}
}

func TestCopy_SharedSubmessageInDestination(t *testing.T) {
	ts := newTestSchema(t)
	src := ts.populate(t)

	dst := New(ts.outer)
	held := dst.AppendMessage(ts.child)
	held.Set(ts.innerID, value.Int32(99))
	held.Ref()

	if err := Copy(dst, src); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if held.Get(ts.innerID).Int32() != 99 {
		t.Error("Copy wrote into a sub-message held elsewhere")
	}
	if MessageOf(dst.Get(ts.child)) == held {
		t.Error("Copy kept a shared sub-message")
	}
}

func TestCopy_Errors(t *testing.T) {
	ts := newTestSchema(t)
	m := New(ts.outer)

	shared := New(ts.outer)
	shared.Ref()

	tests := []struct {
		name string
		dst  *Message
		src  *Message
		kind errors.Kind
	}{
		{"same message", m, m, errors.KindInvalidInput},
		{"layout mismatch", New(ts.inner), m, errors.KindTypeMismatch},
		{"shared destination", shared, m, errors.KindRefcount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Copy(tt.dst, tt.src)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("Copy() = %v, want *errors.Error", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", e.Kind, tt.kind)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	ts := newTestSchema(t)

	dst := New(ts.outer)
	dst.Set(ts.a, value.Int32(1))
	dst.Append(ts.nums, value.Int32(1))
	dst.AppendMessage(ts.child).Set(ts.innerID, value.Int32(5))

	src := New(ts.outer)
	src.Set(ts.b, value.Int64(3))
	src.Append(ts.nums, value.Int32(2))
	src.AppendMessage(ts.child).Append(ts.innerName, strValue("n"))

	if err := Merge(dst, src); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if dst.Get(ts.a).Int32() != 1 || dst.Get(ts.b).Int64() != 3 {
		t.Errorf("scalars a=%d b=%d, want 1 and 3", dst.Get(ts.a).Int32(), dst.Get(ts.b).Int64())
	}
	nums := ArrayOf(dst.Get(ts.nums))
	if nums.Len() != 2 || nums.Get(0).Int32() != 1 || nums.Get(1).Int32() != 2 {
		t.Errorf("nums len %d, want [1 2]", nums.Len())
	}
	c := MessageOf(dst.Get(ts.child))
	if c.Get(ts.innerID).Int32() != 5 || strOf(c.Get(ts.innerName)).String() != "n" {
		t.Error("sub-message not merged field by field")
	}
}

func TestBuilderHandlers_Cached(t *testing.T) {
	ts := newTestSchema(t)
	h := BuilderHandlers(ts.node)
	if BuilderHandlers(ts.node) != h {
		t.Error("builder handlers rebuilt for the same layout")
	}
	// Recursive layouts point back at their own set.
	if h.Lookup(ts.nodeNext.Number).Sub != h {
		t.Error("recursive field does not reuse the enclosing set")
	}
}

func TestEqual(t *testing.T) {
	ts := newTestSchema(t)

	tests := []struct {
		name   string
		mutate func(m *Message)
		equal  bool
	}{
		{"identical", func(*Message) {}, true},
		{"scalar differs", func(m *Message) { m.Set(ts.a, value.Int32(0)) }, false},
		{"presence differs", func(m *Message) { m.ClearField(ts.flag) }, false},
		{"string differs", func(m *Message) { m.Append(ts.s, strValue("bye")) }, false},
		{"array length differs", func(m *Message) { m.Append(ts.nums, value.Int32(0)) }, false},
		{"nested differs", func(m *Message) { m.AppendMessage(ts.child).Set(ts.innerID, value.Int32(0)) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := ts.populate(t), ts.populate(t)
			tt.mutate(b)
			if got := Equal(a, b); got != tt.equal {
				t.Errorf("Equal() = %t, want %t", got, tt.equal)
			}
		})
	}

	t.Run("unset handle equals empty message", func(t *testing.T) {
		a, b := New(ts.outer), New(ts.outer)
		a.Set(ts.child, value.Ref(value.TypeMessage, nil))
		b.AppendMessage(ts.child)
		if !Equal(a, b) {
			t.Error("nil sub-message != empty sub-message")
		}
	})

	t.Run("layout differs", func(t *testing.T) {
		if Equal(New(ts.outer), New(ts.inner)) {
			t.Error("messages of different layouts compared equal")
		}
	})
}
