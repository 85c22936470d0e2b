package str

import (
	"testing"
)

func TestNewAndUnref(t *testing.T) {
	s := New("hello")
	if s.Len() != 5 || s.String() != "hello" {
		t.Fatalf("got %q (len %d)", s.String(), s.Len())
	}
	if !s.Refs().Only() {
		t.Fatal("new string should be sole-owned")
	}

	s.Ref()
	if s.Unref() {
		t.Fatal("first Unref of a shared string should not free")
	}
	if !s.Unref() {
		t.Fatal("last Unref should free")
	}
	if !s.Freed() {
		t.Fatal("Freed() should be true after last Unref")
	}
}

func TestRecycle(t *testing.T) {
	t.Run("sole owner reuses buffer", func(t *testing.T) {
		s := New("some longer content")
		slot := s
		if !Recycle(&slot) {
			t.Fatal("sole-owned string should be reused")
		}
		if slot != s {
			t.Fatal("slot should still hold the same string")
		}
		if slot.Len() != 0 {
			t.Fatalf("Len() = %d after recycle, want 0", slot.Len())
		}
		if cap(slot.b) < len("some longer content") {
			t.Fatal("recycle should keep the buffer capacity")
		}
	})

	t.Run("shared string is replaced", func(t *testing.T) {
		s := New("shared")
		s.Ref()
		slot := s
		if Recycle(&slot) {
			t.Fatal("shared string must not be reused")
		}
		if slot == s {
			t.Fatal("slot should hold a fresh string")
		}
		if s.Refs().Load() != 1 {
			t.Fatalf("old string count = %d, want 1", s.Refs().Load())
		}
		if s.String() != "shared" {
			t.Fatal("other holder's view must be untouched")
		}
	})

	t.Run("nil slot allocates", func(t *testing.T) {
		var slot *Str
		Recycle(&slot)
		if slot == nil || slot.Len() != 0 {
			t.Fatal("nil slot should receive an empty string")
		}
	})
}

func TestSubstr(t *testing.T) {
	src := New("abcdef")
	dst := New("xxxxxxxxxx")
	Substr(dst, src, 1, 3)
	if dst.String() != "bcd" {
		t.Fatalf("Substr = %q, want %q", dst.String(), "bcd")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out of range substring")
		}
	}()
	Substr(dst, src, 4, 5)
}

func TestEqual(t *testing.T) {
	if !Equal(New(""), nil) {
		t.Fatal("empty string should equal nil")
	}
	if Equal(New("a"), New("b")) {
		t.Fatal("different contents should not be equal")
	}
}
