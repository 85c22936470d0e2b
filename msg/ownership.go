package msg

import (
	"encoding/binary"
	"fmt"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/refcount"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/str"
	"github.com/wippyai/msg-runtime/value"
)

// release drops the reference held by a handle slot and, on the last
// reference, tears the object down according to its kind.
func release(o refcount.Object) {
	switch x := o.(type) {
	case nil:
	case *Message:
		x.Unref()
	case *Array:
		x.Unref()
	case *str.Str:
		if x.Unref() {
			notify(EventFree, x)
		}
	default:
		panic(errors.UnknownKind(errors.PhaseStore, fmt.Sprintf("%T", o)))
	}
}

// storeHandle puts o in *slot, taking a reference to o and releasing the
// previous occupant. The new reference is taken first so storing the object
// a slot already holds is safe.
func storeHandle(slot *refcount.Object, o refcount.Object) {
	if o != nil {
		o.Refs().Ref()
	}
	old := *slot
	*slot = o
	release(old)
}

// handleOf normalizes a Value's handle so a typed nil pointer reads as nil.
func handleOf(v value.Value) refcount.Object {
	switch x := v.Handle().(type) {
	case *Message:
		if x == nil {
			return nil
		}
	case *Array:
		if x == nil {
			return nil
		}
	case *str.Str:
		if x == nil {
			return nil
		}
	}
	return v.Handle()
}

// checkHandle verifies that a handle stored into a slot declared as elem
// (and, for messages, of layout def) has matching shape.
func checkHandle(path func() []string, t value.Type, o refcount.Object, elem value.Type, def *schema.MessageDef) {
	switch x := o.(type) {
	case nil:
	case *Message:
		if t != value.TypeMessage || (def != nil && x.def != def) {
			panic(errors.New(errors.PhaseStore, errors.KindTypeMismatch).
				Path(path()...).
				ValueType("message " + x.def.Name()).
				Detail("message layout does not match field").
				Build())
		}
	case *Array:
		if t != value.TypeArray || x.elem != elem {
			panic(errors.TypeMismatch(errors.PhaseStore, path(),
				"array of "+x.elem.String(), "array of "+elem.String()))
		}
	case *str.Str:
		if t != value.TypeString {
			panic(errors.TypeMismatch(errors.PhaseStore, path(), "string", t.String()))
		}
	default:
		panic(errors.UnknownKind(errors.PhaseStore, fmt.Sprintf("%T", o)))
	}
}

func loadBits(data []byte, off, size uint32) uint64 {
	switch size {
	case 1:
		return uint64(data[off])
	case 4:
		return uint64(binary.LittleEndian.Uint32(data[off:]))
	case 8:
		return binary.LittleEndian.Uint64(data[off:])
	default:
		panic(errors.UnknownKind(errors.PhaseStore, fmt.Sprintf("slot size %d", size)))
	}
}

func storeBits(data []byte, off, size uint32, bits uint64) {
	switch size {
	case 1:
		data[off] = byte(bits)
	case 4:
		binary.LittleEndian.PutUint32(data[off:], uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(data[off:], bits)
	default:
		panic(errors.UnknownKind(errors.PhaseStore, fmt.Sprintf("slot size %d", size)))
	}
}
