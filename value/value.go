// Package value defines the tagged value passed between the message store,
// its callers and traversal handlers.
//
// A Value is either inline scalar bits or a handle to a refcounted heap
// object (sub-message, array, string), tagged with the in-memory Type the
// schema declares for the field. Building a Value never changes any count;
// ownership is taken by whoever stores it.
package value

import (
	"fmt"
	"math"

	"github.com/wippyai/msg-runtime/refcount"
)

// Type is the in-memory representation of a field or array element.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat
	TypeDouble
	TypeString
	TypeMessage
	TypeArray
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt32:   "int32",
	TypeUint32:  "uint32",
	TypeInt64:   "int64",
	TypeUint64:  "uint64",
	TypeFloat:   "float",
	TypeDouble:  "double",
	TypeString:  "string",
	TypeMessage: "message",
	TypeArray:   "array",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// IsRef reports whether values of this type are handles to refcounted objects.
func (t Type) IsRef() bool {
	return t == TypeString || t == TypeMessage || t == TypeArray
}

// Size is the inline slot width in bytes. Handle types report 0: they live in
// handle slots, not in the scalar block.
func (t Type) Size() uint32 {
	switch t {
	case TypeBool:
		return 1
	case TypeInt32, TypeUint32, TypeFloat:
		return 4
	case TypeInt64, TypeUint64, TypeDouble:
		return 8
	default:
		return 0
	}
}

// Value is a scalar or a handle tagged with its Type. The zero Value is invalid.
type Value struct {
	ref  refcount.Object
	bits uint64
	typ  Type
}

func Bool(v bool) Value {
	var b uint64
	if v {
		b = 1
	}
	return Value{typ: TypeBool, bits: b}
}

func Int32(v int32) Value { return Value{typ: TypeInt32, bits: uint64(uint32(v))} }
func Uint32(v uint32) Value { return Value{typ: TypeUint32, bits: uint64(v)} }
func Int64(v int64) Value { return Value{typ: TypeInt64, bits: uint64(v)} }
func Uint64(v uint64) Value { return Value{typ: TypeUint64, bits: v} }
func Float(v float32) Value { return Value{typ: TypeFloat, bits: uint64(math.Float32bits(v))} }
func Double(v float64) Value { return Value{typ: TypeDouble, bits: math.Float64bits(v)} }

// FromBits rebuilds a scalar Value from raw slot bits.
func FromBits(t Type, bits uint64) Value {
	if t.IsRef() {
		panic(fmt.Sprintf("value: FromBits with handle type %s", t))
	}
	return Value{typ: t, bits: bits}
}

// Ref wraps a handle. o may be nil, which reads as an unset handle.
func Ref(t Type, o refcount.Object) Value {
	if !t.IsRef() {
		panic(fmt.Sprintf("value: Ref with scalar type %s", t))
	}
	return Value{typ: t, ref: o}
}

func (v Value) Type() Type { return v.typ }
func (v Value) IsValid() bool { return v.typ != TypeInvalid }
func (v Value) Bits() uint64 { return v.bits }
func (v Value) Handle() refcount.Object { return v.ref }

func (v Value) Bool() bool {
	v.check(TypeBool)
	return v.bits != 0
}

func (v Value) Int32() int32 {
	v.check(TypeInt32)
	return int32(uint32(v.bits))
}

func (v Value) Uint32() uint32 {
	v.check(TypeUint32)
	return uint32(v.bits)
}

func (v Value) Int64() int64 {
	v.check(TypeInt64)
	return int64(v.bits)
}

func (v Value) Uint64() uint64 {
	v.check(TypeUint64)
	return v.bits
}

func (v Value) Float() float32 {
	v.check(TypeFloat)
	return math.Float32frombits(uint32(v.bits))
}

func (v Value) Double() float64 {
	v.check(TypeDouble)
	return math.Float64frombits(v.bits)
}

func (v Value) check(want Type) {
	if v.typ != want {
		panic(fmt.Sprintf("value: %s accessor on %s value", want, v.typ))
	}
}

// Interface returns the scalar as a Go value, or the handle for handle types.
func (v Value) Interface() any {
	switch v.typ {
	case TypeBool:
		return v.Bool()
	case TypeInt32:
		return v.Int32()
	case TypeUint32:
		return v.Uint32()
	case TypeInt64:
		return v.Int64()
	case TypeUint64:
		return v.Uint64()
	case TypeFloat:
		return v.Float()
	case TypeDouble:
		return v.Double()
	case TypeString, TypeMessage, TypeArray:
		return v.ref
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.typ.IsRef() {
		return fmt.Sprintf("%s(%p)", v.typ, v.ref)
	}
	return fmt.Sprintf("%s(%v)", v.typ, v.Interface())
}
