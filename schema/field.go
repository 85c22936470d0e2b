package schema

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/wippyai/msg-runtime/value"
)

// Number is a field's wire number.
type Number = protowire.Number

// Kind is a field's declared protobuf kind.
type Kind = protoreflect.Kind

// Field describes one field of a message layout.
type Field struct {
	// Default is what the field reads as while unset. Zero means the zero
	// value of the field's type; for message fields a nil handle means an
	// empty message of type Message.
	Default value.Value

	// Message is the field's message type for message and group kinds.
	Message *MessageDef

	Name     string
	Number   Number
	Kind     Kind
	Repeated bool

	offset uint32
	hasbit uint32
}

// TypeOf maps a declared kind to its in-memory representation.
func TypeOf(k Kind) value.Type {
	switch k {
	case protoreflect.BoolKind:
		return value.TypeBool
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind, protoreflect.EnumKind:
		return value.TypeInt32
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return value.TypeUint32
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return value.TypeInt64
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return value.TypeUint64
	case protoreflect.FloatKind:
		return value.TypeFloat
	case protoreflect.DoubleKind:
		return value.TypeDouble
	case protoreflect.StringKind, protoreflect.BytesKind:
		return value.TypeString
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return value.TypeMessage
	default:
		return value.TypeInvalid
	}
}

func (f *Field) IsArray() bool { return f.Repeated }

func (f *Field) IsString() bool {
	return f.Kind == protoreflect.StringKind || f.Kind == protoreflect.BytesKind
}

func (f *Field) IsSubmessage() bool {
	return f.Kind == protoreflect.MessageKind || f.Kind == protoreflect.GroupKind
}

// IsOwnershipManaged reports whether the field's slot holds a refcounted handle.
func (f *Field) IsOwnershipManaged() bool {
	return f.IsArray() || f.IsString() || f.IsSubmessage()
}

// IsElemOwnershipManaged reports whether single values of the field (array
// elements for repeated fields) are refcounted handles.
func (f *Field) IsElemOwnershipManaged() bool {
	return f.IsString() || f.IsSubmessage()
}

// ElemType is the in-memory type of one value of the field: the field itself
// when singular, each element when repeated.
func (f *Field) ElemType() value.Type {
	return TypeOf(f.Kind)
}

// ValueType is the in-memory type of the field's slot.
func (f *Field) ValueType() value.Type {
	if f.Repeated {
		return value.TypeArray
	}
	return f.ElemType()
}

// Offset is the byte offset of a scalar slot, or the handle index of a
// managed slot. Only meaningful after the owning layout is finalized.
func (f *Field) Offset() uint32 { return f.offset }

// HasBit returns the presence bit location: byte index into the data block
// and the mask within that byte.
func (f *Field) HasBit() (uint32, byte) {
	return f.hasbit / 8, 1 << (f.hasbit % 8)
}

func (f *Field) String() string {
	label := ""
	if f.Repeated {
		label = "repeated "
	}
	if f.Name != "" {
		return fmt.Sprintf("%s%s %s = %d", label, f.Kind, f.Name, f.Number)
	}
	return fmt.Sprintf("%s%s #%d", label, f.Kind, f.Number)
}
