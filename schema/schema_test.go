package schema

import (
	stderrors "errors"
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/str"
	"github.com/wippyai/msg-runtime/value"
)

func TestFinalize_Layout(t *testing.T) {
	sub := NewMessageDef("Sub")
	sub.Finalize()

	d := NewMessageDef("Mixed")
	fields := []*Field{
		{Number: 1, Kind: protoreflect.BoolKind},
		{Number: 2, Kind: protoreflect.Int64Kind},
		{Number: 3, Kind: protoreflect.StringKind},
		{Number: 4, Kind: protoreflect.FloatKind},
		{Number: 5, Kind: protoreflect.Int32Kind, Repeated: true},
		{Number: 6, Kind: protoreflect.MessageKind, Message: sub},
	}
	for _, f := range fields {
		if err := d.AddField(f); err != nil {
			t.Fatalf("AddField(%d): %v", f.Number, err)
		}
	}
	d.Finalize()

	// 6 presence bits fit in byte 0; bool at 1, int64 aligned to 8, float at 16.
	wantOffsets := map[Number]uint32{1: 1, 2: 8, 3: 0, 4: 16, 5: 1, 6: 2}
	for n, want := range wantOffsets {
		if got := d.FieldByNumber(n).Offset(); got != want {
			t.Errorf("field %d offset = %d, want %d", n, got, want)
		}
	}
	if d.Size() != 24 {
		t.Errorf("Size() = %d, want 24", d.Size())
	}
	if d.Handles() != 3 {
		t.Errorf("Handles() = %d, want 3", d.Handles())
	}

	idx, mask := d.FieldByNumber(4).HasBit()
	if idx != 0 || mask != 1<<3 {
		t.Errorf("HasBit() = (%d, %#x), want (0, 0x8)", idx, mask)
	}
}

func TestFinalize_PresenceBitmapSpansBytes(t *testing.T) {
	d := NewMessageDef("Wide")
	for i := 1; i <= 9; i++ {
		if err := d.AddField(&Field{Number: Number(i), Kind: protoreflect.BoolKind}); err != nil {
			t.Fatal(err)
		}
	}
	d.Finalize()

	idx, mask := d.FieldByNumber(9).HasBit()
	if idx != 1 || mask != 1 {
		t.Fatalf("field 9 HasBit() = (%d, %#x), want (1, 0x1)", idx, mask)
	}
	if off := d.FieldByNumber(1).Offset(); off != 2 {
		t.Fatalf("first scalar offset = %d, want 2 (after 2 bitmap bytes)", off)
	}
}

func TestFinalize_ZeroDefaults(t *testing.T) {
	d := NewMessageDef("Defaults")
	_ = d.AddField(&Field{Number: 1, Kind: protoreflect.Sint64Kind})
	_ = d.AddField(&Field{Number: 2, Kind: protoreflect.BytesKind})
	_ = d.AddField(&Field{Number: 3, Kind: protoreflect.DoubleKind, Repeated: true})
	d.Finalize()

	if v := d.FieldByNumber(1).Default; v.Type() != value.TypeInt64 || v.Int64() != 0 {
		t.Errorf("int default = %v", v)
	}
	if v := d.FieldByNumber(2).Default; v.Type() != value.TypeString || v.Handle() != nil {
		t.Errorf("bytes default = %v", v)
	}
	if v := d.FieldByNumber(3).Default; v.Type() != value.TypeArray {
		t.Errorf("repeated default = %v", v)
	}
}

func TestAddField_Errors(t *testing.T) {
	tests := []struct {
		name string
		f    *Field
		kind errors.Kind
	}{
		{"invalid number", &Field{Number: 0, Kind: protoreflect.Int32Kind}, errors.KindInvalidInput},
		{"reserved number", &Field{Number: 19000, Kind: protoreflect.Int32Kind}, errors.KindInvalidInput},
		{"duplicate", &Field{Number: 1, Kind: protoreflect.Int32Kind}, errors.KindDuplicateField},
		{"message without type", &Field{Number: 2, Kind: protoreflect.MessageKind}, errors.KindInvalidInput},
		{"default type mismatch", &Field{Number: 3, Kind: protoreflect.Int32Kind, Default: value.Bool(true)}, errors.KindTypeMismatch},
		{"repeated default", &Field{Number: 4, Kind: protoreflect.Int32Kind, Repeated: true, Default: value.Int32(1)}, errors.KindInvalidInput},
	}

	d := NewMessageDef("M")
	if err := d.AddField(&Field{Number: 1, Kind: protoreflect.Int32Kind}); err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.AddField(tt.f)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("AddField error = %v, want *errors.Error", err)
			}
			if e.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", e.Kind, tt.kind)
			}
		})
	}

	d.Finalize()
	if err := d.AddField(&Field{Number: 9, Kind: protoreflect.Int32Kind}); err == nil {
		t.Fatal("AddField after Finalize should fail")
	}
}

func TestFieldQueries(t *testing.T) {
	sub := NewMessageDef("Sub")
	tests := []struct {
		f     Field
		array bool
		isStr bool
		isSub bool
		mm    bool
		vt    value.Type
	}{
		{Field{Kind: protoreflect.Int32Kind}, false, false, false, false, value.TypeInt32},
		{Field{Kind: protoreflect.EnumKind}, false, false, false, false, value.TypeInt32},
		{Field{Kind: protoreflect.Fixed64Kind}, false, false, false, false, value.TypeUint64},
		{Field{Kind: protoreflect.StringKind}, false, true, false, true, value.TypeString},
		{Field{Kind: protoreflect.GroupKind, Message: sub}, false, false, true, true, value.TypeMessage},
		{Field{Kind: protoreflect.BoolKind, Repeated: true}, true, false, false, true, value.TypeArray},
	}
	for _, tt := range tests {
		f := tt.f
		t.Run(f.Kind.String(), func(t *testing.T) {
			if f.IsArray() != tt.array || f.IsString() != tt.isStr ||
				f.IsSubmessage() != tt.isSub || f.IsOwnershipManaged() != tt.mm {
				t.Errorf("queries = %v %v %v %v", f.IsArray(), f.IsString(), f.IsSubmessage(), f.IsOwnershipManaged())
			}
			if f.ValueType() != tt.vt {
				t.Errorf("ValueType() = %v, want %v", f.ValueType(), tt.vt)
			}
		})
	}
}

const testSchema = `
[[message]]
name = "Person"

  [[message.field]]
  number = 1
  name = "id"
  type = "int32"
  default = 7

  [[message.field]]
  number = 2
  name = "name"
  type = "string"
  default = "anon"

  [[message.field]]
  number = 3
  name = "friends"
  type = "message"
  message = "Person"
  repeated = true

  [[message.field]]
  number = 4
  name = "home"
  type = "message"
  message = "Address"

[[message]]
name = "Address"

  [[message.field]]
  number = 1
  type = "double"
  default = 1
`

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(testSchema))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	person, ok := reg.Lookup("Person")
	if !ok {
		t.Fatal("Person not registered")
	}
	if !person.Finalized() {
		t.Fatal("parsed layouts should be finalized")
	}
	if person.NumFields() != 4 {
		t.Fatalf("NumFields() = %d, want 4", person.NumFields())
	}

	if v := person.FieldByNumber(1).Default; v.Int32() != 7 {
		t.Errorf("id default = %v, want 7", v)
	}
	if s, _ := person.FieldByNumber(2).Default.Handle().(*str.Str); s.String() != "anon" {
		t.Errorf("name default = %q, want anon", s.String())
	}
	friends := person.FieldByNumber(3)
	if friends.Message != person || !friends.Repeated {
		t.Error("friends should be a repeated self-reference")
	}
	home := person.FieldByNumber(4)
	addr, _ := reg.Lookup("Address")
	if home.Message != addr {
		t.Error("home should reference Address declared later")
	}
	if v := addr.FieldByNumber(1).Default; v.Double() != 1 {
		t.Errorf("Address.1 default = %v, want 1.0", v)
	}
	if len(reg.Messages()) != 2 || reg.Messages()[0] != person {
		t.Error("Messages() should keep declaration order")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind errors.Kind
	}{
		{"bad toml", `[[message]`, errors.KindInvalidData},
		{"unknown key", "[[message]]\nname = \"A\"\ncolor = \"red\"", errors.KindInvalidData},
		{"unknown type", "[[message]]\nname = \"A\"\n[[message.field]]\nnumber = 1\ntype = \"map\"", errors.KindUnsupported},
		{"missing message", "[[message]]\nname = \"A\"\n[[message.field]]\nnumber = 1\ntype = \"message\"\nmessage = \"B\"", errors.KindNotFound},
		{"default overflow", "[[message]]\nname = \"A\"\n[[message.field]]\nnumber = 1\ntype = \"uint32\"\ndefault = -1", errors.KindInvalidData},
		{"duplicate message", "[[message]]\nname = \"A\"\n[[message]]\nname = \"A\"", errors.KindInvalidInput},
		{"duplicate field", "[[message]]\nname = \"A\"\n[[message.field]]\nnumber = 1\ntype = \"bool\"\n[[message.field]]\nnumber = 1\ntype = \"bool\"", errors.KindDuplicateField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("Parse error = %v, want *errors.Error", err)
			}
			if e.Kind != tt.kind {
				t.Fatalf("Kind = %v (%v), want %v", e.Kind, e, tt.kind)
			}
		})
	}
}

func TestConvertScalar(t *testing.T) {
	tests := []struct {
		typ     value.Type
		raw     any
		want    any
		wantErr bool
	}{
		{value.TypeInt32, int64(-5), int32(-5), false},
		{value.TypeInt32, int64(1 << 40), nil, true},
		{value.TypeUint64, int64(12), uint64(12), false},
		{value.TypeUint64, int64(-1), nil, true},
		{value.TypeFloat, float64(0.5), float32(0.5), false},
		{value.TypeDouble, int64(3), float64(3), false},
		{value.TypeBool, "yes", nil, true},
	}
	for _, tt := range tests {
		v, err := ConvertScalar(tt.typ, tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ConvertScalar(%v, %v) should fail", tt.typ, tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ConvertScalar(%v, %v): %v", tt.typ, tt.raw, err)
			continue
		}
		if v.Interface() != tt.want {
			t.Errorf("ConvertScalar(%v, %v) = %v, want %v", tt.typ, tt.raw, v.Interface(), tt.want)
		}
	}
}
