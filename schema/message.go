package schema

import (
	"strconv"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/internal/bits"
	"github.com/wippyai/msg-runtime/value"
)

// MessageDef is a message type's layout.
type MessageDef struct {
	byNumber  map[Number]*Field
	name      string
	fields    []*Field
	size      uint32
	handles   uint32
	finalized bool
}

// NewMessageDef creates an empty, unfinalized layout.
func NewMessageDef(name string) *MessageDef {
	return &MessageDef{
		name:     name,
		byNumber: make(map[Number]*Field),
	}
}

// AddField appends f to the iteration order. Fields cannot be added after
// Finalize.
func (d *MessageDef) AddField(f *Field) error {
	if d.finalized {
		return errors.New(errors.PhaseSchema, errors.KindInvalidInput).
			Path(d.name).
			Detail("add field %d to finalized layout", f.Number).
			Build()
	}
	if !f.Number.IsValid() {
		return errors.New(errors.PhaseSchema, errors.KindInvalidInput).
			Path(d.name).
			Value(f.Number).
			Detail("invalid field number %d", f.Number).
			Build()
	}
	if _, dup := d.byNumber[f.Number]; dup {
		return errors.DuplicateField(errors.PhaseSchema, d.name, int32(f.Number))
	}
	if f.ElemType() == value.TypeInvalid {
		return errors.New(errors.PhaseSchema, errors.KindUnsupported).
			Path(d.name, strconv.Itoa(int(f.Number))).
			FieldType(f.Kind.String()).
			Detail("kind has no in-memory representation").
			Build()
	}
	if f.IsSubmessage() && f.Message == nil {
		return errors.New(errors.PhaseSchema, errors.KindInvalidInput).
			Path(d.name, strconv.Itoa(int(f.Number))).
			Detail("message field without message type").
			Build()
	}
	if f.Default.IsValid() {
		if f.Repeated {
			return errors.New(errors.PhaseSchema, errors.KindInvalidInput).
				Path(d.name, strconv.Itoa(int(f.Number))).
				Detail("repeated fields have no default").
				Build()
		}
		if f.Default.Type() != f.ElemType() {
			return errors.TypeMismatch(errors.PhaseSchema,
				[]string{d.name, strconv.Itoa(int(f.Number))},
				f.Default.Type().String(), f.ElemType().String())
		}
	}

	d.fields = append(d.fields, f)
	d.byNumber[f.Number] = f
	return nil
}

// Finalize assigns presence bits and storage offsets. It is idempotent.
//
// The data block starts with the presence bitmap; scalar slots follow in
// declaration order, each aligned to its own size. The total is rounded up
// to 8 bytes.
func (d *MessageDef) Finalize() {
	if d.finalized {
		return
	}

	offset := uint32(len(d.fields)+7) / 8
	var handles uint32

	for i, f := range d.fields {
		f.hasbit = uint32(i)
		if !f.Default.IsValid() {
			f.Default = zeroDefault(f)
		}

		if f.IsOwnershipManaged() {
			f.offset = handles
			handles++
			continue
		}

		size := f.ValueType().Size()
		offset = bits.AlignTo(offset, size)
		f.offset = offset
		offset += size
	}

	d.size = bits.AlignTo(offset, 8)
	d.handles = handles
	d.finalized = true
}

func zeroDefault(f *Field) value.Value {
	t := f.ValueType()
	if t.IsRef() {
		return value.Ref(t, nil)
	}
	return value.FromBits(t, 0)
}

func (d *MessageDef) Name() string { return d.name }

// Fields returns the fields in iteration order. The slice must not be modified.
func (d *MessageDef) Fields() []*Field { return d.fields }

func (d *MessageDef) NumFields() int { return len(d.fields) }

// FieldByNumber returns the field with the given number, or nil.
func (d *MessageDef) FieldByNumber(n Number) *Field { return d.byNumber[n] }

// Size is the byte size of the data block.
func (d *MessageDef) Size() uint32 { return d.size }

// Handles is the number of handle slots.
func (d *MessageDef) Handles() uint32 { return d.handles }

func (d *MessageDef) Finalized() bool { return d.finalized }

func (d *MessageDef) String() string { return d.name }
