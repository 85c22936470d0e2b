package schema

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/str"
	"github.com/wippyai/msg-runtime/value"
)

type fileSchema struct {
	Messages []fileMessage `toml:"message"`
}

type fileMessage struct {
	Name   string      `toml:"name"`
	Fields []fileField `toml:"field"`
}

type fileField struct {
	Default  any    `toml:"default"`
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Message  string `toml:"message"`
	Number   int64  `toml:"number"`
	Repeated bool   `toml:"repeated"`
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind)
	for k := protoreflect.DoubleKind; k <= protoreflect.Sint64Kind; k++ {
		m[k.String()] = k
	}
	return m
}()

// LoadFile reads a TOML schema file. Every layout in the result is finalized.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("read schema %s", path), err)
	}
	return Parse(data)
}

// Parse decodes a TOML schema. Message references may point forward and may
// be recursive. Every layout in the result is finalized.
func Parse(data []byte) (*Registry, error) {
	var raw fileSchema
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, errors.Load("parse schema", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.InvalidData(errors.PhaseLoad, nil,
			"unknown keys: "+strings.Join(keys, ", "))
	}

	reg := NewRegistry()
	for _, m := range raw.Messages {
		if m.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseLoad, "message without name")
		}
		if err := reg.Add(NewMessageDef(m.Name)); err != nil {
			return nil, err
		}
	}

	for _, m := range raw.Messages {
		d, _ := reg.Lookup(m.Name)
		for _, ff := range m.Fields {
			f, err := buildField(reg, m.Name, ff)
			if err != nil {
				return nil, err
			}
			if err := d.AddField(f); err != nil {
				return nil, err
			}
		}
	}

	reg.Finalize()
	return reg, nil
}

func buildField(reg *Registry, msgName string, ff fileField) (*Field, error) {
	path := []string{msgName, strconv.FormatInt(ff.Number, 10)}

	if ff.Number <= 0 || ff.Number > math.MaxInt32 {
		return nil, errors.InvalidData(errors.PhaseLoad, path, "field number out of range")
	}
	kind, ok := kindsByName[ff.Type]
	if !ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Path(path...).
			FieldType(ff.Type).
			Detail("unknown field type").
			Build()
	}

	f := &Field{
		Name:     ff.Name,
		Number:   Number(ff.Number),
		Kind:     kind,
		Repeated: ff.Repeated,
	}

	if f.IsSubmessage() {
		sub, ok := reg.Lookup(ff.Message)
		if !ok {
			return nil, errors.NotFound(errors.PhaseLoad, "message", ff.Message)
		}
		f.Message = sub
	} else if ff.Message != "" {
		return nil, errors.InvalidData(errors.PhaseLoad, path, "message set on non-message field")
	}

	if ff.Default != nil {
		if f.IsSubmessage() {
			return nil, errors.Unsupported(errors.PhaseLoad, "defaults for message fields in schema files")
		}
		v, err := ConvertScalar(f.ElemType(), ff.Default)
		if err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Path(path...).
				Cause(err).
				Detail("bad default").
				Build()
		}
		f.Default = v
	}

	return f, nil
}

// ConvertScalar converts a decoded TOML value (int64, float64, bool or string)
// to a Value of type t. String values produce a new Str with a count of 1
// which the caller owns.
func ConvertScalar(t value.Type, raw any) (value.Value, error) {
	switch t {
	case value.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return value.Value{}, mismatch(t, raw)
		}
		return value.Bool(b), nil

	case value.TypeInt32, value.TypeUint32, value.TypeInt64, value.TypeUint64:
		n, ok := raw.(int64)
		if !ok {
			return value.Value{}, mismatch(t, raw)
		}
		return convertInt(t, n)

	case value.TypeFloat, value.TypeDouble:
		var f float64
		switch x := raw.(type) {
		case float64:
			f = x
		case int64:
			f = float64(x)
		default:
			return value.Value{}, mismatch(t, raw)
		}
		if t == value.TypeFloat {
			return value.Float(float32(f)), nil
		}
		return value.Double(f), nil

	case value.TypeString:
		s, ok := raw.(string)
		if !ok {
			return value.Value{}, mismatch(t, raw)
		}
		return str.New(s).Value(), nil

	default:
		return value.Value{}, errors.UnknownKind(errors.PhaseLoad, t.String())
	}
}

func convertInt(t value.Type, n int64) (value.Value, error) {
	switch t {
	case value.TypeInt32:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return value.Value{}, overflow(t, n)
		}
		return value.Int32(int32(n)), nil
	case value.TypeUint32:
		if n < 0 || n > math.MaxUint32 {
			return value.Value{}, overflow(t, n)
		}
		return value.Uint32(uint32(n)), nil
	case value.TypeInt64:
		return value.Int64(n), nil
	default:
		if n < 0 {
			return value.Value{}, overflow(t, n)
		}
		return value.Uint64(uint64(n)), nil
	}
}

func mismatch(t value.Type, raw any) error {
	return errors.TypeMismatch(errors.PhaseLoad, nil, fmt.Sprintf("%T", raw), t.String())
}

func overflow(t value.Type, n int64) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		FieldType(t.String()).
		Value(n).
		Detail("value %d out of range", n).
		Build()
}
