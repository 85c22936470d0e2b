// Package tomldata moves message contents to and from TOML documents.
//
// A document is a table keyed by field number. Scalars and strings are TOML
// values, repeated fields are arrays, sub-messages are tables and repeated
// sub-messages are arrays of tables:
//
//	1 = 42
//	3 = [1, 2, 3]
//	4 = "hello"
//
//	[5]
//	1 = 7
//
//	[[6]]
//	2 = "first"
//
// Decoding goes through the message write surface (Append and
// AppendMessage), so filling a recycled message reuses its storage.
// Encoding is a traversal consumer.
package tomldata

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/msg"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/str"
)

// LoadFile fills m from the TOML document at path.
func LoadFile(path string, m *msg.Message) error {
	var doc map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return errors.Load(fmt.Sprintf("read data %s", path), err)
	}
	return Fill(m, doc)
}

// Decode fills m from a TOML document.
func Decode(data []byte, m *msg.Message) error {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return errors.Load("parse data", err)
	}
	return Fill(m, doc)
}

// Fill appends the fields of a decoded TOML table to m in field number
// order. Existing contents are merged into, not cleared.
func Fill(m *msg.Message, doc map[string]any) error {
	def := m.Def()

	type entry struct {
		f   *schema.Field
		raw any
	}
	entries := make([]entry, 0, len(doc))
	for key, raw := range doc {
		n, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Path(def.Name(), key).
				Cause(err).
				Detail("keys must be field numbers").
				Build()
		}
		f := def.FieldByNumber(schema.Number(n))
		if f == nil {
			return errors.FieldUnknown(errors.PhaseLoad, []string{def.Name()}, int32(n))
		}
		entries = append(entries, entry{f: f, raw: raw})
	}
	slices.SortFunc(entries, func(a, b entry) int { return int(a.f.Number) - int(b.f.Number) })

	for _, e := range entries {
		if err := fillField(m, e.f, e.raw); err != nil {
			return err
		}
	}
	return nil
}

func fillField(m *msg.Message, f *schema.Field, raw any) error {
	if !f.IsArray() {
		return fillOne(m, f, raw)
	}

	switch list := raw.(type) {
	case []any:
		for _, item := range list {
			if err := fillOne(m, f, item); err != nil {
				return err
			}
		}
	case []map[string]any:
		for _, item := range list {
			if err := fillOne(m, f, item); err != nil {
				return err
			}
		}
	default:
		return errors.InvalidData(errors.PhaseLoad, fieldPath(m, f),
			fmt.Sprintf("repeated field needs an array, got %T", raw))
	}
	return nil
}

func fillOne(m *msg.Message, f *schema.Field, raw any) error {
	if f.IsSubmessage() {
		tbl, ok := raw.(map[string]any)
		if !ok {
			return errors.InvalidData(errors.PhaseLoad, fieldPath(m, f),
				fmt.Sprintf("message field needs a table, got %T", raw))
		}
		return Fill(m.AppendMessage(f), tbl)
	}

	v, err := schema.ConvertScalar(f.ElemType(), raw)
	if err != nil {
		return errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Path(fieldPath(m, f)...).
			Cause(err).
			Detail("bad value").
			Build()
	}
	m.Append(f, v)
	if s, ok := v.Handle().(*str.Str); ok {
		// Append copied the bytes; drop the converted original.
		s.Unref()
	}
	return nil
}

func fieldPath(m *msg.Message, f *schema.Field) []string {
	return []string{m.Def().Name(), strconv.Itoa(int(f.Number))}
}
