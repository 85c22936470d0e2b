package tomldata

import (
	"io"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/msg-runtime/handlers"
	"github.com/wippyai/msg-runtime/msg"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/str"
	"github.com/wippyai/msg-runtime/value"
)

// Encode writes m as a TOML document in the format Decode reads.
func Encode(w io.Writer, m *msg.Message) error {
	doc := make(map[string]any)
	h := encodeHandlers(m.Def(), make(map[*schema.MessageDef]*handlers.Handlers))
	if err := msg.RunHandlers(m, h, doc).Err(); err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(doc)
}

func encodeHandlers(def *schema.MessageDef, seen map[*schema.MessageDef]*handlers.Handlers) *handlers.Handlers {
	if h, ok := seen[def]; ok {
		return h
	}
	h := handlers.New()
	seen[def] = h

	for _, f := range def.Fields() {
		if f.IsSubmessage() {
			h.Register(f.Number, &handlers.FieldHandlers{
				StartSubmessage: encodeStartSubmessage,
				Sub:             encodeHandlers(f.Message, seen),
			})
			continue
		}
		h.Register(f.Number, &handlers.FieldHandlers{Value: encodeValue})
	}
	return h
}

func key(f *schema.Field) string {
	return strconv.Itoa(int(f.Number))
}

func encodeValue(closure any, f *schema.Field, v value.Value) handlers.Flow {
	tbl := closure.(map[string]any)
	var x any
	if s, ok := v.Handle().(*str.Str); ok {
		x = s.String()
	} else if v.Type() == value.TypeString {
		x = ""
	} else {
		x = v.Interface()
	}

	if f.IsArray() {
		list, _ := tbl[key(f)].([]any)
		tbl[key(f)] = append(list, x)
	} else {
		tbl[key(f)] = x
	}
	return handlers.Continue
}

func encodeStartSubmessage(closure any, f *schema.Field) (handlers.Flow, any) {
	tbl := closure.(map[string]any)
	sub := make(map[string]any)
	if f.IsArray() {
		list, _ := tbl[key(f)].([]map[string]any)
		tbl[key(f)] = append(list, sub)
	} else {
		tbl[key(f)] = sub
	}
	return handlers.Continue, sub
}
