package msg

import (
	"fmt"
	"sync"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/handlers"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/value"
)

// builderCache holds one builder handler set per layout. Handler sets are
// never mutated after construction, so sharing them is safe.
var builderCache sync.Map // *schema.MessageDef -> *handlers.Handlers

// BuilderHandlers returns a handler set that rebuilds a traversed message of
// layout def into the *Message passed as the traversal closure. Values are
// appended with Append and sub-messages are opened with AppendMessage, so
// the target's existing storage is recycled rather than replaced.
func BuilderHandlers(def *schema.MessageDef) *handlers.Handlers {
	if h, ok := builderCache.Load(def); ok {
		return h.(*handlers.Handlers)
	}
	h := buildHandlers(def, make(map[*schema.MessageDef]*handlers.Handlers))
	actual, _ := builderCache.LoadOrStore(def, h)
	return actual.(*handlers.Handlers)
}

func buildHandlers(def *schema.MessageDef, seen map[*schema.MessageDef]*handlers.Handlers) *handlers.Handlers {
	if h, ok := seen[def]; ok {
		return h
	}
	h := handlers.New()
	seen[def] = h

	for _, f := range def.Fields() {
		fh := &handlers.FieldHandlers{}
		if f.IsSubmessage() {
			fh.StartSubmessage = builderStartSubmessage
			fh.Sub = buildHandlers(f.Message, seen)
		} else {
			fh.Value = builderValue
		}
		h.Register(f.Number, fh)
	}
	return h
}

func builderTarget(closure any) *Message {
	m, ok := closure.(*Message)
	if !ok || m == nil {
		panic(errors.InvalidInput(errors.PhaseDispatch, fmt.Sprintf("builder closure is %T, want *msg.Message", closure)))
	}
	return m
}

func builderValue(closure any, f *schema.Field, v value.Value) handlers.Flow {
	builderTarget(closure).Append(f, v)
	return handlers.Continue
}

func builderStartSubmessage(closure any, f *schema.Field) (handlers.Flow, any) {
	return handlers.Continue, builderTarget(closure).AppendMessage(f)
}

// Copy replaces dst's contents with a copy of src by traversing src into
// dst's own storage. Strings and sub-messages are copied, not shared.
// dst must be a different, sole-owned message of the same layout.
func Copy(dst, src *Message) error {
	if err := checkBuildTarget(dst, src); err != nil {
		return err
	}
	dst.Clear()
	return RunHandlers(src, BuilderHandlers(src.def), dst).Err()
}

// Merge folds src into dst: set scalars overwrite, repeated fields are
// appended to, and singular sub-messages are merged recursively.
func Merge(dst, src *Message) error {
	if err := checkBuildTarget(dst, src); err != nil {
		return err
	}
	return RunHandlers(src, BuilderHandlers(src.def), dst).Err()
}

func checkBuildTarget(dst, src *Message) error {
	switch {
	case dst == src:
		return errors.InvalidInput(errors.PhaseStore, "source and destination are the same message")
	case dst.def != src.def:
		return errors.TypeMismatch(errors.PhaseStore, []string{dst.def.Name()}, "message "+src.def.Name(), "message "+dst.def.Name())
	case dst.freed || src.freed:
		return errors.Refcount("copy involving a freed message")
	case !dst.refs.Only():
		return errors.New(errors.PhaseStore, errors.KindRefcount).
			Path(dst.def.Name()).
			Value(dst.refs.Load()).
			Detail("destination is shared").
			Build()
	}
	return nil
}
