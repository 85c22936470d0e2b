package msg

import (
	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/handlers"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/value"
)

// RunHandlers walks m depth-first in field declaration order and pushes
// every present field that has a registered entry in h to the consumer.
// closure is the consumer's state for the top-level message.
//
// Fields without an entry are skipped silently. SkipSubmessage is honored
// only from StartSubmessage; any other non-Continue result stops the walk.
// EndMessage always runs and receives the returned status.
func RunHandlers(m *Message, h *handlers.Handlers, closure any) *handlers.Status {
	return RunHandlersWithOptions(m, h, closure, handlers.DefaultOptions())
}

// RunHandlersWithOptions is RunHandlers with explicit traversal options.
func RunHandlersWithOptions(m *Message, h *handlers.Handlers, closure any, opts handlers.Options) *handlers.Status {
	if m.freed {
		panic(errors.Refcount("traversal of freed message " + m.def.Name()))
	}

	d := handlers.Acquire(h, opts)
	defer d.Release()

	d.Reset(closure)
	if d.StartMessage() != handlers.Continue || dispatchMessage(d, m) != handlers.Continue {
		d.MarkAborted()
	}
	st := *d.EndMessage()
	return &st
}

func dispatchMessage(d *handlers.Dispatcher, m *Message) handlers.Flow {
	for _, f := range m.def.Fields() {
		if !m.has(f) {
			continue
		}
		fh := d.Lookup(f.Number)
		if fh == nil {
			continue
		}

		if !f.IsArray() {
			if dispatchValue(d, fh, f, m.Get(f)) != handlers.Continue {
				return handlers.Abort
			}
			continue
		}

		a, _ := m.handles[f.Offset()].(*Array)
		for i := 0; i < a.Len(); i++ {
			if dispatchValue(d, fh, f, a.Get(i)) != handlers.Continue {
				return handlers.Abort
			}
		}
	}
	return handlers.Continue
}

func dispatchValue(d *handlers.Dispatcher, fh *handlers.FieldHandlers, f *schema.Field, v value.Value) handlers.Flow {
	if !f.IsSubmessage() {
		if d.Value(fh, f, v) != handlers.Continue {
			return handlers.Abort
		}
		return handlers.Continue
	}

	switch d.StartSubmessage(fh, f) {
	case handlers.Continue:
	case handlers.SkipSubmessage:
		return handlers.Continue
	default:
		return handlers.Abort
	}

	// An unset handle is visited as an empty message.
	if sub := MessageOf(v); sub != nil {
		if dispatchMessage(d, sub) != handlers.Continue {
			return handlers.Abort
		}
	}
	if d.EndSubmessage() != handlers.Continue {
		return handlers.Abort
	}
	return handlers.Continue
}
