package handlers

import (
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/value"
)

// Flow is the control signal returned by handler callbacks.
type Flow uint8

const (
	Continue Flow = iota
	SkipSubmessage
	Abort
)

func (f Flow) String() string {
	switch f {
	case Continue:
		return "continue"
	case SkipSubmessage:
		return "skip-submessage"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

type (
	StartMessageFunc    func(closure any) Flow
	EndMessageFunc      func(closure any, status *Status)
	ValueFunc           func(closure any, f *schema.Field, v value.Value) Flow
	StartSubmessageFunc func(closure any, f *schema.Field) (Flow, any)
	EndSubmessageFunc   func(closure any, f *schema.Field) Flow
)

// FieldHandlers are the callbacks for one field number. Nil callbacks behave
// as no-ops returning Continue; a nil StartSubmessage keeps the parent's
// closure for the nested message.
type FieldHandlers struct {
	Value           ValueFunc
	StartSubmessage StartSubmessageFunc
	EndSubmessage   EndSubmessageFunc

	// Sub is the handler set for the nested message. Nil reuses the set
	// that contains this entry.
	Sub *Handlers
}

// Handlers is a handler set: message-level callbacks plus field entries
// keyed by field number.
type Handlers struct {
	StartMessage StartMessageFunc
	EndMessage   EndMessageFunc
	fields       map[schema.Number]*FieldHandlers
}

func New() *Handlers {
	return &Handlers{fields: make(map[schema.Number]*FieldHandlers)}
}

// Register sets the entry for field number n, replacing any previous one.
func (h *Handlers) Register(n schema.Number, fh *FieldHandlers) {
	h.fields[n] = fh
}

// Unregister removes the entry for field number n.
func (h *Handlers) Unregister(n schema.Number) {
	delete(h.fields, n)
}

// Lookup returns the entry for field number n, or nil if none is registered.
func (h *Handlers) Lookup(n schema.Number) *FieldHandlers {
	return h.fields[n]
}

// Len returns the number of registered field entries.
func (h *Handlers) Len() int {
	return len(h.fields)
}

// RegisterAll registers fh for every field of d.
func (h *Handlers) RegisterAll(d *schema.MessageDef, fh *FieldHandlers) {
	for _, f := range d.Fields() {
		h.fields[f.Number] = fh
	}
}
