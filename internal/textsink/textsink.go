// Package textsink renders messages as indented text by driving a handler
// set over them. The output resembles the protobuf text format:
//
//	id: 7
//	name: "Ada"
//	address {
//	  city: "London"
//	}
package textsink

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/handlers"
	"github.com/wippyai/msg-runtime/msg"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/str"
	"github.com/wippyai/msg-runtime/value"
)

// Style decorates output tokens. Nil functions leave text unchanged.
type Style struct {
	Name   func(string) string
	Scalar func(string) string
	String func(string) string
}

// Options configures rendering.
type Options struct {
	// Omit hides fields. Omitted fields get no handler entry, so the
	// traversal skips them.
	Omit func(def *schema.MessageDef, f *schema.Field) bool

	// OmitRoot hides fields of the rendered message only. Nested messages
	// of the same type are unaffected.
	OmitRoot func(f *schema.Field) bool

	Style  Style
	Indent string

	// CollapseDepth prints sub-messages nested deeper than this as
	// "name { ... }" without visiting them. Zero never collapses.
	CollapseDepth int

	Traversal handlers.Options
}

// DefaultOptions returns two-space indentation with no filtering.
func DefaultOptions() Options {
	return Options{
		Indent:    "  ",
		Traversal: handlers.DefaultOptions(),
	}
}

type printer struct {
	w     io.Writer
	opts  Options
	depth int
	err   error
}

// Render writes m to w.
func Render(w io.Writer, m *msg.Message, opts Options) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	p := &printer{w: w, opts: opts}
	h := Handlers(m.Def(), opts)
	return msg.RunHandlersWithOptions(m, h, p, opts.Traversal).Err()
}

// Handlers builds the rendering handler set for def and every message type
// reachable from it. The traversal closure must be the value Render
// creates, so the set is only useful through Render.
func Handlers(def *schema.MessageDef, opts Options) *handlers.Handlers {
	seen := make(map[*schema.MessageDef]*handlers.Handlers)
	if opts.OmitRoot == nil {
		return build(def, opts, seen)
	}
	// The root set is built outside seen so recursive references get the
	// unfiltered set.
	h := handlers.New()
	fill(h, def, opts, opts.OmitRoot, seen)
	return h
}

func build(def *schema.MessageDef, opts Options, seen map[*schema.MessageDef]*handlers.Handlers) *handlers.Handlers {
	if h, ok := seen[def]; ok {
		return h
	}
	h := handlers.New()
	seen[def] = h
	fill(h, def, opts, nil, seen)
	return h
}

func fill(h *handlers.Handlers, def *schema.MessageDef, opts Options, omitRoot func(*schema.Field) bool, seen map[*schema.MessageDef]*handlers.Handlers) {
	h.EndMessage = endMessage

	for _, f := range def.Fields() {
		if opts.Omit != nil && opts.Omit(def, f) {
			continue
		}
		if omitRoot != nil && omitRoot(f) {
			continue
		}
		if f.IsSubmessage() {
			h.Register(f.Number, &handlers.FieldHandlers{
				StartSubmessage: startSubmessage,
				EndSubmessage:   endSubmessage,
				Sub:             build(f.Message, opts, seen),
			})
			continue
		}
		h.Register(f.Number, &handlers.FieldHandlers{Value: printValue})
	}
}

func (p *printer) line(s string) handlers.Flow {
	if p.err != nil {
		return handlers.Abort
	}
	_, p.err = io.WriteString(p.w, strings.Repeat(p.opts.Indent, p.depth)+s+"\n")
	if p.err != nil {
		return handlers.Abort
	}
	return handlers.Continue
}

func (p *printer) name(f *schema.Field) string {
	n := f.Name
	if n == "" {
		n = strconv.Itoa(int(f.Number))
	}
	return styled(p.opts.Style.Name, n)
}

func styled(fn func(string) string, s string) string {
	if fn == nil {
		return s
	}
	return fn(s)
}

func (p *printer) format(v value.Value) string {
	switch v.Type() {
	case value.TypeString:
		s, _ := v.Handle().(*str.Str)
		return styled(p.opts.Style.String, strconv.Quote(s.String()))
	case value.TypeFloat:
		return styled(p.opts.Style.Scalar, strconv.FormatFloat(float64(v.Float()), 'g', -1, 32))
	case value.TypeDouble:
		return styled(p.opts.Style.Scalar, strconv.FormatFloat(v.Double(), 'g', -1, 64))
	default:
		return styled(p.opts.Style.Scalar, fmt.Sprint(v.Interface()))
	}
}

func printValue(closure any, f *schema.Field, v value.Value) handlers.Flow {
	p := closure.(*printer)
	return p.line(p.name(f) + ": " + p.format(v))
}

func startSubmessage(closure any, f *schema.Field) (handlers.Flow, any) {
	p := closure.(*printer)
	if p.opts.CollapseDepth > 0 && p.depth >= p.opts.CollapseDepth {
		if flow := p.line(p.name(f) + " { ... }"); flow != handlers.Continue {
			return flow, nil
		}
		return handlers.SkipSubmessage, nil
	}
	flow := p.line(p.name(f) + " {")
	if flow == handlers.Continue {
		p.depth++
	}
	return flow, p
}

func endSubmessage(closure any, _ *schema.Field) handlers.Flow {
	p := closure.(*printer)
	p.depth--
	return p.line("}")
}

func endMessage(closure any, st *handlers.Status) {
	p := closure.(*printer)
	if p.err != nil {
		st.SetError(errors.Wrap(errors.PhaseDispatch, errors.KindAborted, p.err, "render output"))
	}
}
