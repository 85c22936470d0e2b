package handlers

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/schema"
	"github.com/wippyai/msg-runtime/value"
)

// Options configures traversal behavior.
type Options struct {
	// MaxDepth bounds sub-message nesting. Entering a sub-message deeper
	// than this aborts the traversal with a KindDepthExceeded error.
	MaxDepth int
}

// DefaultMaxDepth is the nesting limit used by DefaultOptions.
const DefaultMaxDepth = 64

// DefaultOptions returns default traversal configuration.
func DefaultOptions() Options {
	return Options{
		MaxDepth: DefaultMaxDepth,
	}
}

type frame struct {
	closure any
	h       *Handlers
	fh      *FieldHandlers // entry that opened this frame; nil at the root
	f       *schema.Field
}

// Dispatcher routes traversal events to a handler set, keeping a frame per
// open message. Not safe for concurrent use.
type Dispatcher struct {
	root   *Handlers
	stack  []frame
	status Status
	opts   Options
}

// NewDispatcher creates a dispatcher for h.
func NewDispatcher(h *Handlers, opts Options) *Dispatcher {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Dispatcher{
		root:  h,
		stack: make([]frame, 0, 8),
		opts:  opts,
	}
}

const maxPooledStack = 256

var dispatcherPool = sync.Pool{
	New: func() any {
		return &Dispatcher{stack: make([]frame, 0, 8)}
	},
}

// Acquire returns a pooled dispatcher for h. Call Release when done; the
// dispatcher and its Status are invalid afterwards.
func Acquire(h *Handlers, opts Options) *Dispatcher {
	d := dispatcherPool.Get().(*Dispatcher)
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	d.root = h
	d.opts = opts
	return d
}

// Release returns d to the pool.
func (d *Dispatcher) Release() {
	// Only pool shallow stacks to prevent memory bloat
	if cap(d.stack) > maxPooledStack {
		return
	}
	clear(d.stack[:cap(d.stack)])
	d.stack = d.stack[:0]
	d.root = nil
	d.status.reset()
	dispatcherPool.Put(d)
}

// Reset prepares a new traversal with closure as the top-level closure.
func (d *Dispatcher) Reset(closure any) {
	clear(d.stack)
	d.stack = append(d.stack[:0], frame{closure: closure, h: d.root})
	d.status.reset()
}

// Depth returns the number of open sub-messages.
func (d *Dispatcher) Depth() int {
	return len(d.stack) - 1
}

// Status returns the traversal status.
func (d *Dispatcher) Status() *Status {
	return &d.status
}

func (d *Dispatcher) top() *frame {
	return &d.stack[len(d.stack)-1]
}

// Lookup returns the current message's entry for field number n, or nil.
func (d *Dispatcher) Lookup(n schema.Number) *FieldHandlers {
	return d.top().h.Lookup(n)
}

func (d *Dispatcher) StartMessage() Flow {
	fr := d.top()
	if fr.h.StartMessage == nil {
		return Continue
	}
	return fr.h.StartMessage(fr.closure)
}

// StartSubmessage enters field f's nested message. On Continue a frame is
// pushed and must be closed with EndSubmessage; any other result pushes
// nothing.
func (d *Dispatcher) StartSubmessage(fh *FieldHandlers, f *schema.Field) Flow {
	if d.Depth() >= d.opts.MaxDepth {
		d.status.SetError(errors.DepthExceeded(errors.PhaseDispatch, d.opts.MaxDepth))
		Logger().Warn("traversal depth exceeded",
			zap.Int("max_depth", d.opts.MaxDepth),
			zap.Int32("field", int32(f.Number)))
		return Abort
	}

	fr := d.top()
	closure := fr.closure
	if fh.StartSubmessage != nil {
		var flow Flow
		flow, closure = fh.StartSubmessage(fr.closure, f)
		if flow != Continue {
			return flow
		}
	}

	h := fh.Sub
	if h == nil {
		h = fr.h
	}
	d.stack = append(d.stack, frame{closure: closure, h: h, fh: fh, f: f})
	return Continue
}

// EndSubmessage closes the innermost sub-message and notifies the entry that
// opened it, with the parent's closure.
func (d *Dispatcher) EndSubmessage() Flow {
	if len(d.stack) < 2 {
		panic(errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Detail("EndSubmessage without open sub-message").
			Build())
	}
	closed := d.stack[len(d.stack)-1]
	d.stack[len(d.stack)-1] = frame{}
	d.stack = d.stack[:len(d.stack)-1]

	if closed.fh.EndSubmessage == nil {
		return Continue
	}
	return closed.fh.EndSubmessage(d.top().closure, closed.f)
}

func (d *Dispatcher) Value(fh *FieldHandlers, f *schema.Field, v value.Value) Flow {
	if fh.Value == nil {
		return Continue
	}
	return fh.Value(d.top().closure, f, v)
}

// MarkAborted records that the traversal stopped early.
func (d *Dispatcher) MarkAborted() {
	d.status.aborted = true
}

// EndMessage unwinds any open frames and calls the root EndMessage with the
// final status.
func (d *Dispatcher) EndMessage() *Status {
	if d.status.aborted {
		Logger().Debug("traversal aborted",
			zap.Int("depth", d.Depth()),
			zap.Error(d.status.Err()))
	}
	clear(d.stack[1:])
	d.stack = d.stack[:1]

	fr := d.top()
	if fr.h.EndMessage != nil {
		fr.h.EndMessage(fr.closure, &d.status)
	}
	return &d.status
}
