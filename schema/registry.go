package schema

import (
	"github.com/wippyai/msg-runtime/errors"
)

// Registry holds a set of layouts by name.
type Registry struct {
	byName map[string]*MessageDef
	order  []*MessageDef
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*MessageDef)}
}

// Add registers d. Names must be unique.
func (r *Registry) Add(d *MessageDef) error {
	if _, dup := r.byName[d.name]; dup {
		return errors.New(errors.PhaseSchema, errors.KindInvalidInput).
			Path(d.name).
			Detail("message declared twice").
			Build()
	}
	r.byName[d.name] = d
	r.order = append(r.order, d)
	return nil
}

// Lookup returns the layout named name.
func (r *Registry) Lookup(name string) (*MessageDef, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Messages returns all layouts in registration order.
func (r *Registry) Messages() []*MessageDef { return r.order }

// Finalize finalizes every registered layout.
func (r *Registry) Finalize() {
	for _, d := range r.order {
		d.Finalize()
	}
}
