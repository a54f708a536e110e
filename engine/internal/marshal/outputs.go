package marshal

import (
	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/layout"
	"github.com/wippyai/strokebridge/resource"
)

// Outputs maps script-visible handles to host output collections.
type Outputs struct {
	table *resource.Table[*strokebridge.Output]
}

// NewOutputs creates an empty handle table.
func NewOutputs() *Outputs {
	return &Outputs{table: resource.NewTable[*strokebridge.Output]()}
}

// Bind registers out and returns its handle. It returns 0 after Close.
func (o *Outputs) Bind(out *strokebridge.Output) resource.Handle {
	return o.table.Insert(out)
}

// Unbind releases a handle. The collection itself is untouched.
func (o *Outputs) Unbind(h resource.Handle) {
	o.table.Remove(h)
}

// Append copies p into the collection bound to h.
func (o *Outputs) Append(h uint32, p layout.PointRecord) error {
	out, ok := o.table.Get(resource.Handle(h))
	if !ok || out == nil {
		return errors.BadHandle(h)
	}
	out.Append(p)
	return nil
}

// Subscribe forwards bind and unbind events to obs.
func (o *Outputs) Subscribe(obs resource.Observer) {
	o.table.Subscribe(obs)
}

// Len returns the number of bound handles.
func (o *Outputs) Len() int {
	return o.table.Len()
}

// Close unbinds everything and rejects further binds.
func (o *Outputs) Close() error {
	return o.table.Close()
}
