package strokebridge

import "github.com/wippyai/strokebridge/layout"

// Output is the host-owned, append-only destination for interpolated points.
//
// The host allocates an Output before an invocation and keeps it afterwards.
// Script code reaches it only through the append callback, which copies each
// record by value. An Output is not safe for concurrent use; a bridge writes
// to it only for the duration of one Invoke call.
type Output struct {
	points []layout.PointRecord
}

// NewOutput returns an empty Output with room for capacity points.
func NewOutput(capacity int) *Output {
	return &Output{points: make([]layout.PointRecord, 0, capacity)}
}

// Append copies p onto the end of the collection.
func (o *Output) Append(p layout.PointRecord) {
	o.points = append(o.points, p)
}

// Points returns the collected points. The slice aliases internal storage
// and is invalidated by the next Append or Reset.
func (o *Output) Points() []layout.PointRecord {
	return o.points
}

// Len returns the number of collected points.
func (o *Output) Len() int {
	return len(o.points)
}

// Reset empties the collection, keeping its capacity.
func (o *Output) Reset() {
	o.points = o.points[:0]
}
