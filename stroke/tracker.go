package stroke

import (
	"github.com/wippyai/strokebridge/layout"
)

// Window is the number of steps size and speed are averaged over.
const Window = 16

// Sample is one raw pointer event.
type Sample struct {
	X    float32 `yaml:"x"`
	Y    float32 `yaml:"y"`
	Time float32 `yaml:"time"`
	Size float32 `yaml:"size"`
}

type pointer struct {
	last    layout.PointRecord
	size    *RollingAverage
	speed   *RollingAverage
	drawing bool
}

// Tracker builds keyframes for any number of pointers.
// It is not safe for concurrent use.
type Tracker struct {
	pointers map[int]*pointer
	counter  int
	active   int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pointers: make(map[int]*pointer)}
}

// ManhattanDistance returns max(|dx|, |dy|).
func ManhattanDistance(a, b layout.Coordinate) float32 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Point feeds a sample for pointer id. The first sample of a stroke
// returns ok=false; later samples return the previous and current
// keyframes.
func (t *Tracker) Point(id int, s Sample) (prev, cur layout.PointRecord, ok bool) {
	p := t.pointers[id]
	if p == nil {
		p = &pointer{size: NewRollingAverage(Window), speed: NewRollingAverage(Window)}
		t.pointers[id] = p
	}

	if !p.drawing {
		p.last = layout.PointRecord{
			X:       s.X,
			Y:       s.Y,
			Time:    s.Time,
			Size:    s.Size,
			Counter: float32(t.counter),
		}
		p.drawing = true
		t.counter++
		t.active++
		return layout.PointRecord{}, layout.PointRecord{}, false
	}

	prev = p.last
	dist := ManhattanDistance(
		layout.Coordinate{X: prev.X, Y: prev.Y},
		layout.Coordinate{X: s.X, Y: s.Y},
	)
	cur = layout.PointRecord{
		X:        s.X,
		Y:        s.Y,
		Time:     s.Time,
		Size:     p.size.Push(s.Size),
		Speed:    p.speed.Push(dist),
		Distance: prev.Distance + dist,
		Counter:  prev.Counter,
	}
	p.last = cur
	return prev, cur, true
}

// Stop ends the stroke of pointer id. The size and speed averages carry
// over to the next stroke of the same pointer. Stopping an idle pointer is
// a no-op.
func (t *Tracker) Stop(id int) {
	p := t.pointers[id]
	if p == nil || !p.drawing {
		return
	}
	p.drawing = false
	t.active--
}

// Active returns the number of pointers currently drawing.
func (t *Tracker) Active() int {
	return t.active
}

// Strokes returns the number of strokes started so far.
func (t *Tracker) Strokes() int {
	return t.counter
}
