package stroke

import (
	"context"
	"strings"
	"testing"

	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/layout"
)

func TestRollingAverage(t *testing.T) {
	r := NewRollingAverage(3)
	if r.Mean() != 0 || r.Len() != 0 {
		t.Error("empty average should be zero")
	}
	for i, tc := range []struct{ in, want float32 }{
		{3, 3}, {6, 4.5}, {9, 6}, {12, 9}, {0, 7},
	} {
		if got := r.Push(tc.in); got != tc.want {
			t.Errorf("push %d: got %v, want %v", i, got, tc.want)
		}
	}
	if r.Len() != 3 {
		t.Errorf("len = %d", r.Len())
	}
	r.Clear()
	if r.Push(5) != 5 {
		t.Error("clear did not reset the window")
	}
}

func TestManhattanDistance(t *testing.T) {
	tests := []struct {
		a, b layout.Coordinate
		want float32
	}{
		{layout.Coordinate{X: 0, Y: 0}, layout.Coordinate{X: 3, Y: 4}, 4},
		{layout.Coordinate{X: 5, Y: 1}, layout.Coordinate{X: -2, Y: 2}, 7},
		{layout.Coordinate{X: 1, Y: 1}, layout.Coordinate{X: 1, Y: 1}, 0},
	}
	for _, tt := range tests {
		if got := ManhattanDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("ManhattanDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()

	if _, _, ok := tr.Point(0, Sample{X: 0, Y: 0, Time: 0, Size: 10}); ok {
		t.Fatal("first sample should only prime the pointer")
	}
	if tr.Active() != 1 || tr.Strokes() != 1 {
		t.Errorf("active %d strokes %d", tr.Active(), tr.Strokes())
	}

	prev, cur, ok := tr.Point(0, Sample{X: 3, Y: 4, Time: 16, Size: 2})
	if !ok {
		t.Fatal("expected keyframes")
	}
	if prev != (layout.PointRecord{Size: 10}) {
		t.Errorf("prev = %v", prev)
	}
	want := layout.PointRecord{X: 3, Y: 4, Time: 16, Size: 2, Speed: 4, Distance: 4}
	if cur != want {
		t.Errorf("cur = %v, want %v", cur, want)
	}

	_, cur, _ = tr.Point(0, Sample{X: 3, Y: 10, Time: 32, Size: 4})
	if cur.Size != 3 || cur.Speed != 5 || cur.Distance != 10 {
		t.Errorf("second step = %v", cur)
	}

	tr.Stop(0)
	tr.Stop(0)
	if tr.Active() != 0 {
		t.Errorf("active = %d", tr.Active())
	}

	tr.Point(0, Sample{X: 100, Y: 100, Size: 1})
	_, cur, _ = tr.Point(0, Sample{X: 102, Y: 100, Size: 9})
	if cur.Counter != 1 || cur.Distance != 2 {
		t.Errorf("new stroke did not restart counter and distance: %v", cur)
	}
	// Averages span strokes: size (2+4+9)/3, speed (4+6+2)/3.
	if cur.Size != 5 || cur.Speed != 4 {
		t.Errorf("averages reset between strokes: size %v speed %v", cur.Size, cur.Speed)
	}
}

func TestTracker_Pointers(t *testing.T) {
	tr := NewTracker()
	tr.Point(0, Sample{})
	tr.Point(1, Sample{X: 50})
	_, a, _ := tr.Point(0, Sample{X: 1})
	_, b, _ := tr.Point(1, Sample{X: 52})
	if a.Counter != 0 || b.Counter != 1 {
		t.Errorf("counters %v, %v", a.Counter, b.Counter)
	}
	if a.Distance != 1 || b.Distance != 2 {
		t.Errorf("distances %v, %v", a.Distance, b.Distance)
	}
	if tr.Active() != 2 {
		t.Errorf("active = %d", tr.Active())
	}
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath([]byte(`
strokes:
  - pointer: 1
    points:
      - {x: 0, y: 0, time: 0, size: 2}
      - {x: 5, y: 5, time: 16, size: 2}
  - points:
      - {x: 9, y: 9}
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Strokes) != 2 || p.Strokes[0].Pointer != 1 || p.Len() != 3 {
		t.Errorf("got %+v", p)
	}

	tests := []struct{ src, want string }{
		{"strokes:\n  - pointer: 0\n", "no points"},
		{"strokes:\n  - pointr: 0\n", "field pointr not found"},
	}
	for _, tt := range tests {
		_, err := ParsePath([]byte(tt.src))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("ParsePath(%q) error %v, want %q", tt.src, err, tt.want)
		}
	}
}

func TestDemoPath(t *testing.T) {
	p := DemoPath(200, 100, 9)
	pts := p.Strokes[0].Points
	if len(pts) != 9 {
		t.Fatalf("got %d samples", len(pts))
	}
	if pts[0].X != 20 || pts[8].X != 180 {
		t.Errorf("x range %v..%v", pts[0].X, pts[8].X)
	}
	for _, s := range pts {
		if s.Y < 24.99 || s.Y > 75.01 {
			t.Errorf("y %v outside the middle half", s.Y)
		}
	}
}

type recorder struct {
	calls []float32
}

func (r *recorder) Invoke(_ context.Context, start, end *layout.PointRecord, x, y float32, out *strokebridge.Output) {
	r.calls = append(r.calls, end.X)
	out.Append(*start)
	out.Append(*end)
}

func TestReplay(t *testing.T) {
	p := &Path{Strokes: []Stroke{
		{Points: []Sample{{X: 0}, {X: 1}, {X: 2}}},
		{Pointer: 3, Points: []Sample{{X: 10}, {X: 11}}},
	}}
	rec := &recorder{}
	out := strokebridge.NewOutput(8)
	tr := NewTracker()

	n := Replay(context.Background(), rec, tr, p, 64, 64, out)
	if n != 3 {
		t.Errorf("invocations = %d, want 3", n)
	}
	if len(rec.calls) != 3 || rec.calls[2] != 11 {
		t.Errorf("calls = %v", rec.calls)
	}
	if out.Len() != 6 {
		t.Errorf("output = %d points", out.Len())
	}
	if tr.Active() != 0 || tr.Strokes() != 2 {
		t.Errorf("tracker active %d strokes %d", tr.Active(), tr.Strokes())
	}
}
