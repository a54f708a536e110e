package stroke

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/layout"
)

// Path is a recorded set of strokes.
type Path struct {
	Strokes []Stroke `yaml:"strokes"`
}

// Stroke is the samples of one pointer from down to up.
type Stroke struct {
	Points  []Sample `yaml:"points"`
	Pointer int      `yaml:"pointer"`
}

// ParsePath decodes a YAML path file. Unknown fields are rejected.
func ParsePath(data []byte) (*Path, error) {
	var p Path
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse path")
	}
	for i, s := range p.Strokes {
		if len(s.Points) == 0 {
			return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("strokes[%d]: no points", i))
		}
	}
	return &p, nil
}

// Len returns the total number of samples.
func (p *Path) Len() int {
	n := 0
	for _, s := range p.Strokes {
		n += len(s.Points)
	}
	return n
}

// DemoPath returns one sine-shaped stroke across a width x height canvas.
func DemoPath(width, height float32, samples int) *Path {
	if samples < 2 {
		samples = 2
	}
	xs := floats.Span(make([]float64, samples), 0.1*float64(width), 0.9*float64(width))
	pts := make([]Sample, samples)
	mid, amp := float64(height)/2, float64(height)/4
	for i, x := range xs {
		phase := 2 * math.Pi * float64(i) / float64(samples-1)
		pts[i] = Sample{
			X:    float32(x),
			Y:    float32(mid + amp*math.Sin(phase)),
			Time: float32(i) * 16,
			Size: float32(4 + 2*math.Cos(phase)),
		}
	}
	return &Path{Strokes: []Stroke{{Points: pts}}}
}

// Invoker runs one interpolation step. *bridge.Bridge implements it.
type Invoker interface {
	Invoke(ctx context.Context, start, end *layout.PointRecord, x, y float32, out *strokebridge.Output)
}

// Replay feeds every stroke of p through t and calls inv for each keyframe
// pair, appending to out. It returns the number of invocations.
func Replay(ctx context.Context, inv Invoker, t *Tracker, p *Path, width, height float32, out *strokebridge.Output) int {
	n := 0
	for _, s := range p.Strokes {
		for _, sample := range s.Points {
			if ctx.Err() != nil {
				return n
			}
			prev, cur, ok := t.Point(s.Pointer, sample)
			if !ok {
				continue
			}
			inv.Invoke(ctx, &prev, &cur, width, height, out)
			n++
		}
		t.Stop(s.Pointer)
	}
	return n
}
