package testbed

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/wippyai/strokebridge"
	"github.com/wippyai/strokebridge/bridge"
	"github.com/wippyai/strokebridge/layout"
	"github.com/wippyai/strokebridge/stroke"
)

// snapshot renders one line per point with the fields in layout order.
func snapshot(points []layout.PointRecord) []byte {
	var b bytes.Buffer
	for _, p := range points {
		for i := 0; i < layout.NumFields; i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(float64(p.Field(i)), 'g', -1, 32))
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func TestStrokeReplayGolden(t *testing.T) {
	h := newHost(t, bridge.Options{})
	h.load(t, "midpoint.wat")

	path := &stroke.Path{Strokes: []stroke.Stroke{
		{Points: []stroke.Sample{{X: 0, Y: 0, Size: 2}, {X: 10, Y: 0, Size: 2}, {X: 10, Y: 10, Size: 2}}},
		{Pointer: 1, Points: []stroke.Sample{{X: 50, Y: 50, Size: 1}, {X: 54, Y: 58, Size: 3}}},
	}}
	out := strokebridge.NewOutput(0)
	stroke.Replay(context.Background(), h.bridge, stroke.NewTracker(), path, 320, 240, out)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "stroke_replay", snapshot(out.Points()))
}
