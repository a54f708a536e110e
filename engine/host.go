package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/wippyai/strokebridge/engine/internal/marshal"
	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/layout"
	"github.com/wippyai/strokebridge/resource"
)

// MaxLinePoints bounds the samples of a single pushline or curve call.
const MaxLinePoints = 4096

// MaxLogBytes bounds a single script log message.
const MaxLogBytes = 4096

var (
	i32x2 = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	i32x4 = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}
	i32x6 = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}
)

// instantiateHost registers the host module the ffi bootstrap imports.
// Host functions panic with *errors.Error on bad input; wazero turns the
// panic into an error returned from the script call.
func (e *Engine) instantiateHost(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(HostModule)

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			e.pushPoint(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
		}), i32x2, nil).
		WithParameterNames("out", "p").
		Export("pushpoint")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			e.pushLine(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2]), api.DecodeI32(stack[3]))
		}), i32x4, nil).
		WithParameterNames("out", "a", "b", "count").
		Export("pushline")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			e.pushCatmullRom(api.DecodeU32(stack[0]),
				api.DecodeU32(stack[1]), api.DecodeU32(stack[2]), api.DecodeU32(stack[3]), api.DecodeU32(stack[4]),
				api.DecodeI32(stack[5]))
		}), i32x6, nil).
		WithParameterNames("out", "a", "b", "c", "d", "count").
		Export("pushcatmullrom")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			e.pushCubicBezier(api.DecodeU32(stack[0]),
				api.DecodeU32(stack[1]), api.DecodeU32(stack[2]), api.DecodeU32(stack[3]), api.DecodeU32(stack[4]),
				api.DecodeI32(stack[5]))
		}), i32x6, nil).
		WithParameterNames("out", "a", "b", "c", "d", "count").
		Export("pushcubicbezier")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			e.scriptLog(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
		}), i32x2, nil).
		WithParameterNames("ptr", "len").
		Export("log")

	return builder.Instantiate(ctx)
}

func (e *Engine) pushPoint(out, ptr uint32) {
	p, err := marshal.Load(e.mem, ptr, "pushpoint", "p")
	if err != nil {
		panic(err)
	}
	if err := e.outputs.Append(out, p); err != nil {
		panic(err)
	}
}

// counterField is the index of PointRecord.Counter; sampled points keep the
// counter of the segment they start from.
const counterField = layout.NumFields - 1

// curve evaluates one field of a segment at t in [0,1).
type curve func(v [4]float64, t float64) float64

func lerp(v [4]float64, t float64) float64 { return v[0] + (v[1]-v[0])*t }

// catmullRom samples the uniform Catmull-Rom segment between v[1] and v[2].
func catmullRom(v [4]float64, t float64) float64 {
	t2, t3 := t*t, t*t*t
	return 0.5 * (2*v[1] +
		(v[2]-v[0])*t +
		(2*v[0]-5*v[1]+4*v[2]-v[3])*t2 +
		(3*v[1]-v[0]-3*v[2]+v[3])*t3)
}

// cubicBezier samples the Bezier curve from v[0] to v[3] with controls v[1]
// and v[2].
func cubicBezier(v [4]float64, t float64) float64 {
	u := 1 - t
	return u*u*u*v[0] + 3*u*u*t*v[1] + 3*u*t*t*v[2] + t*t*t*v[3]
}

// pushLine appends count points spaced evenly from a toward b. b itself is
// not appended, so consecutive segments share no endpoint.
func (e *Engine) pushLine(out, aPtr, bPtr uint32, count int32) {
	e.pushCurve(out, "pushline", []uint32{aPtr, bPtr}, count, 0, lerp)
}

// pushCatmullRom appends count points of the segment from b toward c, with a
// and d as the neighbouring control points.
func (e *Engine) pushCatmullRom(out, a, b, c, d uint32, count int32) {
	e.pushCurve(out, "pushcatmullrom", []uint32{a, b, c, d}, count, 1, catmullRom)
}

// pushCubicBezier appends count points of the curve from a toward d.
func (e *Engine) pushCubicBezier(out, a, b, c, d uint32, count int32) {
	e.pushCurve(out, "pushcubicbezier", []uint32{a, b, c, d}, count, 0, cubicBezier)
}

// pushCurve loads the control records at ptrs and appends count samples of
// fn. The counter of every sample is taken from control point hold.
func (e *Engine) pushCurve(out uint32, fname string, ptrs []uint32, count int32, hold int, fn curve) {
	if count <= 0 {
		return
	}
	if count > MaxLinePoints {
		panic(errors.InvalidInput(errors.PhaseHost, fname+" count exceeds limit"))
	}
	params := [...]string{"a", "b", "c", "d"}
	ctrl := make([]layout.PointRecord, len(ptrs))
	for i, ptr := range ptrs {
		p, err := marshal.Load(e.mem, ptr, fname, params[i])
		if err != nil {
			panic(err)
		}
		ctrl[i] = p
	}

	steps := floats.Span(make([]float64, count+1), 0, 1)
	for _, t := range steps[:count] {
		var p layout.PointRecord
		for i := 0; i < layout.NumFields; i++ {
			if i == counterField {
				p.SetField(i, ctrl[hold].Field(i))
				continue
			}
			var v [4]float64
			for j := range ctrl {
				v[j] = float64(ctrl[j].Field(i))
			}
			p.SetField(i, float32(fn(v, t)))
		}
		if err := e.outputs.Append(out, p); err != nil {
			panic(err)
		}
	}
}

func (e *Engine) scriptLog(ptr, length uint32) {
	if length > MaxLogBytes {
		length = MaxLogBytes
	}
	data, err := e.mem.Read(ptr, length)
	if err != nil {
		panic(errors.OutOfBounds(errors.PhaseHost, []string{"log"}, ptr, length, e.mem.Size()))
	}
	e.log.Info("script: " + string(data))
}

func (e *Engine) onOutputEvent(ev resource.Event) {
	if ce := e.log.Check(zap.DebugLevel, "output handle"); ce != nil {
		ce.Write(zap.Stringer("event", ev.Type), zap.Uint32("handle", uint32(ev.Handle)))
	}
}
