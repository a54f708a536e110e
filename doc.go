// Package strokebridge runs user-supplied WebAssembly text scripts that
// interpolate between two stroke keyframes.
//
// The host hands a script two PointRecord keyframes, the canvas size and an
// opaque output handle; the script appends zero or more records to the
// handle through the ffi module. Scripts are hot-swappable: a new load
// replaces the current entry point, and a failed load either keeps the old
// one or clears it depending on the reload policy.
//
// # Architecture Overview
//
//	strokebridge/        Output collection and Memory interfaces
//	├── layout/          PointRecord layout, the single source of truth
//	├── engine/          wazero runtime, host module and generated ffi module
//	├── bridge/          Script loader and invoker state machine
//	├── stroke/          Keyframe tracker and stroke path files
//	├── render/          PNG preview of output points
//	├── config/          YAML configuration
//	├── logging/         zap loggers and the two-level host sink
//	├── wat/             WAT text to wasm binary compiler
//	├── resource/        Output handle table
//	└── errors/          Structured error types
//
// # Quick Start
//
//	b := bridge.New(bridge.Options{Logger: log})
//	defer b.Close(ctx)
//
//	if err := b.LoadScript(ctx, script); err != nil {
//	    log.Warn("load failed", zap.Error(err))
//	}
//
//	out := strokebridge.NewOutput(16)
//	b.Invoke(ctx, &start, &end, width, height, out)
//	for _, p := range out.Points() {
//	    draw(p)
//	}
//
// # Scripts
//
// A script is a WAT module exporting
//
//	(func (export "main") (param $start i32) (param $end i32) (param $x f32) (param $y f32) (param $out i32))
//
// and importing what it needs from "ffi": memory, record_size,
// dopushrustvec, pushline, pushcatmullrom, pushcubicbezier, log, newpoint and the point_<field> / set_point_<field> accessors.
//
// # Thread Safety
//
// Bridge serializes every call with a mutex. Engine and Script are not
// safe for concurrent use.
package strokebridge
