// Package wat compiles WebAssembly Text format into binary wasm.
//
// Stroke scripts are written in WAT and compiled in-process before they are
// handed to the runtime:
//
//	wasm, err := wat.Compile(`(module
//		(import "ffi" "dopushrustvec" (func $push (param i32 i32)))
//		(func (export "main") (param i32 i32 f32 f32 i32)
//			(call $push (local.get 4) (local.get 0))))`)
//
// Supported:
//   - Functions with params, results, locals (named and indexed), inline
//     exports and imports, explicit (type ...) uses
//   - Memory and global declarations, imports and exports; active data segments
//   - Control flow in both flat and folded form: block, loop, if/then/else,
//     br, br_if, br_table, return, call
//   - All MVP numeric, conversion and memory instructions, sign extension,
//     saturating truncation, memory.copy and memory.fill
//   - Comments: line (;;) and nested block (; ;)
//
// Not supported: tables, call_indirect, reference types, SIMD, threads,
// exception handling, GC types. Errors carry the source line and are
// *errors.Error values in the parse phase.
package wat
