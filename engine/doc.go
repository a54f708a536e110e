// Package engine runs stroke interpolation scripts on wazero.
//
// An Engine is one wazero runtime holding three fixed modules:
//
//	wasi_snapshot_preview1   standard facilities (clock, random, stdout)
//	host                     Go callbacks: pushpoint, pushline, log
//	ffi                      generated from the layout schema
//
// The ffi module owns the linear memory that host and scripts share. Its
// source is generated by BootstrapSource from layout.Point(), so the field
// offsets scripts use and the offsets the Go codec uses come from the same
// table. It exports:
//
//	memory                        shared linear memory
//	dopushrustvec(out, p)         append the record at p to output out
//	pushline(out, a, b, n)        append n points stepping from a toward b
//	log(ptr, len)                 log a UTF-8 message
//	point_<field>(p) -> f32       field getters, one per schema field
//	set_point_<field>(p, v)       field setters
//	newpoint() -> i32             bump-allocate one record
//	reset()                       release every bump allocation
//
// # Scripts
//
// A script is a WAT module that imports from ffi and exports
//
//	(func (export "main") (param i32 i32 f32 f32 i32))
//
// taking the start and end keyframe addresses, the canvas x and y, and the
// output handle. Each LoadScript instantiates under a unique module name so
// a new script can be loaded while the old one is still in use.
//
// # Failure
//
// New returns a BootstrapFailure if any fixed module cannot be created.
// LoadScript returns a LoadFailure for compile, validation or instantiation
// errors. Script.Invoke returns an InvocationFailure when main traps or a
// host callback rejects its input, and a Timeout when the runtime closed the
// module because the context finished. Records appended before a failure
// are not rolled back.
package engine
