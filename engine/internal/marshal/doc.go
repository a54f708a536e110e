// Package marshal moves point records across the script memory boundary.
//
// Every raw address that host code hands to a script, or accepts back from
// one, passes through this package. The fixed memory map is:
//
//	[0, 16)        null guard, never a valid record address
//	[16, 44)       start keyframe slot
//	[48, 76)       end keyframe slot
//	[1024, ...)    bump heap owned by the ffi module
//
// Loads and stores are bounds checked against the current memory size and
// report structured errors from the errors package.
//
// Output collections are never exposed by address. Bind gives the script an
// opaque handle that resolves only for the duration of one invocation.
package marshal
