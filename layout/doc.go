// Package layout is the binary contract for point records shared by the
// host and script code.
//
// The record shape is declared once, as a WIT record typedef (PointType), and
// every other view of it is derived from that declaration:
//
//   - Schema: byte offsets and widths computed with Canonical ABI rules
//   - Encode/Decode: the host codec for linear memory
//   - the ffi bootstrap module's per-field accessors (package engine)
//
// # Layout Rules
//
// Primitives have size equal to alignment and records place fields in
// declaration order, padding each to its own alignment. PointRecord is seven
// f32 fields, so it is 28 bytes with no padding.
//
// Changing field order or width in PointType changes every derived view at
// once. Scripts compiled against the old layout will silently misread memory;
// nothing at runtime can detect that.
package layout
