package engine

import (
	"fmt"
	"strings"

	"github.com/wippyai/strokebridge/engine/internal/marshal"
	"github.com/wippyai/strokebridge/layout"
)

// Names of the modules every script sees.
const (
	HostModule = "host"
	FFIModule  = "ffi"
)

// Exports of the ffi module.
const (
	ExportMemory         = "memory"
	ExportPush           = "dopushrustvec"
	ExportPushLine       = "pushline"
	ExportPushCatmullRom = "pushcatmullrom"
	ExportPushBezier     = "pushcubicbezier"
	ExportLog            = "log"
	ExportNewPoint       = "newpoint"
	ExportReset          = "reset"
	ExportHeap           = "heap"
	ExportRecordSize     = "record_size"
)

// GetterName returns the ffi export that reads field from a record.
func GetterName(field string) string { return "point_" + field }

// SetterName returns the ffi export that writes field of a record.
func SetterName(field string) string { return "set_point_" + field }

// BootstrapSource renders the ffi module for a record schema.
//
// The module owns the memory shared with every script. It forwards
// the push helpers and log to the host module and declares one
// accessor pair per schema field, so the script side of the layout is
// always regenerated from the same table as the Go codec.
func BootstrapSource(s *layout.Schema) string {
	var b strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	w("(module $%s", FFIModule)
	w("  (import %q \"pushpoint\" (func $pushpoint (param i32 i32)))", HostModule)
	w("  (import %q \"pushline\" (func $pushline (param i32 i32 i32 i32)))", HostModule)
	w("  (import %q \"pushcatmullrom\" (func $pushcatmullrom (param i32 i32 i32 i32 i32 i32)))", HostModule)
	w("  (import %q \"pushcubicbezier\" (func $pushcubicbezier (param i32 i32 i32 i32 i32 i32)))", HostModule)
	w("  (import %q \"log\" (func $log (param i32 i32)))", HostModule)
	w("")
	w("  (memory (export %q) 1)", ExportMemory)
	w("  (global $heap (export %q) (mut i32) (i32.const %d))", ExportHeap, marshal.HeapBase)
	w("  (global (export %q) i32 (i32.const %d))", ExportRecordSize, s.Size)
	w("")
	w("  (func (export %q) (param $out i32) (param $p i32)", ExportPush)
	w("    (call $pushpoint (local.get $out) (local.get $p)))")
	w("  (func (export %q) (param $out i32) (param $a i32) (param $b i32) (param $n i32)", ExportPushLine)
	w("    (call $pushline (local.get $out) (local.get $a) (local.get $b) (local.get $n)))")
	for _, fn := range []string{ExportPushCatmullRom, ExportPushBezier} {
		w("  (func (export %q) (param $out i32) (param $a i32) (param $b i32) (param $c i32) (param $d i32) (param $n i32)", fn)
		w("    (call $%s (local.get $out) (local.get $a) (local.get $b) (local.get $c) (local.get $d) (local.get $n)))", fn)
	}
	w("  (func (export %q) (param $ptr i32) (param $len i32)", ExportLog)
	w("    (call $log (local.get $ptr) (local.get $len)))")
	w("")

	for _, f := range s.Fields {
		w("  (func (export %q) (param $p i32) (result %s)", GetterName(f.Name), f.ValType)
		w("    (%s.load offset=%d (local.get $p)))", f.ValType, f.Offset)
		w("  (func (export %q) (param $p i32) (param $v %s)", SetterName(f.Name), f.ValType)
		w("    (%s.store offset=%d (local.get $p) (local.get $v)))", f.ValType, f.Offset)
	}
	w("")

	// Bump allocator handing out zeroed records; grows memory a page at a
	// time and traps when that fails.
	stride := layout.AlignTo(s.Size, s.Align)
	w("  (func (export %q) (result i32) (local $p i32)", ExportNewPoint)
	w("    (local.set $p (global.get $heap))")
	w("    (global.set $heap (i32.add (local.get $p) (i32.const %d)))", stride)
	w("    (if (i32.gt_u (global.get $heap) (i32.shl (memory.size) (i32.const 16)))")
	w("      (then")
	w("        (if (i32.eq (memory.grow (i32.const 1)) (i32.const -1))")
	w("          (then unreachable))))")
	w("    (memory.fill (local.get $p) (i32.const 0) (i32.const %d))", stride)
	w("    (local.get $p))")
	w("  (func (export %q)", ExportReset)
	w("    (global.set $heap (i32.const %d)))", marshal.HeapBase)
	w(")")
	return b.String()
}
