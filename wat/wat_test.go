package wat

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/strokebridge/errors"
)

func TestCompile(t *testing.T) {
	t.Run("empty_module", func(t *testing.T) {
		wasm, err := Compile("(module)")
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if len(wasm) != 8 {
			t.Errorf("expected 8 bytes, got %d", len(wasm))
		}
		if wasm[0] != 0x00 || wasm[1] != 0x61 || wasm[2] != 0x73 || wasm[3] != 0x6D {
			t.Error("invalid WASM magic")
		}
	})

	t.Run("named_module", func(t *testing.T) {
		if _, err := Compile("(module $m)"); err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
	})
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name, wat, wantErr string
	}{
		{"missing_module", "(func)", "expected 'module'"},
		{"unclosed", "(module", "unexpected end"},
		{"unknown_instr", "(module (func (bogus)))", "unknown instruction"},
		{"unknown_type", "(module (func (param bogus)))", "unknown value type"},
		{"unknown_label", "(module (func (block (br $x))))", "unknown label"},
		{"unknown_local", "(module (func (local.get $nope)))", "unknown local"},
		{"local_range", "(module (func (param i32) (local.get 1) drop))", "out of range"},
		{"unknown_func", "(module (func (call $f)))", "unknown function"},
		{"missing_end", "(module (func block nop))", "missing 'end'"},
		{"stray_end", "(module (func end))", "without matching block"},
		{"table", "(module (table 1 funcref))", "unsupported module field"},
		{"bad_const", "(module (func (i32.const -3000000000) drop))", "out of range"},
		{"bad_align", "(module (memory 1) (func (i32.load align=3 (i32.const 0)) drop))", "power of two"},
		{"dup_func", "(module (func $a) (func $a))", "duplicate identifier"},
		{"import_order", `(module (func) (import "m" "f" (func)))`, "after function definition"},
		{"unterminated_string", `(module (export "x`, "unterminated string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.wat)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Phase != errors.PhaseParse {
				t.Errorf("error %T is not a parse-phase *errors.Error", err)
			}
		})
	}
}

// TestWasmValidation checks that compiled output passes wazero validation.
func TestWasmValidation(t *testing.T) {
	tests := []struct {
		name string
		wat  string
	}{
		{"memory", "(module (memory 1 10))"},
		{"memory_export", `(module (memory (export "mem") 1))`},
		{"global", "(module (global (mut i32) (i32.const 0)))"},
		{"global_f32", `(module (global $g (export "g") f32 (f32.const 1.5)))`},
		{"start", "(module (func $main) (start $main))"},
		{"func_params", "(module (func (param i32 i64 f32 f64)))"},
		{"func_results", "(module (func (result i32 i32) (i32.const 1) (i32.const 2)))"},
		{"func_locals", "(module (func (local i32) (local.set 0 (i32.const 1))))"},
		{"named_locals", "(module (func (param $a f32) (local $b f32) (local.set $b (local.get $a))))"},
		{"explicit_type", "(module (type $t (func (param i32) (result i32))) (func (type $t) (local.get 0)))"},
		{"flat_block", "(module (func (result i32) block (result i32) i32.const 1 end))"},
		{"flat_if", "(module (func (param i32) (result i32) local.get 0 if (result i32) i32.const 1 else i32.const 2 end))"},
		{"folded_if", "(module (func (param i32) (result f32) (if (result f32) (local.get 0) (then (f32.const 1)) (else (f32.const 2)))))"},
		{"loop_br_if", `(module (func (param $n i32)
			(loop $top
				(local.set $n (i32.sub (local.get $n) (i32.const 1)))
				(br_if $top (i32.gt_s (local.get $n) (i32.const 0))))))`},
		{"br_table", "(module (func (param i32) (block (block (br_table 0 1 (local.get 0))))))"},
		{"memarg", "(module (memory 1) (func (f32.store offset=8 align=4 (i32.const 0) (f32.load offset=4 (i32.const 0)))))"},
		{"memory_ops", "(module (memory 1) (func (drop (memory.grow (i32.const 1))) (drop (memory.size)) (memory.fill (i32.const 0) (i32.const 0) (i32.const 4)) (memory.copy (i32.const 4) (i32.const 0) (i32.const 4))))"},
		{"data", `(module (memory 1) (data (i32.const 16) "hello" "\00"))`},
		{"data_offset", `(module (memory 1) (data (offset (i32.const 0)) "x"))`},
		{"import_func", `(module (import "env" "f" (func $f (param i32))) (func (call $f (i32.const 1))))`},
		{"inline_import", `(module (func $f (import "env" "f") (param f32)) (func (call $f (f32.const 0))))`},
		{"select_typed", "(module (func (result f32) (select (result f32) (f32.const 1) (f32.const 2) (i32.const 0))))"},
		{"conversions", "(module (func (result i32) (i32.trunc_sat_f32_s (f32.convert_i32_s (i32.const 3)))))"},
		{"float_literals", "(module (func (drop (f32.const -inf)) (drop (f32.const nan)) (drop (f64.const 0x1.8p1)) (drop (f32.const 1e3))))"},
		{"multi_value_block", "(module (func (result i32 i32) (block (result i32 i32) (i32.const 1) (i32.const 2))))"},
		{"comments", "(module ;; line\n (; block ;) (func))"},
	}

	ctx := context.Background()
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer r.Close(ctx)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, err := Compile(tt.wat)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if _, err := r.CompileModule(ctx, bin); err != nil {
				t.Fatalf("wazero rejected module: %v", err)
			}
		})
	}
}

// TestExecution runs compiled code to check instruction semantics.
func TestExecution(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer r.Close(ctx)

	bin, err := Compile(`(module
		(memory (export "memory") 1)
		(global $acc (mut i32) (i32.const 0))
		(data (i32.const 100) "\2a\00\00\00")

		(func (export "add") (param i32 i32) (result i32)
			(i32.add (local.get 0) (local.get 1)))

		(func (export "sum_to") (param $n i32) (result i32)
			(local $s i32)
			(block $done
				(loop $top
					(br_if $done (i32.eqz (local.get $n)))
					(local.set $s (i32.add (local.get $s) (local.get $n)))
					(local.set $n (i32.sub (local.get $n) (i32.const 1)))
					(br $top)))
			(local.get $s))

		(func (export "lerp") (param $a f32) (param $b f32) (param $t f32) (result f32)
			(f32.add (local.get $a)
				(f32.mul (f32.sub (local.get $b) (local.get $a)) (local.get $t))))

		(func (export "pick") (param i32) (result i32)
			local.get 0
			if (result i32)
				i32.const 10
			else
				i32.const 20
			end)

		(func (export "bump") (result i32)
			(global.set $acc (i32.add (global.get $acc) (i32.const 1)))
			(global.get $acc))

		(func (export "data") (result i32)
			(i32.load offset=100 (i32.const 0)))

		(func (export "negate") (param i32) (result i32)
			(i32.sub (i32.const 0) (local.get 0)))

		(func (export "switch") (param i32) (result i32)
			(block $c (block $b (block $a
				(br_table $a $b $c (local.get 0)))
				(return (i32.const 100)))
				(return (i32.const 200)))
			(i32.const 300)))`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	mod, err := r.Instantiate(ctx, bin)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}

	call := func(name string, args ...uint64) uint64 {
		t.Helper()
		res, err := mod.ExportedFunction(name).Call(ctx, args...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		return res[0]
	}

	if got := uint32(call("add", 2, 40)); got != 42 {
		t.Errorf("add = %d", got)
	}
	if got := uint32(call("sum_to", 10)); got != 55 {
		t.Errorf("sum_to(10) = %d", got)
	}
	lerp := api.DecodeF32(call("lerp", api.EncodeF32(10), api.EncodeF32(20), api.EncodeF32(0.25)))
	if math.Abs(float64(lerp)-12.5) > 1e-6 {
		t.Errorf("lerp = %g", lerp)
	}
	if call("pick", 1) != 10 || call("pick", 0) != 20 {
		t.Error("pick wrong")
	}
	call("bump")
	if got := call("bump"); got != 2 {
		t.Errorf("bump = %d", got)
	}
	if got := call("data"); got != 42 {
		t.Errorf("data = %d", got)
	}
	if got := api.DecodeI32(call("negate", 5)); got != -5 {
		t.Errorf("negate = %d", got)
	}
	for in, want := range map[uint64]uint64{0: 100, 1: 200, 2: 300, 9: 300} {
		if got := call("switch", in); got != want {
			t.Errorf("switch(%d) = %d, want %d", in, got, want)
		}
	}
}
