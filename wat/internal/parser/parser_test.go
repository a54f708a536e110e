package parser

import (
	"testing"

	"github.com/wippyai/strokebridge/wat/internal/ast"
	"github.com/wippyai/strokebridge/wat/internal/sexpr"
	"github.com/wippyai/strokebridge/wat/internal/token"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	toks, err := token.Tokenize(src)
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := sexpr.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}
	mod, err := New().Parse(nodes)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return mod
}

func TestParseIndexSpaces(t *testing.T) {
	mod := parse(t, `(module
		(import "ffi" "push" (func $push (param i32 i32)))
		(import "ffi" "memory" (memory 1))
		(import "ffi" "heap" (global $heap i32))
		(global $mine (mut f32) (f32.const 0))
		(func $helper (result i32) (global.get $heap))
		(func (export "main") (param $a i32) (param $b i32)
			(call $push (local.get $a) (local.get $b))
			(drop (call $helper))))`)

	if len(mod.Imports) != 3 {
		t.Fatalf("imports = %d", len(mod.Imports))
	}
	if mod.Imports[1].Kind != ast.KindMemory || mod.Imports[2].Kind != ast.KindGlobal {
		t.Errorf("import kinds = %d %d", mod.Imports[1].Kind, mod.Imports[2].Kind)
	}
	if len(mod.Funcs) != 2 || len(mod.Globals) != 1 {
		t.Fatalf("funcs=%d globals=%d", len(mod.Funcs), len(mod.Globals))
	}
	if len(mod.Exports) != 1 || mod.Exports[0].Name != "main" || mod.Exports[0].Idx != 2 {
		t.Errorf("exports = %+v", mod.Exports)
	}

	main := mod.Funcs[1].Body
	// local.get 0, local.get 1, call 0, call 1, drop
	if len(main) != 5 {
		t.Fatalf("main body = %+v", main)
	}
	if main[2].Opcode != 0x10 || main[2].Imm != uint32(0) {
		t.Errorf("call $push = %+v", main[2])
	}
	if main[3].Opcode != 0x10 || main[3].Imm != uint32(1) {
		t.Errorf("call $helper = %+v", main[3])
	}

	helper := mod.Funcs[0].Body
	if len(helper) != 1 || helper[0].Opcode != 0x23 || helper[0].Imm != uint32(0) {
		t.Errorf("global.get $heap = %+v", helper)
	}
}

func TestParseTypeDedup(t *testing.T) {
	mod := parse(t, `(module
		(func (param i32))
		(func (param i32))
		(func (param f32)))`)
	if len(mod.Types) != 2 {
		t.Errorf("types = %d, want 2", len(mod.Types))
	}
	if mod.Funcs[0].TypeIdx != mod.Funcs[1].TypeIdx {
		t.Error("identical signatures should share a type")
	}
}

func TestParseFoldedOrder(t *testing.T) {
	mod := parse(t, `(module (func (result i32) (i32.add (i32.const 1) (i32.mul (i32.const 2) (i32.const 3)))))`)
	body := mod.Funcs[0].Body
	want := []byte{0x41, 0x41, 0x41, 0x6C, 0x6A}
	if len(body) != len(want) {
		t.Fatalf("body = %+v", body)
	}
	for i, op := range want {
		if body[i].Opcode != op {
			t.Errorf("instr %d: got 0x%02X, want 0x%02X", i, body[i].Opcode, op)
		}
	}
}

func TestParseLabels(t *testing.T) {
	mod := parse(t, `(module (func
		(block $outer
			(loop $inner
				(br $outer)
				(br $inner)
				(br 1)))))`)
	var depths []uint32
	for _, ins := range mod.Funcs[0].Body {
		if ins.Opcode == 0x0C {
			depths = append(depths, ins.Imm.(uint32))
		}
	}
	if len(depths) != 3 || depths[0] != 1 || depths[1] != 0 || depths[2] != 1 {
		t.Errorf("br depths = %v", depths)
	}
}

func TestParseMemargDefaults(t *testing.T) {
	mod := parse(t, `(module (memory 1) (func (result f32) (f32.load offset=12 (i32.const 0))))`)
	ld := mod.Funcs[0].Body[1]
	ma, ok := ld.Imm.(ast.Memarg)
	if !ok || ma.Offset != 12 || ma.Align != 2 {
		t.Errorf("memarg = %+v", ld.Imm)
	}
}

func TestParseLocals(t *testing.T) {
	mod := parse(t, `(module (func (param $p f32) (local $a i32) (local f32 f64) (local $b i64)
		(local.set $b (i64.const 1))))`)
	fn := mod.Funcs[0]
	if len(fn.Locals) != 4 {
		t.Fatalf("locals = %v", fn.Locals)
	}
	set := fn.Body[1]
	if set.Opcode != 0x21 || set.Imm != uint32(4) {
		t.Errorf("local.set $b = %+v", set)
	}
}

func TestParseBlockTypes(t *testing.T) {
	mod := parse(t, `(module (func (result f32)
		(block (result f32) (f32.const 1))))`)
	bt, ok := mod.Funcs[0].Body[0].Imm.(ast.BlockType)
	if !ok || bt.TypeIdx != -1 || bt.Simple != byte(ast.ValTypeF32) {
		t.Errorf("block type = %+v", mod.Funcs[0].Body[0].Imm)
	}
}

func TestParseData(t *testing.T) {
	mod := parse(t, `(module (memory 1) (data (i32.const 8) "ab" "c"))`)
	if len(mod.Data) != 1 || string(mod.Data[0].Init) != "abc" {
		t.Fatalf("data = %+v", mod.Data)
	}
	if mod.Data[0].Offset[0].Imm != int32(8) {
		t.Errorf("offset = %+v", mod.Data[0].Offset)
	}
}
