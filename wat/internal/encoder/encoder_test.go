package encoder

import (
	"bytes"
	"testing"

	"github.com/wippyai/strokebridge/wat/internal/ast"
)

func TestLEB128(t *testing.T) {
	tests := []struct {
		name  string
		write func(*Buffer)
		want  []byte
	}{
		{"u32 0", func(b *Buffer) { b.WriteU32(0) }, []byte{0x00}},
		{"u32 127", func(b *Buffer) { b.WriteU32(127) }, []byte{0x7F}},
		{"u32 128", func(b *Buffer) { b.WriteU32(128) }, []byte{0x80, 0x01}},
		{"u32 624485", func(b *Buffer) { b.WriteU32(624485) }, []byte{0xE5, 0x8E, 0x26}},
		{"i32 -1", func(b *Buffer) { b.WriteI32(-1) }, []byte{0x7F}},
		{"i32 63", func(b *Buffer) { b.WriteI32(63) }, []byte{0x3F}},
		{"i32 64", func(b *Buffer) { b.WriteI32(64) }, []byte{0xC0, 0x00}},
		{"i32 -64", func(b *Buffer) { b.WriteI32(-64) }, []byte{0x40}},
		{"i32 -65", func(b *Buffer) { b.WriteI32(-65) }, []byte{0xBF, 0x7F}},
		{"i64 -123456", func(b *Buffer) { b.WriteI64(-123456) }, []byte{0xC0, 0xBB, 0x78}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Buffer
			tt.write(&b)
			if !bytes.Equal(b.Bytes(), tt.want) {
				t.Errorf("got % X, want % X", b.Bytes(), tt.want)
			}
		})
	}
}

func TestEncodeEmpty(t *testing.T) {
	got := Encode(&ast.Module{})
	if !bytes.Equal(got, header) {
		t.Errorf("got % X", got)
	}
}

func TestEncodeFunction(t *testing.T) {
	mod := &ast.Module{
		Types: []ast.FuncType{{
			Params:  []ast.ValType{ast.ValTypeI32, ast.ValTypeI32},
			Results: []ast.ValType{ast.ValTypeI32},
		}},
		Funcs: []ast.Func{{
			TypeIdx: 0,
			Body: []ast.Instr{
				{Opcode: 0x20, Imm: uint32(0)},
				{Opcode: 0x20, Imm: uint32(1)},
				{Opcode: 0x6A},
			},
		}},
		Exports: []ast.Export{{Name: "add", Kind: ast.KindFunc, Idx: 0}},
	}

	want := append([]byte{}, header...)
	want = append(want,
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7F, 0x7F, 0x01, 0x7F, // type
		0x03, 0x02, 0x01, 0x00, // func
		0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00, // export
		0x0A, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B, // code
	)
	if got := Encode(mod); !bytes.Equal(got, want) {
		t.Errorf("got  % X\nwant % X", got, want)
	}
}

func TestEncodeImportsMemoryData(t *testing.T) {
	max := uint32(2)
	mod := &ast.Module{
		Types:    []ast.FuncType{{}},
		Imports:  []ast.Import{{Module: "m", Name: "f", Kind: ast.KindFunc, TypeIdx: 0}},
		Memories: []ast.Limits{{Min: 1, Max: &max}},
		Data: []ast.DataSegment{{
			Offset: []ast.Instr{{Opcode: 0x41, Imm: int32(16)}},
			Init:   []byte("hi"),
		}},
	}
	got := Encode(mod)

	wantImport := []byte{0x02, 0x07, 0x01, 0x01, 'm', 0x01, 'f', 0x00, 0x00}
	wantMemory := []byte{0x05, 0x04, 0x01, 0x01, 0x01, 0x02}
	wantData := []byte{0x0B, 0x08, 0x01, 0x00, 0x41, 0x10, 0x0B, 0x02, 'h', 'i'}
	for _, w := range [][]byte{wantImport, wantMemory, wantData} {
		if !bytes.Contains(got, w) {
			t.Errorf("output % X missing % X", got, w)
		}
	}
}

func TestEncodeInstrImmediates(t *testing.T) {
	tests := []struct {
		name string
		ins  ast.Instr
		want []byte
	}{
		{"f32.const 1", ast.Instr{Opcode: 0x43, Imm: float32(1)}, []byte{0x43, 0x00, 0x00, 0x80, 0x3F}},
		{"memarg", ast.Instr{Opcode: 0x2A, Imm: ast.Memarg{Align: 2, Offset: 20}}, []byte{0x2A, 0x02, 0x14}},
		{"block empty", ast.Instr{Opcode: 0x02, Imm: ast.BlockType{TypeIdx: -1, Simple: ast.BlockTypeEmpty}}, []byte{0x02, 0x40}},
		{"block typeidx", ast.Instr{Opcode: 0x02, Imm: ast.BlockType{TypeIdx: 3}}, []byte{0x02, 0x03}},
		{"br_table", ast.Instr{Opcode: 0x0E, Imm: ast.BrTable{Labels: []uint32{0, 1}, Default: 2}}, []byte{0x0E, 0x02, 0x00, 0x01, 0x02}},
		{"memory.grow", ast.Instr{Opcode: 0x40, Imm: ast.Zeros(1)}, []byte{0x40, 0x00}},
		{"memory.copy", ast.Instr{Opcode: 0xFC, Imm: ast.Prefixed{Sub: 10, Zeros: 2}}, []byte{0xFC, 0x0A, 0x00, 0x00}},
		{"select t", ast.Instr{Opcode: 0x1C, Imm: []ast.ValType{ast.ValTypeF32}}, []byte{0x1C, 0x01, 0x7D}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Buffer
			EncodeInstr(&b, tt.ins)
			if !bytes.Equal(b.Bytes(), tt.want) {
				t.Errorf("got % X, want % X", b.Bytes(), tt.want)
			}
		})
	}
}

func TestWriteLocalsRuns(t *testing.T) {
	var b Buffer
	writeLocals(&b, []ast.ValType{ast.ValTypeI32, ast.ValTypeI32, ast.ValTypeF32, ast.ValTypeI32})
	want := []byte{0x03, 0x02, 0x7F, 0x01, 0x7D, 0x01, 0x7F}
	if !bytes.Equal(b.Bytes(), want) {
		t.Errorf("got % X, want % X", b.Bytes(), want)
	}
}
