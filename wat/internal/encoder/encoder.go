package encoder

import "github.com/wippyai/strokebridge/wat/internal/ast"

const (
	sectionType   byte = 1
	sectionImport byte = 2
	sectionFunc   byte = 3
	sectionMemory byte = 5
	sectionGlobal byte = 6
	sectionExport byte = 7
	sectionStart  byte = 8
	sectionCode   byte = 10
	sectionData   byte = 11
)

var header = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// Encode produces the binary form of mod. Empty sections are omitted.
func Encode(mod *ast.Module) []byte {
	out := &Buffer{}
	out.AppendBytes(header)

	if len(mod.Types) > 0 {
		s := &Buffer{}
		s.WriteU32(uint32(len(mod.Types)))
		for _, ft := range mod.Types {
			s.AppendByte(0x60)
			writeValTypes(s, ft.Params)
			writeValTypes(s, ft.Results)
		}
		out.WriteSection(sectionType, s)
	}

	if len(mod.Imports) > 0 {
		s := &Buffer{}
		s.WriteU32(uint32(len(mod.Imports)))
		for _, imp := range mod.Imports {
			s.WriteName(imp.Module)
			s.WriteName(imp.Name)
			s.AppendByte(imp.Kind)
			switch imp.Kind {
			case ast.KindFunc:
				s.WriteU32(imp.TypeIdx)
			case ast.KindMemory:
				writeLimits(s, imp.Memory)
			case ast.KindGlobal:
				writeGlobalType(s, imp.Global)
			}
		}
		out.WriteSection(sectionImport, s)
	}

	if len(mod.Funcs) > 0 {
		s := &Buffer{}
		s.WriteU32(uint32(len(mod.Funcs)))
		for _, f := range mod.Funcs {
			s.WriteU32(f.TypeIdx)
		}
		out.WriteSection(sectionFunc, s)
	}

	if len(mod.Memories) > 0 {
		s := &Buffer{}
		s.WriteU32(uint32(len(mod.Memories)))
		for _, m := range mod.Memories {
			writeLimits(s, m)
		}
		out.WriteSection(sectionMemory, s)
	}

	if len(mod.Globals) > 0 {
		s := &Buffer{}
		s.WriteU32(uint32(len(mod.Globals)))
		for _, g := range mod.Globals {
			writeGlobalType(s, g.Type)
			encodeExpr(s, g.Init)
		}
		out.WriteSection(sectionGlobal, s)
	}

	if len(mod.Exports) > 0 {
		s := &Buffer{}
		s.WriteU32(uint32(len(mod.Exports)))
		for _, e := range mod.Exports {
			s.WriteName(e.Name)
			s.AppendByte(e.Kind)
			s.WriteU32(e.Idx)
		}
		out.WriteSection(sectionExport, s)
	}

	if mod.Start != nil {
		s := &Buffer{}
		s.WriteU32(*mod.Start)
		out.WriteSection(sectionStart, s)
	}

	if len(mod.Funcs) > 0 {
		s := &Buffer{}
		s.WriteU32(uint32(len(mod.Funcs)))
		for _, f := range mod.Funcs {
			body := &Buffer{}
			writeLocals(body, f.Locals)
			encodeExpr(body, f.Body)
			s.WriteU32(uint32(body.Len()))
			s.AppendBytes(body.Bytes())
		}
		out.WriteSection(sectionCode, s)
	}

	if len(mod.Data) > 0 {
		s := &Buffer{}
		s.WriteU32(uint32(len(mod.Data)))
		for _, d := range mod.Data {
			s.AppendByte(0x00) // active, memory 0
			encodeExpr(s, d.Offset)
			s.WriteU32(uint32(len(d.Init)))
			s.AppendBytes(d.Init)
		}
		out.WriteSection(sectionData, s)
	}

	return out.Bytes()
}

func writeValTypes(b *Buffer, types []ast.ValType) {
	b.WriteU32(uint32(len(types)))
	for _, t := range types {
		b.AppendByte(byte(t))
	}
}

func writeLimits(b *Buffer, l ast.Limits) {
	if l.Max != nil {
		b.AppendByte(0x01)
		b.WriteU32(l.Min)
		b.WriteU32(*l.Max)
		return
	}
	b.AppendByte(0x00)
	b.WriteU32(l.Min)
}

func writeGlobalType(b *Buffer, g ast.GlobalType) {
	b.AppendByte(byte(g.ValType))
	if g.Mutable {
		b.AppendByte(0x01)
	} else {
		b.AppendByte(0x00)
	}
}

// writeLocals run-length encodes consecutive locals of the same type.
func writeLocals(b *Buffer, locals []ast.ValType) {
	type run struct {
		t ast.ValType
		n uint32
	}
	var runs []run
	for _, t := range locals {
		if len(runs) > 0 && runs[len(runs)-1].t == t {
			runs[len(runs)-1].n++
			continue
		}
		runs = append(runs, run{t, 1})
	}
	b.WriteU32(uint32(len(runs)))
	for _, r := range runs {
		b.WriteU32(r.n)
		b.AppendByte(byte(r.t))
	}
}
