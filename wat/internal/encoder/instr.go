package encoder

import (
	"fmt"

	"github.com/wippyai/strokebridge/wat/internal/ast"
)

func EncodeInstr(buf *Buffer, ins ast.Instr) {
	buf.AppendByte(ins.Opcode)

	switch imm := ins.Imm.(type) {
	case nil:
	case uint32:
		buf.WriteU32(imm)
	case int32:
		buf.WriteI32(imm)
	case int64:
		buf.WriteI64(imm)
	case float32:
		buf.WriteF32(imm)
	case float64:
		buf.WriteF64(imm)
	case ast.Memarg:
		buf.WriteU32(imm.Align)
		buf.WriteU32(imm.Offset)
	case ast.BlockType:
		if imm.TypeIdx >= 0 {
			buf.WriteI64(int64(imm.TypeIdx))
		} else {
			buf.AppendByte(imm.Simple)
		}
	case ast.BrTable:
		buf.WriteU32(uint32(len(imm.Labels)))
		for _, l := range imm.Labels {
			buf.WriteU32(l)
		}
		buf.WriteU32(imm.Default)
	case []ast.ValType:
		buf.WriteU32(uint32(len(imm)))
		for _, t := range imm {
			buf.AppendByte(byte(t))
		}
	case ast.Prefixed:
		buf.WriteU32(imm.Sub)
		for i := 0; i < imm.Zeros; i++ {
			buf.AppendByte(0)
		}
	case ast.Zeros:
		for i := 0; i < int(imm); i++ {
			buf.AppendByte(0)
		}
	default:
		panic(fmt.Sprintf("encoder: unsupported immediate %T", imm))
	}
}

func encodeExpr(buf *Buffer, code []ast.Instr) {
	for _, ins := range code {
		EncodeInstr(buf, ins)
	}
	buf.AppendByte(0x0B)
}
