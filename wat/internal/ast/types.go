package ast

type ValType byte

const (
	ValTypeI32 ValType = 0x7F
	ValTypeI64 ValType = 0x7E
	ValTypeF32 ValType = 0x7D
	ValTypeF64 ValType = 0x7C
)

func (v ValType) String() string {
	switch v {
	case ValTypeI32:
		return "i32"
	case ValTypeI64:
		return "i64"
	case ValTypeF32:
		return "f32"
	case ValTypeF64:
		return "f64"
	}
	return "unknown"
}

const BlockTypeEmpty byte = 0x40

const (
	KindFunc   byte = 0
	KindTable  byte = 1
	KindMemory byte = 2
	KindGlobal byte = 3
)

type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []Func
	Memories []Limits
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Data     []DataSegment
}

type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range ft.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

// Import describes one import. Exactly one of the descriptor fields is set,
// matching Kind.
type Import struct {
	Module  string
	Name    string
	Kind    byte
	TypeIdx uint32
	Memory  Limits
	Global  GlobalType
}

type Limits struct {
	Max *uint32
	Min uint32
}

type GlobalType struct {
	ValType ValType
	Mutable bool
}

type Global struct {
	Init []Instr
	Type GlobalType
}

type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

type Func struct {
	Locals  []ValType
	Body    []Instr
	TypeIdx uint32
}

type DataSegment struct {
	Offset []Instr
	Init   []byte
}

// Instr is one instruction. Imm selects the immediate encoding:
// nil, uint32, int32, int64, float32, float64, Memarg, BlockType, BrTable,
// Prefixed or Zeros.
type Instr struct {
	Imm    any
	Opcode byte
}

type Memarg struct {
	Align  uint32 // log2 of the alignment
	Offset uint32
}

// BlockType is either a single simple type byte or a type index.
type BlockType struct {
	TypeIdx int32
	Simple  byte
}

type BrTable struct {
	Labels  []uint32
	Default uint32
}

// Prefixed is a 0xFC-prefixed instruction with Zeros reserved index bytes.
type Prefixed struct {
	Sub   uint32
	Zeros int
}

// Zeros is a run of reserved zero bytes (memory index placeholders).
type Zeros int
