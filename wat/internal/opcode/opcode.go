package opcode

type ImmKind int

const (
	ImmNone    ImmKind = iota
	ImmLocal           // local.get/set/tee
	ImmGlobal          // global.get/set
	ImmFunc            // call
	ImmLabel           // br, br_if
	ImmBrTable         // br_table
	ImmI32             // i32.const
	ImmI64             // i64.const
	ImmF32             // f32.const
	ImmF64             // f64.const
	ImmBlock           // block, loop, if
	ImmMemarg          // loads and stores
	ImmMemIdx          // memory.size, memory.grow
	ImmSelect          // select with optional result type
	ImmPrefixed        // 0xFC ops
)

type Info struct {
	Opcode byte
	Imm    ImmKind
	// NaturalAlign is log2 of the default alignment for memory ops.
	NaturalAlign uint32
	// Sub and Zeros apply to 0xFC-prefixed ops.
	Sub   uint32
	Zeros int
}

const (
	OpUnreachable byte = 0x00
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0B
	OpBrTable     byte = 0x0E
	OpSelect      byte = 0x1B
	OpSelectTyped byte = 0x1C
	OpI32Const    byte = 0x41
	OpI64Const    byte = 0x42
	OpF32Const    byte = 0x43
	OpF64Const    byte = 0x44
	OpGlobalGet   byte = 0x23
	OpPrefix      byte = 0xFC
)

func Lookup(name string) (Info, bool) {
	info, ok := table[name]
	return info, ok
}

var table = map[string]Info{
	"unreachable": {Opcode: 0x00},
	"nop":         {Opcode: 0x01},
	"block":       {Opcode: OpBlock, Imm: ImmBlock},
	"loop":        {Opcode: OpLoop, Imm: ImmBlock},
	"if":          {Opcode: OpIf, Imm: ImmBlock},
	"br":          {Opcode: 0x0C, Imm: ImmLabel},
	"br_if":       {Opcode: 0x0D, Imm: ImmLabel},
	"br_table":    {Opcode: OpBrTable, Imm: ImmBrTable},
	"return":      {Opcode: 0x0F},
	"call":        {Opcode: 0x10, Imm: ImmFunc},
	"drop":        {Opcode: 0x1A},
	"select":      {Opcode: OpSelect, Imm: ImmSelect},

	"local.get":  {Opcode: 0x20, Imm: ImmLocal},
	"local.set":  {Opcode: 0x21, Imm: ImmLocal},
	"local.tee":  {Opcode: 0x22, Imm: ImmLocal},
	"global.get": {Opcode: 0x23, Imm: ImmGlobal},
	"global.set": {Opcode: 0x24, Imm: ImmGlobal},

	"memory.size": {Opcode: 0x3F, Imm: ImmMemIdx},
	"memory.grow": {Opcode: 0x40, Imm: ImmMemIdx},

	"i32.const": {Opcode: OpI32Const, Imm: ImmI32},
	"i64.const": {Opcode: OpI64Const, Imm: ImmI64},
	"f32.const": {Opcode: OpF32Const, Imm: ImmF32},
	"f64.const": {Opcode: OpF64Const, Imm: ImmF64},

	"memory.copy": {Opcode: OpPrefix, Imm: ImmPrefixed, Sub: 10, Zeros: 2},
	"memory.fill": {Opcode: OpPrefix, Imm: ImmPrefixed, Sub: 11, Zeros: 1},
}

type memOp struct {
	name  string
	align uint32
}

func init() {
	loads := []memOp{
		{"i32.load", 2}, {"i64.load", 3}, {"f32.load", 2}, {"f64.load", 3},
		{"i32.load8_s", 0}, {"i32.load8_u", 0}, {"i32.load16_s", 1}, {"i32.load16_u", 1},
		{"i64.load8_s", 0}, {"i64.load8_u", 0}, {"i64.load16_s", 1}, {"i64.load16_u", 1},
		{"i64.load32_s", 2}, {"i64.load32_u", 2},
		{"i32.store", 2}, {"i64.store", 3}, {"f32.store", 2}, {"f64.store", 3},
		{"i32.store8", 0}, {"i32.store16", 1},
		{"i64.store8", 0}, {"i64.store16", 1}, {"i64.store32", 2},
	}
	for i, op := range loads {
		table[op.name] = Info{Opcode: 0x28 + byte(i), Imm: ImmMemarg, NaturalAlign: op.align}
	}

	seq(0x45, "i32.eqz", "i32.eq", "i32.ne", "i32.lt_s", "i32.lt_u", "i32.gt_s", "i32.gt_u",
		"i32.le_s", "i32.le_u", "i32.ge_s", "i32.ge_u")
	seq(0x50, "i64.eqz", "i64.eq", "i64.ne", "i64.lt_s", "i64.lt_u", "i64.gt_s", "i64.gt_u",
		"i64.le_s", "i64.le_u", "i64.ge_s", "i64.ge_u")
	seq(0x5B, "f32.eq", "f32.ne", "f32.lt", "f32.gt", "f32.le", "f32.ge")
	seq(0x61, "f64.eq", "f64.ne", "f64.lt", "f64.gt", "f64.le", "f64.ge")
	seq(0x67, "i32.clz", "i32.ctz", "i32.popcnt", "i32.add", "i32.sub", "i32.mul",
		"i32.div_s", "i32.div_u", "i32.rem_s", "i32.rem_u", "i32.and", "i32.or", "i32.xor",
		"i32.shl", "i32.shr_s", "i32.shr_u", "i32.rotl", "i32.rotr")
	seq(0x79, "i64.clz", "i64.ctz", "i64.popcnt", "i64.add", "i64.sub", "i64.mul",
		"i64.div_s", "i64.div_u", "i64.rem_s", "i64.rem_u", "i64.and", "i64.or", "i64.xor",
		"i64.shl", "i64.shr_s", "i64.shr_u", "i64.rotl", "i64.rotr")
	seq(0x8B, "f32.abs", "f32.neg", "f32.ceil", "f32.floor", "f32.trunc", "f32.nearest",
		"f32.sqrt", "f32.add", "f32.sub", "f32.mul", "f32.div", "f32.min", "f32.max", "f32.copysign")
	seq(0x99, "f64.abs", "f64.neg", "f64.ceil", "f64.floor", "f64.trunc", "f64.nearest",
		"f64.sqrt", "f64.add", "f64.sub", "f64.mul", "f64.div", "f64.min", "f64.max", "f64.copysign")
	seq(0xA7, "i32.wrap_i64", "i32.trunc_f32_s", "i32.trunc_f32_u", "i32.trunc_f64_s",
		"i32.trunc_f64_u", "i64.extend_i32_s", "i64.extend_i32_u", "i64.trunc_f32_s",
		"i64.trunc_f32_u", "i64.trunc_f64_s", "i64.trunc_f64_u", "f32.convert_i32_s",
		"f32.convert_i32_u", "f32.convert_i64_s", "f32.convert_i64_u", "f32.demote_f64",
		"f64.convert_i32_s", "f64.convert_i32_u", "f64.convert_i64_s", "f64.convert_i64_u",
		"f64.promote_f32", "i32.reinterpret_f32", "i64.reinterpret_f64",
		"f32.reinterpret_i32", "f64.reinterpret_i64")
	seq(0xC0, "i32.extend8_s", "i32.extend16_s", "i64.extend8_s", "i64.extend16_s", "i64.extend32_s")

	sat := []string{
		"i32.trunc_sat_f32_s", "i32.trunc_sat_f32_u", "i32.trunc_sat_f64_s", "i32.trunc_sat_f64_u",
		"i64.trunc_sat_f32_s", "i64.trunc_sat_f32_u", "i64.trunc_sat_f64_s", "i64.trunc_sat_f64_u",
	}
	for i, name := range sat {
		table[name] = Info{Opcode: OpPrefix, Imm: ImmPrefixed, Sub: uint32(i)}
	}
}

// seq registers consecutive no-immediate opcodes starting at base.
func seq(base byte, names ...string) {
	for i, name := range names {
		table[name] = Info{Opcode: base + byte(i)}
	}
}
