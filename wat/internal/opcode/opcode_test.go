package opcode

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		opcode byte
		imm    ImmKind
	}{
		{"unreachable", 0x00, ImmNone},
		{"br_table", 0x0E, ImmBrTable},
		{"local.tee", 0x22, ImmLocal},
		{"i32.load", 0x28, ImmMemarg},
		{"f32.load", 0x2A, ImmMemarg},
		{"f32.store", 0x38, ImmMemarg},
		{"i64.store32", 0x3E, ImmMemarg},
		{"memory.grow", 0x40, ImmMemIdx},
		{"f32.const", 0x43, ImmF32},
		{"i32.ge_u", 0x4F, ImmNone},
		{"i64.ge_u", 0x5A, ImmNone},
		{"f32.ge", 0x60, ImmNone},
		{"f64.ge", 0x66, ImmNone},
		{"i32.rotr", 0x78, ImmNone},
		{"i64.rotr", 0x8A, ImmNone},
		{"f32.copysign", 0x98, ImmNone},
		{"f64.copysign", 0xA6, ImmNone},
		{"f32.convert_i32_s", 0xB2, ImmNone},
		{"f64.reinterpret_i64", 0xBF, ImmNone},
		{"i64.extend32_s", 0xC4, ImmNone},
	}
	for _, tt := range tests {
		info, ok := Lookup(tt.name)
		if !ok {
			t.Errorf("%s: not found", tt.name)
			continue
		}
		if info.Opcode != tt.opcode || info.Imm != tt.imm {
			t.Errorf("%s: got 0x%02X/%d, want 0x%02X/%d", tt.name, info.Opcode, info.Imm, tt.opcode, tt.imm)
		}
	}
}

func TestNaturalAlign(t *testing.T) {
	for name, want := range map[string]uint32{"i32.load8_u": 0, "i32.load16_s": 1, "f32.load": 2, "f64.store": 3} {
		info, _ := Lookup(name)
		if info.NaturalAlign != want {
			t.Errorf("%s: align %d, want %d", name, info.NaturalAlign, want)
		}
	}
}

func TestPrefixed(t *testing.T) {
	info, ok := Lookup("memory.fill")
	if !ok || info.Opcode != OpPrefix || info.Sub != 11 || info.Zeros != 1 {
		t.Errorf("memory.fill = %+v", info)
	}
	info, ok = Lookup("i64.trunc_sat_f64_u")
	if !ok || info.Sub != 7 || info.Zeros != 0 {
		t.Errorf("i64.trunc_sat_f64_u = %+v", info)
	}
	if _, ok := Lookup("v128.load"); ok {
		t.Error("simd should not be known")
	}
}
