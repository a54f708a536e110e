package layout

import (
	"math"
	"testing"
	"unsafe"

	"go.bytecodealliance.org/wit"
)

func TestPointSchema(t *testing.T) {
	s := Point()
	if s.Size != RecordSize {
		t.Fatalf("size: got %d, want %d", s.Size, RecordSize)
	}
	if s.Align != 4 {
		t.Errorf("align: got %d, want 4", s.Align)
	}
	want := []string{FieldX, FieldY, FieldTime, FieldSize, FieldSpeed, FieldDistance, FieldCounter}
	if len(s.Fields) != len(want) {
		t.Fatalf("fields: got %d, want %d", len(s.Fields), len(want))
	}
	for i, f := range s.Fields {
		if f.Name != want[i] {
			t.Errorf("field %d: got %q, want %q", i, f.Name, want[i])
		}
		if f.Offset != uint32(i*4) {
			t.Errorf("field %s offset: got %d, want %d", f.Name, f.Offset, i*4)
		}
		if f.ValType != "f32" || f.Width != 4 {
			t.Errorf("field %s: got %s/%d", f.Name, f.ValType, f.Width)
		}
	}
}

func TestSchemaMatchesGoStruct(t *testing.T) {
	var p PointRecord
	if got := unsafe.Sizeof(p); got != RecordSize {
		t.Fatalf("unsafe.Sizeof(PointRecord) = %d, want %d", got, RecordSize)
	}
	offs := []uintptr{
		unsafe.Offsetof(p.X),
		unsafe.Offsetof(p.Y),
		unsafe.Offsetof(p.Time),
		unsafe.Offsetof(p.Size),
		unsafe.Offsetof(p.Speed),
		unsafe.Offsetof(p.Distance),
		unsafe.Offsetof(p.Counter),
	}
	for i, f := range Point().Fields {
		if uintptr(f.Offset) != offs[i] {
			t.Errorf("%s: schema offset %d, Go offset %d", f.Name, f.Offset, offs[i])
		}
	}
}

func TestCalculateRecordPadding(t *testing.T) {
	td := &wit.TypeDef{
		Kind: &wit.Record{
			Fields: []wit.Field{
				{Name: "a", Type: wit.U8{}},
				{Name: "b", Type: wit.F64{}},
				{Name: "c", Type: wit.U16{}},
			},
		},
	}
	info, err := Calculate(td)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != 24 || info.Align != 8 {
		t.Errorf("got size=%d align=%d, want 24/8", info.Size, info.Align)
	}
	if info.FieldOffs["b"] != 8 || info.FieldOffs["c"] != 16 {
		t.Errorf("offsets: %v", info.FieldOffs)
	}
}

func TestSchemaOfRejectsNonScalar(t *testing.T) {
	td := &wit.TypeDef{
		Kind: &wit.Record{
			Fields: []wit.Field{{Name: "flag", Type: wit.Bool{}}},
		},
	}
	if _, err := SchemaOf(td); err == nil {
		t.Fatal("expected error for bool field")
	}
	if _, err := SchemaOf(&wit.TypeDef{Kind: &wit.List{Type: wit.F32{}}}); err == nil {
		t.Fatal("expected error for list typedef")
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ off, align, want uint32 }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{7, 1, 7},
		{3, 0, 3},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.off, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.off, tt.align, got, tt.want)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	p := PointRecord{
		X: 1.5, Y: -2.25, Time: 1000, Size: 12,
		Speed: float32(math.Inf(1)), Distance: float32(math.Copysign(0, -1)),
		Counter: math.Float32frombits(0x7fc00123),
	}
	buf := Encode(p)

	if got := math.Float32frombits(uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24); got != 1.5 {
		t.Errorf("x bytes decode to %g", got)
	}

	back, err := Decode(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	if !BitEqual(p, back) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", back, p)
	}
	if math.Float32bits(back.Counter) != 0x7fc00123 {
		t.Errorf("NaN payload lost: %#x", math.Float32bits(back.Counter))
	}
}

func TestDecodeShort(t *testing.T) {
	if _, err := Decode(make([]byte, RecordSize-1)); err == nil {
		t.Fatal("expected error")
	}
}

func TestBitEqual(t *testing.T) {
	a := PointRecord{X: 0}
	b := PointRecord{X: float32(math.Copysign(0, -1))}
	if BitEqual(a, b) {
		t.Error("+0 and -0 should differ")
	}
	n := PointRecord{Y: float32(math.NaN())}
	if !BitEqual(n, n) {
		t.Error("NaN should equal itself bitwise")
	}
}

func TestFieldAccessors(t *testing.T) {
	var p PointRecord
	for i := 0; i < NumFields; i++ {
		p.SetField(i, float32(i+1))
	}
	want := PointRecord{1, 2, 3, 4, 5, 6, 7}
	if p != want {
		t.Errorf("got %v, want %v", p, want)
	}
	for i := 0; i < NumFields; i++ {
		if p.Field(i) != float32(i+1) {
			t.Errorf("Field(%d) = %g", i, p.Field(i))
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range field")
		}
	}()
	p.Field(NumFields)
}
