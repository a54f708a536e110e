package layout

import (
	"fmt"
	"sync"

	"go.bytecodealliance.org/wit"
)

// Field names of PointType, in memory order.
const (
	FieldX        = "x"
	FieldY        = "y"
	FieldTime     = "time"
	FieldSize     = "size"
	FieldSpeed    = "speed"
	FieldDistance = "distance"
	FieldCounter  = "counter"
)

// PointType is the declaration every view of PointRecord is derived from.
var PointType = &wit.TypeDef{
	Kind: &wit.Record{
		Fields: []wit.Field{
			{Name: FieldX, Type: wit.F32{}},
			{Name: FieldY, Type: wit.F32{}},
			{Name: FieldTime, Type: wit.F32{}},
			{Name: FieldSize, Type: wit.F32{}},
			{Name: FieldSpeed, Type: wit.F32{}},
			{Name: FieldDistance, Type: wit.F32{}},
			{Name: FieldCounter, Type: wit.F32{}},
		},
	},
}

// Info is a size/alignment pair for a type.
type Info struct {
	FieldOffs map[string]uint32
	Size      uint32
	Align     uint32
}

// FieldInfo describes one scalar field of a record.
type FieldInfo struct {
	Name string
	// ValType is the wasm value type used to load and store the field.
	ValType string
	Offset  uint32
	Width   uint32
}

// Schema is the memory layout of a flat record of scalars.
type Schema struct {
	Fields []FieldInfo
	Size   uint32
	Align  uint32
}

// Field returns the field with the given name.
func (s *Schema) Field(name string) (FieldInfo, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// AlignTo rounds offset up to the next multiple of align.
func AlignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Calculate returns the Canonical ABI size and alignment of a scalar or
// record type. Only the shapes a point record can contain are supported.
func Calculate(t wit.Type) (Info, error) {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}, nil
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}, nil
	case wit.U32, wit.S32, wit.F32:
		return Info{Size: 4, Align: 4}, nil
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}, nil
	case *wit.TypeDef:
		rec, ok := typ.Kind.(*wit.Record)
		if !ok {
			return Info{}, fmt.Errorf("layout: unsupported typedef kind %T", typ.Kind)
		}
		return calculateRecord(rec)
	}
	return Info{}, fmt.Errorf("layout: unsupported type %T", t)
}

func calculateRecord(r *wit.Record) (Info, error) {
	if len(r.Fields) == 0 {
		return Info{Size: 0, Align: 1}, nil
	}

	fieldOffs := make(map[string]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for _, field := range r.Fields {
		fl, err := Calculate(field.Type)
		if err != nil {
			return Info{}, fmt.Errorf("field %q: %w", field.Name, err)
		}
		offset = AlignTo(offset, fl.Align)
		fieldOffs[field.Name] = offset
		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		offset += fl.Size
	}

	return Info{
		Size:      AlignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: fieldOffs,
	}, nil
}

// SchemaOf builds the flat schema of a record typedef whose fields are all
// wasm-representable scalars.
func SchemaOf(td *wit.TypeDef) (*Schema, error) {
	rec, ok := td.Kind.(*wit.Record)
	if !ok {
		return nil, fmt.Errorf("layout: %T is not a record", td.Kind)
	}
	info, err := Calculate(td)
	if err != nil {
		return nil, err
	}

	s := &Schema{Size: info.Size, Align: info.Align}
	for _, f := range rec.Fields {
		vt, width, err := valType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		s.Fields = append(s.Fields, FieldInfo{
			Name:    f.Name,
			ValType: vt,
			Offset:  info.FieldOffs[f.Name],
			Width:   width,
		})
	}
	return s, nil
}

func valType(t wit.Type) (string, uint32, error) {
	switch t.(type) {
	case wit.F32:
		return "f32", 4, nil
	case wit.F64:
		return "f64", 8, nil
	case wit.U32, wit.S32:
		return "i32", 4, nil
	case wit.U64, wit.S64:
		return "i64", 8, nil
	}
	return "", 0, fmt.Errorf("layout: %T has no direct wasm value type", t)
}

var (
	pointSchema     *Schema
	pointSchemaOnce sync.Once
)

// Point returns the schema of PointRecord.
func Point() *Schema {
	pointSchemaOnce.Do(func() {
		s, err := SchemaOf(PointType)
		if err != nil {
			panic(err)
		}
		pointSchema = s
	})
	return pointSchema
}
