package layout

import (
	"encoding/binary"
	"fmt"
	"math"
)

// RecordSize is the encoded size of a PointRecord in bytes.
const RecordSize = 28

// Encode returns the little-endian memory image of p.
func Encode(p PointRecord) [RecordSize]byte {
	var buf [RecordSize]byte
	Put(buf[:], p)
	return buf
}

// Put writes p into dst, which must hold at least RecordSize bytes.
func Put(dst []byte, p PointRecord) {
	_ = dst[RecordSize-1]
	for i, f := range Point().Fields {
		binary.LittleEndian.PutUint32(dst[f.Offset:], math.Float32bits(p.Field(i)))
	}
}

// Decode reads a PointRecord from the first RecordSize bytes of src.
func Decode(src []byte) (PointRecord, error) {
	if len(src) < RecordSize {
		return PointRecord{}, fmt.Errorf("layout: need %d bytes, got %d", RecordSize, len(src))
	}
	var p PointRecord
	for i, f := range Point().Fields {
		p.SetField(i, math.Float32frombits(binary.LittleEndian.Uint32(src[f.Offset:])))
	}
	return p, nil
}

// BitEqual reports whether a and b have identical bit patterns in every
// field. Unlike ==, NaN fields compare equal to themselves and -0 differs
// from +0.
func BitEqual(a, b PointRecord) bool {
	for i := 0; i < NumFields; i++ {
		if math.Float32bits(a.Field(i)) != math.Float32bits(b.Field(i)) {
			return false
		}
	}
	return true
}
