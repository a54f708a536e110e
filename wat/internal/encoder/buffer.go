package encoder

import (
	"encoding/binary"
	"math"
)

type Buffer struct {
	data []byte
}

func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Len() int { return len(b.data) }

func (b *Buffer) AppendByte(v byte) { b.data = append(b.data, v) }

func (b *Buffer) AppendBytes(v []byte) { b.data = append(b.data, v...) }

func (b *Buffer) WriteU32(v uint32) {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b.data = append(b.data, c)
		if v == 0 {
			return
		}
	}
}

func (b *Buffer) WriteI32(v int32) { b.WriteI64(int64(v)) }

func (b *Buffer) WriteI64(v int64) {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		done := (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0)
		if !done {
			c |= 0x80
		}
		b.data = append(b.data, c)
		if done {
			return
		}
	}
}

func (b *Buffer) WriteF32(v float32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, math.Float32bits(v))
}

func (b *Buffer) WriteF64(v float64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, math.Float64bits(v))
}

func (b *Buffer) WriteName(s string) {
	b.WriteU32(uint32(len(s)))
	b.data = append(b.data, s...)
}

// WriteSection appends a section with its id and byte length.
func (b *Buffer) WriteSection(id byte, body *Buffer) {
	b.AppendByte(id)
	b.WriteU32(uint32(body.Len()))
	b.AppendBytes(body.Bytes())
}
