package layout

import "fmt"

// PointRecord is one keyframe or interpolated sample of a stroke.
// Field order matches PointType.
type PointRecord struct {
	X        float32
	Y        float32
	Time     float32
	Size     float32
	Speed    float32
	Distance float32
	Counter  float32
}

// NumFields is the number of scalar fields in a PointRecord.
const NumFields = 7

// Field returns field i in declaration order.
func (p *PointRecord) Field(i int) float32 {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	case 2:
		return p.Time
	case 3:
		return p.Size
	case 4:
		return p.Speed
	case 5:
		return p.Distance
	case 6:
		return p.Counter
	}
	panic(fmt.Sprintf("layout: field index %d out of range", i))
}

// SetField sets field i in declaration order.
func (p *PointRecord) SetField(i int, v float32) {
	switch i {
	case 0:
		p.X = v
	case 1:
		p.Y = v
	case 2:
		p.Time = v
	case 3:
		p.Size = v
	case 4:
		p.Speed = v
	case 5:
		p.Distance = v
	case 6:
		p.Counter = v
	default:
		panic(fmt.Sprintf("layout: field index %d out of range", i))
	}
}

func (p PointRecord) String() string {
	return fmt.Sprintf("{x=%g y=%g t=%g size=%g speed=%g dist=%g n=%g}",
		p.X, p.Y, p.Time, p.Size, p.Speed, p.Distance, p.Counter)
}

// Coordinate is a bare 2D position.
type Coordinate struct {
	X float32
	Y float32
}

// PaintPoint is a position with timing and brush size, as produced by input
// sampling before speed and distance are derived.
type PaintPoint struct {
	Pos  Coordinate
	Time float32
	Size float32
}
