// Package render rasterizes interpolated points into a preview image.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/wippyai/strokebridge/layout"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// DefaultPalette colours strokes by their counter.
var DefaultPalette = []color.Color{
	color.RGBA{0x1f, 0x2a, 0x44, 0xff},
	color.RGBA{0x7d, 0x56, 0xf4, 0xff},
	color.RGBA{0xe0, 0x4f, 0x5f, 0xff},
	color.RGBA{0x2a, 0x9d, 0x8f, 0xff},
}

// Options controls Render.
type Options struct {
	Background color.Color
	Palette    []color.Color
	Width      int
	Height     int
	// Supersample renders at this multiple and downscales. Values below 1
	// mean 2.
	Supersample int
}

// Render draws one filled disc per point, radius Size, centred on (X, Y).
// Points with non-finite coordinates or size are skipped.
func Render(points []layout.PointRecord, opts Options) *image.RGBA {
	ss := opts.Supersample
	if ss < 1 {
		ss = 2
	}
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	w, h := opts.Width*ss, opts.Height*ss
	hi := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(hi, hi.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// One rasterizer pass per palette entry keeps overlapping discs of the
	// same stroke from darkening each other.
	buckets := make([][]layout.PointRecord, len(palette))
	for _, p := range points {
		if !drawable(p) {
			continue
		}
		i := 0
		if c := float64(p.Counter); !math.IsNaN(c) && !math.IsInf(c, 0) {
			i = int(math.Abs(c)) % len(palette)
		}
		buckets[i] = append(buckets[i], p)
	}

	z := vector.NewRasterizer(w, h)
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		z.Reset(w, h)
		for _, p := range bucket {
			disc(z, p.X*float32(ss), p.Y*float32(ss), max(p.Size, 0.5)*float32(ss))
		}
		z.Draw(hi, hi.Bounds(), image.NewUniform(palette[i]), image.Point{})
	}

	if ss == 1 {
		return hi
	}
	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), hi, hi.Bounds(), xdraw.Src, nil)
	return dst
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func drawable(p layout.PointRecord) bool {
	for _, v := range []float32{p.X, p.Y, p.Size} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func disc(z *vector.Rasterizer, cx, cy, r float32) {
	k := r * kappa
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
}
