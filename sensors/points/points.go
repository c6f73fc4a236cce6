// Package points reads frames that already carry one colored point per pixel as
// four floats: x, y, z and the color packed into the bits of the fourth.
package points

import (
	"math"

	"go.viam.com/depthcamera/sensors"
)

// Stride is the number of floats per pixel.
const Stride = 4

// View reads points from a colored point frame.
type View struct {
	v sensors.View[float32]
}

// New returns a View over f.
func New(f sensors.Frame[float32]) (View, error) {
	v, err := sensors.FrameView(f, Stride)
	if err != nil {
		return View{}, err
	}
	return View{v: v}, nil
}

// Rows returns the frame height.
func (p View) Rows() int { return p.v.Rows() }

// Cols returns the frame width.
func (p View) Cols() int { return p.v.Cols() }

// At returns the point at (row, col) and its packed color.
func (p View) At(row, col int) (x, y, z, rgb float32) {
	px := p.v.Pixel(row, col)
	return px[0], px[1], px[2], px[3]
}

// Pack stores an 8 bit color in the bits of a float as 0x00RRGGBB.
func Pack(r, g, b uint8) float32 {
	return math.Float32frombits(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Unpack is the inverse of Pack.
func Unpack(rgb float32) (r, g, b uint8) {
	bits := math.Float32bits(rgb)
	return uint8(bits >> 16), uint8(bits >> 8), uint8(bits)
}
