// Package depth reads single channel range frames.
package depth

import (
	"go.viam.com/depthcamera/sensors"
)

// View reads linear depth from a range frame.
type View struct {
	v sensors.View[float32]
}

// New returns a View over a depth frame.
func New(f sensors.Frame[float32]) (View, error) {
	v, err := sensors.FrameView(f, 1)
	if err != nil {
		return View{}, err
	}
	return View{v: v}, nil
}

// Rows returns the frame height.
func (d View) Rows() int { return d.v.Rows() }

// Cols returns the frame width.
func (d View) Cols() int { return d.v.Cols() }

// Depth returns the range reading at (row, col).
func (d View) Depth(row, col int) float64 {
	return float64(d.v.At(row, col, 0))
}

// Samples returns the raw readings in row-major order.
func (d View) Samples() []float32 {
	return d.v.Samples()
}
