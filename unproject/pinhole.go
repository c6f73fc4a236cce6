// Package unproject turns range samples on a pixel grid into camera frame points
// using a pinhole model built from the sensor's horizontal field of view.
package unproject

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// DefaultCutoff is the depth at or below which a sample is treated as out of range.
const DefaultCutoff = 0.4

// FocalLength returns the focal length in pixels of a sensor that is width pixels
// wide with the given horizontal field of view in radians.
func FocalLength(width int, hfov float64) float64 {
	return float64(width) / (2.0 * math.Tan(hfov/2.0))
}

// Angle returns the angle of the ray through pixel index on an axis n pixels long.
// The axis is centered at (n-1)/2; a single pixel axis has no angle.
func Angle(index, n int, focalLength float64) float64 {
	if n <= 1 {
		return 0
	}
	return math.Atan2(float64(index)-0.5*float64(n-1), focalLength)
}

// Policy decides which depth samples are valid.
type Policy struct {
	Cutoff float64
}

// Valid reports whether depth lies strictly beyond the cutoff. NaN is never valid.
func (p Policy) Valid(depth float64) bool {
	return depth > p.Cutoff
}

// Pinhole unprojects samples of a rows x cols grid. The per row and per column ray
// slopes are computed once when the grid is set and reused for every sample.
type Pinhole struct {
	rows, cols  int
	focalLength float64
	pitchTan    []float64
	yawTan      []float64
}

// NewPinhole returns a Pinhole for a rows x cols grid.
func NewPinhole(rows, cols int, hfov float64) (*Pinhole, error) {
	p := &Pinhole{}
	if err := p.Reset(rows, cols, hfov); err != nil {
		return nil, err
	}
	return p, nil
}

// Reset recomputes the ray slopes for a new grid size or field of view, reusing
// the existing storage where it is large enough. The field of view must lie in
// (0, pi); at pi the focal length collapses to zero.
func (p *Pinhole) Reset(rows, cols int, hfov float64) error {
	if rows <= 0 || cols <= 0 {
		return errors.Errorf("invalid grid size (%d, %d)", rows, cols)
	}
	if math.IsNaN(hfov) || hfov <= 0 || hfov >= math.Pi {
		return errors.Errorf("invalid horizontal field of view %v", hfov)
	}
	fl := FocalLength(cols, hfov)
	if p.rows == rows && p.cols == cols && p.focalLength == fl {
		return nil
	}
	p.rows, p.cols, p.focalLength = rows, cols, fl
	p.pitchTan = resize(p.pitchTan, rows)
	for j := range p.pitchTan {
		p.pitchTan[j] = math.Tan(Angle(j, rows, fl))
	}
	p.yawTan = resize(p.yawTan, cols)
	for i := range p.yawTan {
		p.yawTan[i] = math.Tan(Angle(i, cols, fl))
	}
	return nil
}

func resize(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n)
}

// Rows returns the grid height.
func (p *Pinhole) Rows() int { return p.rows }

// Cols returns the grid width.
func (p *Pinhole) Cols() int { return p.cols }

// FocalLength returns the focal length in pixels.
func (p *Pinhole) FocalLength() float64 { return p.focalLength }

// Point returns the camera frame point for a sample at (row, col), ignoring validity.
// x grows with the column, y with the row and z is the depth itself.
func (p *Pinhole) Point(row, col int, depth float64) r3.Vector {
	return r3.Vector{
		X: depth * p.yawTan[col],
		Y: depth * p.pitchTan[row],
		Z: depth,
	}
}

// Unproject returns the point for a sample and whether it is valid under policy.
// Invalid samples come back as all NaN.
func (p *Pinhole) Unproject(row, col int, depth float64, policy Policy) (r3.Vector, bool) {
	if !policy.Valid(depth) {
		nan := math.NaN()
		return r3.Vector{X: nan, Y: nan, Z: nan}, false
	}
	return p.Point(row, col, depth), true
}
