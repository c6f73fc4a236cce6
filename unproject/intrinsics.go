package unproject

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is returned when the camera parameters are missing or unusable.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError wraps ErrNoIntrinsics with a reason.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// Intrinsics are the pinhole parameters advertised alongside the images.
type Intrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Cx     float64 `json:"cx"`
	Cy     float64 `json:"cy"`
}

// IntrinsicsFromFOV derives square pixel intrinsics from the horizontal field of view.
// The principal point sits at ((width+1)/2, (height+1)/2).
func IntrinsicsFromFOV(width, height int, hfov float64) (*Intrinsics, error) {
	in := &Intrinsics{
		Width:  width,
		Height: height,
		Fx:     FocalLength(width, hfov),
		Cx:     (float64(width) + 1.0) / 2.0,
		Cy:     (float64(height) + 1.0) / 2.0,
	}
	in.Fy = in.Fx
	if err := in.CheckValid(); err != nil {
		return nil, err
	}
	return in, nil
}

// CheckValid checks the fields for usable values.
func (in *Intrinsics) CheckValid() error {
	if in == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", in.Width, in.Height))
	}
	if in.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", in.Fx))
	}
	if in.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", in.Fy))
	}
	if in.Cx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Cx = %#v", in.Cx))
	}
	if in.Cy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Cy = %#v", in.Cy))
	}
	return nil
}

// K returns the 3x3 camera matrix.
func (in *Intrinsics) K() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		in.Fx, 0, in.Cx,
		0, in.Fy, in.Cy,
		0, 0, 1,
	})
}

// R returns the rectification matrix, which is the identity for a monocular camera.
func (in *Intrinsics) R() *mat.Dense {
	r := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		r.Set(i, i, 1)
	}
	return r
}

// P returns the 3x4 projection matrix [K | 0].
func (in *Intrinsics) P() *mat.Dense {
	p := mat.NewDense(3, 4, nil)
	p.Slice(0, 3, 0, 3).(*mat.Dense).Copy(in.K())
	return p
}

// Flatten returns the elements of m in row-major order.
func Flatten(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}
