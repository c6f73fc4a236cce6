package sensors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShortFrame is returned when a buffer holds fewer samples than its size implies.
var ErrShortFrame = errors.New("frame buffer is too short")

// View is a typed, bounds-checked window over a row-major buffer with a fixed
// number of samples per pixel.
type View[T Sample] struct {
	data   []T
	rows   int
	cols   int
	stride int
}

// NewView returns a View over data holding rows x cols pixels of stride samples each.
// Extra trailing samples are ignored.
func NewView[T Sample](data []T, rows, cols, stride int) (View[T], error) {
	if rows <= 0 || cols <= 0 || stride <= 0 {
		return View[T]{}, errors.Errorf("invalid view shape (%d, %d, %d)", rows, cols, stride)
	}
	need := rows * cols * stride
	if len(data) < need {
		return View[T]{}, errors.Wrapf(ErrShortFrame, "need %d samples for %dx%dx%d, have %d",
			need, rows, cols, stride, len(data))
	}
	return View[T]{data: data[:need:need], rows: rows, cols: cols, stride: stride}, nil
}

// FrameView returns a View over a frame with stride samples per pixel.
func FrameView[T Sample](f Frame[T], stride int) (View[T], error) {
	return NewView(f.Data, f.Height, f.Width, stride)
}

// Rows returns the number of rows.
func (v View[T]) Rows() int { return v.rows }

// Cols returns the number of columns.
func (v View[T]) Cols() int { return v.cols }

// Stride returns the number of samples per pixel.
func (v View[T]) Stride() int { return v.stride }

// Index returns the offset of the first sample of pixel (row, col).
func (v View[T]) Index(row, col int) int {
	if row < 0 || row >= v.rows || col < 0 || col >= v.cols {
		panic(fmt.Sprintf("sensors: pixel (%d, %d) outside %dx%d view", row, col, v.rows, v.cols))
	}
	return (row*v.cols + col) * v.stride
}

// At returns one sample of pixel (row, col).
func (v View[T]) At(row, col, channel int) T {
	if channel < 0 || channel >= v.stride {
		panic(fmt.Sprintf("sensors: channel %d outside stride %d", channel, v.stride))
	}
	return v.data[v.Index(row, col)+channel]
}

// Pixel returns the samples of pixel (row, col). The slice aliases the frame buffer.
func (v View[T]) Pixel(row, col int) []T {
	i := v.Index(row, col)
	return v.data[i : i+v.stride : i+v.stride]
}

// Samples returns every sample covered by the view, row-major. The slice aliases
// the frame buffer.
func (v View[T]) Samples() []T {
	return v.data
}
