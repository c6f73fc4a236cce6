package sensors

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestView(t *testing.T) {
	data := []float32{
		0, 1, 2, 3, 4, 5,
		6, 7, 8, 9, 10, 11,
	}

	t.Run("shape errors", func(t *testing.T) {
		_, err := NewView(data, 0, 3, 2)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewView(data, 2, 3, 0)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewView(data, 3, 3, 2)
		test.That(t, errors.Cause(err), test.ShouldEqual, ErrShortFrame)
	})

	t.Run("row-major addressing", func(t *testing.T) {
		v, err := NewView(data, 2, 3, 2)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v.Rows(), test.ShouldEqual, 2)
		test.That(t, v.Cols(), test.ShouldEqual, 3)
		test.That(t, v.Stride(), test.ShouldEqual, 2)
		test.That(t, v.At(0, 0, 0), test.ShouldEqual, float32(0))
		test.That(t, v.At(0, 2, 1), test.ShouldEqual, float32(5))
		test.That(t, v.At(1, 0, 0), test.ShouldEqual, float32(6))
		test.That(t, v.Pixel(1, 1), test.ShouldResemble, []float32{8, 9})
		test.That(t, len(v.Samples()), test.ShouldEqual, 12)
	})

	t.Run("out of range access panics", func(t *testing.T) {
		v, err := NewView(data, 2, 3, 2)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, func() { v.At(0, 3, 0) }, test.ShouldPanic)
		test.That(t, func() { v.At(2, 0, 0) }, test.ShouldPanic)
		test.That(t, func() { v.At(0, 0, 2) }, test.ShouldPanic)
	})

	t.Run("trailing samples are ignored", func(t *testing.T) {
		v, err := FrameView(Frame[float32]{Data: data, Width: 5, Height: 1, Channels: 2}, 2)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(v.Samples()), test.ShouldEqual, 10)
		test.That(t, cap(v.Pixel(0, 4)), test.ShouldEqual, 2)
	})
}

func TestFrameValid(t *testing.T) {
	test.That(t, Frame[uint8]{Width: 1, Height: 1}.Valid(), test.ShouldBeTrue)
	test.That(t, Frame[uint8]{Width: 0, Height: 1}.Valid(), test.ShouldBeFalse)
	test.That(t, Frame[float32]{Width: 3, Height: -1}.Valid(), test.ShouldBeFalse)
}
