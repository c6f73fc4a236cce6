package points

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthcamera/sensors"
)

func TestPackUnpack(t *testing.T) {
	r, g, b := Unpack(Pack(200, 100, 7))
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{200, 100, 7})
}

func TestView(t *testing.T) {
	data := []float32{
		1, 2, 3, Pack(1, 2, 3),
		4, 5, 6, Pack(4, 5, 6),
	}
	_, err := New(sensors.Frame[float32]{Data: data, Width: 2, Height: 2})
	test.That(t, err, test.ShouldNotBeNil)

	v, err := New(sensors.Frame[float32]{Data: data, Width: 2, Height: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.Rows(), test.ShouldEqual, 1)
	test.That(t, v.Cols(), test.ShouldEqual, 2)
	x, y, z, rgb := v.At(0, 1)
	test.That(t, []float32{x, y, z}, test.ShouldResemble, []float32{4, 5, 6})
	r, g, b := Unpack(rgb)
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{4, 5, 6})
}
