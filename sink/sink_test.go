package sink

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.viam.com/test"

	"go.viam.com/depthcamera/activation"
	"go.viam.com/depthcamera/msgs"
	"go.viam.com/depthcamera/sensors"
	"go.viam.com/depthcamera/sensors/points"
	"go.viam.com/depthcamera/sensors/rgb"
	"go.viam.com/depthcamera/testhelper"
	"go.viam.com/depthcamera/unproject"
)

var policy = unproject.Policy{Cutoff: unproject.DefaultCutoff}

func constHFOV(v float64) func() float64 {
	return func() float64 { return v }
}

func readField(t *testing.T, c *msgs.PointCloud2, name string) []float32 {
	t.Helper()
	f, err := c.Float32Field(name)
	test.That(t, err, test.ShouldBeNil)
	out := make([]float32, f.Len())
	for i := range out {
		out[i] = f.At(i)
	}
	return out
}

func TestEachPixel(t *testing.T) {
	var rowMajor, colMajor [][3]int
	EachPixel(2, 3, func(row, col, i int) { rowMajor = append(rowMajor, [3]int{row, col, i}) })
	EachPixelColumnMajor(2, 3, func(row, col, n int) { colMajor = append(colMajor, [3]int{row, col, n}) })
	test.That(t, rowMajor, test.ShouldResemble, [][3]int{
		{0, 0, 0}, {0, 1, 1}, {0, 2, 2}, {1, 0, 3}, {1, 1, 4}, {1, 2, 5},
	})
	test.That(t, colMajor, test.ShouldResemble, [][3]int{
		{0, 0, 0}, {1, 0, 1}, {0, 1, 2}, {1, 1, 3}, {0, 2, 4}, {1, 2, 5},
	})
}

func TestDepthSink(t *testing.T) {
	s := NewDepthSink(policy)
	test.That(t, s.Kind(), test.ShouldEqual, activation.DepthImage)

	f := testhelper.DepthFrame(2, 2, 1)
	f.Data[1] = 0.25
	f.Data[2] = float32(math.NaN())
	f.Data[3] = 0.41
	test.That(t, s.Fill(f), test.ShouldBeNil)

	im := s.Message().(*msgs.Image)
	test.That(t, im.Encoding, test.ShouldEqual, msgs.Encoding32FC1)
	test.That(t, im.Step, test.ShouldEqual, 8)
	test.That(t, im.Height, test.ShouldEqual, 2)
	got := []float32{im.Float32(0), im.Float32(1), im.Float32(2), im.Float32(3)}
	nan := float32(math.NaN())
	test.That(t, cmp.Equal(got, []float32{1, nan, nan, 0.41}, cmpopts.EquateNaNs()), test.ShouldBeTrue)

	t.Run("short frame", func(t *testing.T) {
		f := testhelper.DepthFrame(2, 2, 1)
		f.Width = 3
		test.That(t, s.Fill(f), test.ShouldNotBeNil)
	})
}

func TestNormalsSink(t *testing.T) {
	s := NewNormalsSink()
	test.That(t, s.Kind(), test.ShouldEqual, activation.NormalsImage)
	data := []float32{0, 0, -1, 0, 1, 2, 3, float32(math.NaN())}
	test.That(t, s.Fill(sensors.Frame[float32]{Data: data, Width: 2, Height: 1, Channels: 4}), test.ShouldBeNil)

	im := s.Message().(*msgs.Image)
	test.That(t, im.Encoding, test.ShouldEqual, msgs.Encoding32FC4)
	test.That(t, im.Step, test.ShouldEqual, 32)
	got := make([]float32, 8)
	for i := range got {
		got[i] = im.Float32(i)
	}
	// no validity filtering
	test.That(t, cmp.Equal(got, data, cmpopts.EquateNaNs()), test.ShouldBeTrue)

	test.That(t, s.Fill(sensors.Frame[float32]{Data: data, Width: 2, Height: 2, Channels: 4}), test.ShouldNotBeNil)
}

func TestPointCloudSink(t *testing.T) {
	t.Run("all samples in range", func(t *testing.T) {
		s := NewPointCloudSink(constHFOV(1.0), policy, nil)
		test.That(t, s.Kind(), test.ShouldEqual, activation.PointCloud)
		test.That(t, s.Fill(testhelper.DepthFrame(4, 4, 1)), test.ShouldBeNil)

		c := s.Message().(*msgs.PointCloud2)
		test.That(t, c.IsDense, test.ShouldBeTrue)
		test.That(t, c.Len(), test.ShouldEqual, 16)
		test.That(t, c.Width, test.ShouldEqual, 4)
		test.That(t, c.Height, test.ShouldEqual, 4)
		test.That(t, c.PointStep, test.ShouldEqual, 32)
		test.That(t, c.RowStep, test.ShouldEqual, 32*4)

		fl := unproject.FocalLength(4, 1.0)
		xs, ys, zs := readField(t, c, "x"), readField(t, c, "y"), readField(t, c, "z")
		for i := 0; i < 16; i++ {
			row, col := i/4, i%4
			test.That(t, zs[i], test.ShouldEqual, float32(1))
			test.That(t, xs[i], test.ShouldAlmostEqual, math.Tan(unproject.Angle(col, 4, fl)), 1e-6)
			test.That(t, ys[i], test.ShouldAlmostEqual, math.Tan(unproject.Angle(row, 4, fl)), 1e-6)
		}
		// symmetric about the optical axis
		test.That(t, xs[0], test.ShouldAlmostEqual, -xs[3], 1e-6)
		test.That(t, ys[0], test.ShouldAlmostEqual, -ys[12], 1e-6)

		t.Run("refill keeps the layout", func(t *testing.T) {
			test.That(t, s.Fill(testhelper.DepthFrame(4, 4, 1)), test.ShouldBeNil)
			test.That(t, c.Fields, test.ShouldHaveLength, 4)
			test.That(t, c.Len(), test.ShouldEqual, 16)
		})
	})

	t.Run("one sample below cutoff", func(t *testing.T) {
		s := NewPointCloudSink(constHFOV(1.0), policy, nil)
		f := testhelper.DepthFrame(4, 4, 1)
		f.Data[5] = 0.2
		test.That(t, s.Fill(f), test.ShouldBeNil)

		c := s.Message().(*msgs.PointCloud2)
		test.That(t, c.IsDense, test.ShouldBeFalse)
		for _, name := range []string{"x", "y", "z"} {
			vals := readField(t, c, name)
			for i, v := range vals {
				test.That(t, math.IsNaN(float64(v)), test.ShouldEqual, i == 5)
			}
		}

		// dense is recomputed per frame
		test.That(t, s.Fill(testhelper.DepthFrame(4, 4, 1)), test.ShouldBeNil)
		test.That(t, c.IsDense, test.ShouldBeTrue)
	})

	t.Run("single pixel", func(t *testing.T) {
		s := NewPointCloudSink(constHFOV(1.0), policy, nil)
		test.That(t, s.Fill(testhelper.DepthFrame(1, 1, 2)), test.ShouldBeNil)
		c := s.Message().(*msgs.PointCloud2)
		test.That(t, readField(t, c, "x"), test.ShouldResemble, []float32{0})
		test.That(t, readField(t, c, "y"), test.ShouldResemble, []float32{0})
		test.That(t, readField(t, c, "z"), test.ShouldResemble, []float32{2})
	})

	t.Run("bad field of view", func(t *testing.T) {
		s := NewPointCloudSink(constHFOV(0), policy, nil)
		test.That(t, s.Fill(testhelper.DepthFrame(2, 2, 1)), test.ShouldNotBeNil)
		s = NewPointCloudSink(constHFOV(math.Pi), policy, nil)
		test.That(t, s.Fill(testhelper.DepthFrame(2, 2, 1)), test.ShouldNotBeNil)
	})
}

func colorsOf(t *testing.T, c *msgs.PointCloud2) [][3]uint8 {
	t.Helper()
	f, err := c.Float32Field("rgb")
	test.That(t, err, test.ShouldBeNil)
	out := make([][3]uint8, f.Len())
	for i := range out {
		r, g, b := f.RGB(i)
		out[i] = [3]uint8{r, g, b}
	}
	return out
}

func TestPointCloudSinkColor(t *testing.T) {
	store := &rgb.Store{}
	s := NewPointCloudSink(constHFOV(1.0), policy, store)
	c := s.Message().(*msgs.PointCloud2)

	t.Run("no color frame is black", func(t *testing.T) {
		test.That(t, s.Fill(testhelper.DepthFrame(1, 2, 1)), test.ShouldBeNil)
		test.That(t, colorsOf(t, c), test.ShouldResemble, [][3]uint8{{0, 0, 0}, {0, 0, 0}})
	})

	t.Run("rgb", func(t *testing.T) {
		store.Update(sensors.Frame[uint8]{Data: []uint8{1, 2, 3, 4, 5, 6}, Width: 2, Height: 1, Channels: 3})
		test.That(t, s.Fill(testhelper.DepthFrame(1, 2, 1)), test.ShouldBeNil)
		test.That(t, colorsOf(t, c), test.ShouldResemble, [][3]uint8{{1, 2, 3}, {4, 5, 6}})
		// same encoding as frames that arrive with packed colors
		packed := readField(t, c, "rgb")
		test.That(t, math.Float32bits(packed[1]), test.ShouldEqual, math.Float32bits(points.Pack(4, 5, 6)))
	})

	t.Run("grayscale", func(t *testing.T) {
		store.Update(sensors.Frame[uint8]{Data: []uint8{7, 9}, Width: 2, Height: 1, Channels: 1})
		test.That(t, s.Fill(testhelper.DepthFrame(1, 2, 1)), test.ShouldBeNil)
		test.That(t, colorsOf(t, c), test.ShouldResemble, [][3]uint8{{7, 7, 7}, {9, 9, 9}})
	})

	t.Run("mismatched size is black", func(t *testing.T) {
		store.Update(sensors.Frame[uint8]{Data: []uint8{1, 2, 3, 4}, Width: 4, Height: 1, Channels: 1})
		test.That(t, s.Fill(testhelper.DepthFrame(1, 2, 1)), test.ShouldBeNil)
		test.That(t, colorsOf(t, c), test.ShouldResemble, [][3]uint8{{0, 0, 0}, {0, 0, 0}})
	})

	t.Run("invalid points keep their color", func(t *testing.T) {
		store.Update(sensors.Frame[uint8]{Data: []uint8{1, 2, 3, 4, 5, 6}, Width: 2, Height: 1, Channels: 3})
		f := testhelper.DepthFrame(1, 2, 1)
		f.Data[0] = 0
		test.That(t, s.Fill(f), test.ShouldBeNil)
		test.That(t, c.IsDense, test.ShouldBeFalse)
		test.That(t, colorsOf(t, c)[0], test.ShouldResemble, [3]uint8{1, 2, 3})
	})
}

func TestRGBPointCloudSink(t *testing.T) {
	s := NewRGBPointCloudSink()
	test.That(t, s.Kind(), test.ShouldEqual, activation.PointCloud)

	// 2 rows x 3 cols, x holds the pixel index
	data := make([]float32, 0, 6*points.Stride)
	for i := 0; i < 6; i++ {
		data = append(data, float32(i), 0, 1, points.Pack(uint8(i), 0, 0))
	}
	f := sensors.Frame[float32]{Data: data, Width: 3, Height: 2, Channels: points.Stride}
	test.That(t, s.Fill(f), test.ShouldBeNil)

	c := s.Message().(*msgs.PointCloud2)
	test.That(t, c.Width, test.ShouldEqual, 3)
	test.That(t, c.Height, test.ShouldEqual, 2)
	test.That(t, c.IsDense, test.ShouldBeTrue)
	test.That(t, readField(t, c, "x"), test.ShouldResemble, []float32{0, 3, 1, 4, 2, 5})

	packed := readField(t, c, "rgb")
	r, _, _ := points.Unpack(packed[1])
	test.That(t, r, test.ShouldEqual, 3)
	test.That(t, colorsOf(t, c)[1], test.ShouldResemble, [3]uint8{3, 0, 0})

	t.Run("nan points clear dense", func(t *testing.T) {
		data[4] = float32(math.NaN())
		test.That(t, s.Fill(f), test.ShouldBeNil)
		test.That(t, c.IsDense, test.ShouldBeFalse)
	})

	test.That(t, s.Fill(sensors.Frame[float32]{Data: data[:5], Width: 3, Height: 2}), test.ShouldNotBeNil)
}

func TestColorImageSink(t *testing.T) {
	s := NewColorImageSink()
	test.That(t, s.Kind(), test.ShouldEqual, activation.ColorImage)

	test.That(t, s.Fill(sensors.Frame[uint8]{Data: []uint8{1, 2, 3, 4, 5, 6}, Width: 2, Height: 1, Channels: 3}), test.ShouldBeNil)
	im := s.Message().(*msgs.Image)
	test.That(t, im.Encoding, test.ShouldEqual, msgs.EncodingRGB8)
	test.That(t, im.Data, test.ShouldResemble, []byte{1, 2, 3, 4, 5, 6})

	test.That(t, s.Fill(sensors.Frame[uint8]{Data: []uint8{8, 9}, Width: 2, Height: 1, Channels: 1}), test.ShouldBeNil)
	test.That(t, im.Encoding, test.ShouldEqual, msgs.EncodingMono8)
	test.That(t, im.Data, test.ShouldResemble, []byte{8, 9})

	test.That(t, s.Fill(sensors.Frame[uint8]{Data: []uint8{1, 2, 3, 4}, Width: 1, Height: 1, Channels: 4}), test.ShouldNotBeNil)
}

func TestCameraInfoSink(t *testing.T) {
	s := NewCameraInfoSink[float32](activation.DepthInfo, constHFOV(math.Pi/2))
	test.That(t, s.Kind(), test.ShouldEqual, activation.DepthInfo)
	test.That(t, s.Fill(testhelper.DepthFrame(2, 4, 0)), test.ShouldBeNil)
	ci := s.Message().(*msgs.CameraInfo)
	test.That(t, ci.Width, test.ShouldEqual, 4)
	test.That(t, ci.K[0], test.ShouldAlmostEqual, 2)

	test.That(t, s.Fill(sensors.Frame[float32]{}), test.ShouldNotBeNil)
}
