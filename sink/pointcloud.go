package sink

import (
	"math"

	"go.viam.com/depthcamera/activation"
	"go.viam.com/depthcamera/msgs"
	"go.viam.com/depthcamera/sensors"
	"go.viam.com/depthcamera/sensors/depth"
	"go.viam.com/depthcamera/sensors/points"
	"go.viam.com/depthcamera/sensors/rgb"
	"go.viam.com/depthcamera/unproject"
)

type cloudFields struct {
	x, y, z, rgb msgs.Float32Field
}

func layoutCloud(c *msgs.PointCloud2, rows, cols int) (cloudFields, error) {
	m := msgs.NewPointCloud2Modifier(c)
	m.SetFieldsXYZRGB()
	m.Reshape(rows, cols)
	c.IsDense = true

	var fs cloudFields
	var err error
	for _, f := range []struct {
		name string
		dst  *msgs.Float32Field
	}{
		{"x", &fs.x}, {"y", &fs.y}, {"z", &fs.z}, {"rgb", &fs.rgb},
	} {
		if *f.dst, err = c.Float32Field(f.name); err != nil {
			return cloudFields{}, err
		}
	}
	return fs, nil
}

// PointCloudSink unprojects a depth frame into a colored point cloud. Colors come
// from the latest frame in the color store.
type PointCloudSink struct {
	hfov    func() float64
	policy  unproject.Policy
	colors  *rgb.Store
	pinhole unproject.Pinhole
	msg     msgs.PointCloud2
}

// NewPointCloudSink returns a PointCloudSink. hfov is read once per frame.
func NewPointCloudSink(hfov func() float64, policy unproject.Policy, colors *rgb.Store) *PointCloudSink {
	if colors == nil {
		colors = &rgb.Store{}
	}
	return &PointCloudSink{hfov: hfov, policy: policy, colors: colors}
}

// Kind implements Sink.
func (s *PointCloudSink) Kind() activation.Kind { return activation.PointCloud }

// Message implements Sink.
func (s *PointCloudSink) Message() msgs.Message { return &s.msg }

// Fill implements Sink.
func (s *PointCloudSink) Fill(f sensors.Frame[float32]) error {
	v, err := depth.New(f)
	if err != nil {
		return err
	}
	rows, cols := v.Rows(), v.Cols()
	if err := s.pinhole.Reset(rows, cols, s.hfov()); err != nil {
		return err
	}
	fs, err := layoutCloud(&s.msg, rows, cols)
	if err != nil {
		return err
	}
	s.colors.Read(rows, cols, func(c rgb.Colors) {
		EachPixel(rows, cols, func(row, col, i int) {
			p, ok := s.pinhole.Unproject(row, col, v.Depth(row, col), s.policy)
			if !ok {
				s.msg.IsDense = false
			}
			fs.x.Set(i, float32(p.X))
			fs.y.Set(i, float32(p.Y))
			fs.z.Set(i, float32(p.Z))
			r, g, b := c.At(row, col)
			fs.rgb.SetRGB(i, r, g, b)
		})
	})
	return nil
}

// RGBPointCloudSink copies frames that already hold one colored point per pixel.
// Records are written column by column.
type RGBPointCloudSink struct {
	msg msgs.PointCloud2
}

// NewRGBPointCloudSink returns an RGBPointCloudSink.
func NewRGBPointCloudSink() *RGBPointCloudSink {
	return &RGBPointCloudSink{}
}

// Kind implements Sink.
func (s *RGBPointCloudSink) Kind() activation.Kind { return activation.PointCloud }

// Message implements Sink.
func (s *RGBPointCloudSink) Message() msgs.Message { return &s.msg }

// Fill implements Sink.
func (s *RGBPointCloudSink) Fill(f sensors.Frame[float32]) error {
	v, err := points.New(f)
	if err != nil {
		return err
	}
	rows, cols := v.Rows(), v.Cols()
	fs, err := layoutCloud(&s.msg, rows, cols)
	if err != nil {
		return err
	}
	EachPixelColumnMajor(rows, cols, func(row, col, n int) {
		x, y, z, packed := v.At(row, col)
		if isNaN(x) || isNaN(y) || isNaN(z) {
			s.msg.IsDense = false
		}
		fs.x.Set(n, x)
		fs.y.Set(n, y)
		fs.z.Set(n, z)
		fs.rgb.Set(n, packed)
	})
	return nil
}

func isNaN(v float32) bool {
	return math.IsNaN(float64(v))
}
