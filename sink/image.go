package sink

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/depthcamera/activation"
	"go.viam.com/depthcamera/msgs"
	"go.viam.com/depthcamera/sensors"
	"go.viam.com/depthcamera/sensors/depth"
	"go.viam.com/depthcamera/unproject"
)

// DepthSink writes the range of every pixel, or NaN where the policy rejects it.
type DepthSink struct {
	policy unproject.Policy
	msg    msgs.Image
}

// NewDepthSink returns a DepthSink applying policy.
func NewDepthSink(policy unproject.Policy) *DepthSink {
	return &DepthSink{policy: policy}
}

// Kind implements Sink.
func (s *DepthSink) Kind() activation.Kind { return activation.DepthImage }

// Message implements Sink.
func (s *DepthSink) Message() msgs.Message { return &s.msg }

// Fill implements Sink.
func (s *DepthSink) Fill(f sensors.Frame[float32]) error {
	v, err := depth.New(f)
	if err != nil {
		return err
	}
	if err := s.msg.Resize(v.Rows(), v.Cols(), msgs.Encoding32FC1); err != nil {
		return err
	}
	nan := float32(math.NaN())
	EachPixel(v.Rows(), v.Cols(), func(row, col, i int) {
		d := v.Depth(row, col)
		if s.policy.Valid(d) {
			s.msg.SetFloat32(i, float32(d))
		} else {
			s.msg.SetFloat32(i, nan)
		}
	})
	return nil
}

// NormalsStride is the number of floats per pixel in a normals frame.
const NormalsStride = 4

// NormalsSink copies four floats per pixel without filtering.
type NormalsSink struct {
	msg msgs.Image
}

// NewNormalsSink returns a NormalsSink.
func NewNormalsSink() *NormalsSink {
	return &NormalsSink{}
}

// Kind implements Sink.
func (s *NormalsSink) Kind() activation.Kind { return activation.NormalsImage }

// Message implements Sink.
func (s *NormalsSink) Message() msgs.Message { return &s.msg }

// Fill implements Sink.
func (s *NormalsSink) Fill(f sensors.Frame[float32]) error {
	v, err := sensors.FrameView(f, NormalsStride)
	if err != nil {
		return err
	}
	if err := s.msg.Resize(v.Rows(), v.Cols(), msgs.Encoding32FC4); err != nil {
		return err
	}
	s.msg.CopyFloat32s(v.Samples())
	return nil
}

// ColorImageSink copies an 8 bit color or grayscale frame.
type ColorImageSink struct {
	msg msgs.Image
}

// NewColorImageSink returns a ColorImageSink.
func NewColorImageSink() *ColorImageSink {
	return &ColorImageSink{}
}

// Kind implements Sink.
func (s *ColorImageSink) Kind() activation.Kind { return activation.ColorImage }

// Message implements Sink.
func (s *ColorImageSink) Message() msgs.Message { return &s.msg }

// Fill implements Sink.
func (s *ColorImageSink) Fill(f sensors.Frame[uint8]) error {
	var encoding string
	switch f.Channels {
	case 3:
		encoding = msgs.EncodingRGB8
	case 1:
		encoding = msgs.EncodingMono8
	default:
		return errors.Errorf("unsupported color frame with %d channels", f.Channels)
	}
	v, err := sensors.FrameView(f, f.Channels)
	if err != nil {
		return err
	}
	if err := s.msg.Resize(v.Rows(), v.Cols(), encoding); err != nil {
		return err
	}
	copy(s.msg.Data, v.Samples())
	return nil
}
