package sink

import (
	"go.viam.com/depthcamera/activation"
	"go.viam.com/depthcamera/msgs"
	"go.viam.com/depthcamera/sensors"
	"go.viam.com/depthcamera/unproject"
)

// CameraInfoSink describes the camera that produced a frame. Only the frame size
// is read.
type CameraInfoSink[T sensors.Sample] struct {
	kind activation.Kind
	hfov func() float64
	msg  msgs.CameraInfo
}

// NewCameraInfoSink returns a CameraInfoSink gated by kind.
func NewCameraInfoSink[T sensors.Sample](kind activation.Kind, hfov func() float64) *CameraInfoSink[T] {
	return &CameraInfoSink[T]{kind: kind, hfov: hfov}
}

// Kind implements Sink.
func (s *CameraInfoSink[T]) Kind() activation.Kind { return s.kind }

// Message implements Sink.
func (s *CameraInfoSink[T]) Message() msgs.Message { return &s.msg }

// Fill implements Sink.
func (s *CameraInfoSink[T]) Fill(f sensors.Frame[T]) error {
	in, err := unproject.IntrinsicsFromFOV(f.Width, f.Height, s.hfov())
	if err != nil {
		return err
	}
	s.msg.SetIntrinsics(in)
	return nil
}
