package msgs

import (
	"go.viam.com/depthcamera/unproject"
)

// DistortionPlumbBob is the only distortion model the camera reports.
const DistortionPlumbBob = "plumb_bob"

// CameraInfo carries the calibration of the camera that produced an image.
type CameraInfo struct {
	Header          Header      `msgpack:"header"`
	Height          uint32      `msgpack:"height"`
	Width           uint32      `msgpack:"width"`
	DistortionModel string      `msgpack:"distortion_model"`
	D               []float64   `msgpack:"d"`
	K               [9]float64  `msgpack:"k"`
	R               [9]float64  `msgpack:"r"`
	P               [12]float64 `msgpack:"p"`
}

// Type implements Message.
func (ci *CameraInfo) Type() string { return TypeCameraInfo }

// GetHeader implements Message.
func (ci *CameraInfo) GetHeader() *Header { return &ci.Header }

// Clone implements Message.
func (ci *CameraInfo) Clone() Message {
	out := *ci
	out.D = append([]float64(nil), ci.D...)
	return &out
}

// SetIntrinsics fills the calibration from pinhole intrinsics with no distortion.
func (ci *CameraInfo) SetIntrinsics(in *unproject.Intrinsics) {
	ci.Height = uint32(in.Height)
	ci.Width = uint32(in.Width)
	ci.DistortionModel = DistortionPlumbBob
	ci.D = append(ci.D[:0], 0, 0, 0, 0, 0)
	copy(ci.K[:], unproject.Flatten(in.K()))
	copy(ci.R[:], unproject.Flatten(in.R()))
	copy(ci.P[:], unproject.Flatten(in.P()))
}
