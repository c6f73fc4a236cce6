// Package sensors defines the boundary with the simulated sensor: the frames it
// delivers and the few controls it exposes.
package sensors

import (
	"time"
)

// Sample is an element type a frame buffer can carry.
type Sample interface {
	~float32 | ~uint8
}

// Format is the pixel format tag reported by the sensor. It is carried along with
// the frame but never branched on.
type Format string

// Formats reported by the simulated depth camera.
const (
	FormatFloat32 Format = "FLOAT32"
	FormatRGB8    Format = "R8G8B8"
	FormatL8      Format = "L8"
)

// Frame is one delivered sample grid. The buffer belongs to the sensor and is only
// valid for the duration of the callback it was passed to; anything that outlives
// the callback must be copied out.
type Frame[T Sample] struct {
	Data     []T
	Width    int
	Height   int
	Channels int
	Format   Format
}

// Valid reports whether the frame has a usable size.
func (f Frame[T]) Valid() bool {
	return f.Width > 0 && f.Height > 0
}

// Source is the simulated sensor the camera converts frames from.
type Source interface {
	// HorizontalFOV returns the horizontal field of view in radians.
	HorizontalFOV() float64
	// IsActive reports whether the sensor is currently capturing.
	IsActive() bool
	// SetActive asks the sensor to start or stop capturing.
	SetActive(active bool)
	// LastMeasurementTime returns the capture time of the latest frame.
	LastMeasurementTime() time.Time
}
