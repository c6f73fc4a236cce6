package fake

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/depthcamera/sensors"
	"go.viam.com/depthcamera/sensors/points"
	"go.viam.com/depthcamera/unproject"
)

// Scene is a wall facing the camera with a ball floating in front of it.
type Scene struct {
	Wall       float64
	BallCenter r3.Vector
	BallRadius float64
	WallColor  [3]uint8
	BallColor  [3]uint8
	Width      int
	Height     int
	HFOV       float64
}

// DefaultScene returns a small scene where every ray hits something beyond the
// default cutoff.
func DefaultScene(width, height int, hfov float64) Scene {
	return Scene{
		Wall:       3,
		BallCenter: r3.Vector{X: 0, Y: 0, Z: 2},
		BallRadius: 0.5,
		WallColor:  [3]uint8{128, 128, 128},
		BallColor:  [3]uint8{200, 30, 30},
		Width:      width,
		Height:     height,
		HFOV:       hfov,
	}
}

type hit struct {
	point  r3.Vector
	normal r3.Vector
	color  [3]uint8
	ok     bool
}

func (s Scene) trace(row, col int, fl float64) hit {
	dir := r3.Vector{
		X: math.Tan(unproject.Angle(col, s.Width, fl)),
		Y: math.Tan(unproject.Angle(row, s.Height, fl)),
		Z: 1,
	}
	// ray p = t*dir, dir.Z is 1 so t is the depth
	oc := s.BallCenter
	a := dir.Dot(dir)
	b := -2 * dir.Dot(oc)
	c := oc.Dot(oc) - s.BallRadius*s.BallRadius
	if disc := b*b - 4*a*c; disc >= 0 {
		t := (-b - math.Sqrt(disc)) / (2 * a)
		if t > 0 && t < s.Wall {
			p := dir.Mul(t)
			return hit{point: p, normal: p.Sub(s.BallCenter).Normalize(), color: s.BallColor, ok: true}
		}
	}
	if s.Wall <= 0 {
		return hit{}
	}
	return hit{point: dir.Mul(s.Wall), normal: r3.Vector{Z: -1}, color: s.WallColor, ok: true}
}

func (s Scene) each(fn func(row, col int, h hit)) {
	fl := unproject.FocalLength(s.Width, s.HFOV)
	for row := 0; row < s.Height; row++ {
		for col := 0; col < s.Width; col++ {
			fn(row, col, s.trace(row, col, fl))
		}
	}
}

// Depth renders a range frame. Missed rays read as +Inf.
func (s Scene) Depth() sensors.Frame[float32] {
	data := make([]float32, s.Width*s.Height)
	s.each(func(row, col int, h hit) {
		d := float32(math.Inf(1))
		if h.ok {
			d = float32(h.point.Z)
		}
		data[row*s.Width+col] = d
	})
	return sensors.Frame[float32]{Data: data, Width: s.Width, Height: s.Height, Channels: 1, Format: sensors.FormatFloat32}
}

// Normals renders surface normals as four floats per pixel, the fourth unused.
func (s Scene) Normals() sensors.Frame[float32] {
	data := make([]float32, s.Width*s.Height*4)
	s.each(func(row, col int, h hit) {
		i := (row*s.Width + col) * 4
		data[i] = float32(h.normal.X)
		data[i+1] = float32(h.normal.Y)
		data[i+2] = float32(h.normal.Z)
	})
	return sensors.Frame[float32]{Data: data, Width: s.Width, Height: s.Height, Channels: 4, Format: sensors.FormatFloat32}
}

// Color renders an 8 bit rgb frame.
func (s Scene) Color() sensors.Frame[uint8] {
	data := make([]uint8, s.Width*s.Height*3)
	s.each(func(row, col int, h hit) {
		i := (row*s.Width + col) * 3
		copy(data[i:i+3], h.color[:])
	})
	return sensors.Frame[uint8]{Data: data, Width: s.Width, Height: s.Height, Channels: 3, Format: sensors.FormatRGB8}
}

// Points renders the colored point frame a sensor with its own unprojection delivers.
func (s Scene) Points() sensors.Frame[float32] {
	data := make([]float32, s.Width*s.Height*points.Stride)
	s.each(func(row, col int, h hit) {
		i := (row*s.Width + col) * points.Stride
		data[i] = float32(h.point.X)
		data[i+1] = float32(h.point.Y)
		data[i+2] = float32(h.point.Z)
		data[i+3] = points.Pack(h.color[0], h.color[1], h.color[2])
	})
	return sensors.Frame[float32]{Data: data, Width: s.Width, Height: s.Height, Channels: points.Stride, Format: sensors.FormatFloat32}
}
