// Package rgb keeps the most recent color frame so that points can be colored
// with the pixel they were unprojected from.
package rgb

import (
	"sync"

	"go.viam.com/depthcamera/sensors"
)

// Layout is how a color buffer is interpreted for a given grid size.
type Layout int

const (
	// None means the buffer does not match the grid and points are black.
	None Layout = iota
	// Mono is one byte per pixel, replicated into r, g and b.
	Mono
	// RGB is three bytes per pixel.
	RGB
)

// LayoutFor returns the layout of an n byte color buffer for a rows x cols grid.
func LayoutFor(n, rows, cols int) Layout {
	switch n {
	case rows * cols * 3:
		return RGB
	case rows * cols:
		// TODO: a single channel buffer may be bayer encoded; it is treated as grayscale.
		return Mono
	default:
		return None
	}
}

// Store holds a copy of the latest color frame.
type Store struct {
	mu       sync.RWMutex
	data     []byte
	width    int
	height   int
	channels int
	format   sensors.Format
}

// Update copies f into the store. Invalid frames are ignored.
func (s *Store) Update(f sensors.Frame[uint8]) {
	if !f.Valid() {
		return
	}
	n := len(f.Data)
	if want := f.Width * f.Height * f.Channels; f.Channels > 0 && n > want {
		n = want
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap(s.data) < n {
		s.data = make([]byte, n)
	}
	s.data = s.data[:n]
	copy(s.data, f.Data)
	s.width, s.height, s.channels, s.format = f.Width, f.Height, f.Channels, f.Format
}

// Frame returns the stored frame. The data aliases the store and must not be held
// past a later Update.
func (s *Store) Frame() sensors.Frame[uint8] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sensors.Frame[uint8]{
		Data:     s.data,
		Width:    s.width,
		Height:   s.height,
		Channels: s.channels,
		Format:   s.format,
	}
}

// Read calls fn with the colors for a rows x cols grid while holding the store
// read lock.
func (s *Store) Read(rows, cols int, fn func(c Colors)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(Colors{data: s.data, cols: cols, layout: LayoutFor(len(s.data), rows, cols)})
}

// Colors samples a color buffer with the same row-major addressing as the depth grid.
type Colors struct {
	data   []byte
	cols   int
	layout Layout
}

// Layout returns how the buffer is being read.
func (c Colors) Layout() Layout {
	return c.layout
}

// At returns the color of pixel (row, col).
func (c Colors) At(row, col int) (r, g, b uint8) {
	switch c.layout {
	case RGB:
		i := (row*c.cols + col) * 3
		return c.data[i], c.data[i+1], c.data[i+2]
	case Mono:
		v := c.data[row*c.cols+col]
		return v, v, v
	case None:
	}
	return 0, 0, 0
}
