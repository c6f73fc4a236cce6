// Package fake implements a simulated depth sensor and a synthetic scene to feed it.
package fake

import (
	"math"
	"sync"
	"time"
)

// DefaultHFOV is the horizontal field of view of a Sensor built with a zero HFOV.
const DefaultHFOV = 1.047

// Sensor is an in-memory sensors.Source. Like a simulated sensor, a SetActive request
// only takes effect on the next Tick, so the frame delivered on the same tick as a
// request still reflects the old state.
type Sensor struct {
	mu          sync.Mutex
	hfov        float64
	active      bool
	requested   *bool
	now         time.Time
	activations int
	requests    []bool
}

// NewSensor returns an inactive sensor with the given field of view in radians.
func NewSensor(hfov float64, start time.Time) *Sensor {
	if hfov <= 0 || math.IsNaN(hfov) {
		hfov = DefaultHFOV
	}
	return &Sensor{hfov: hfov, now: start}
}

// HorizontalFOV returns the field of view in radians.
func (s *Sensor) HorizontalFOV() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hfov
}

// IsActive reports the committed capture state.
func (s *Sensor) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive records a request to be applied on the next Tick.
func (s *Sensor) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requested = &active
	s.requests = append(s.requests, active)
}

// LastMeasurementTime returns the time of the latest tick.
func (s *Sensor) LastMeasurementTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Tick advances the clock by d and commits any pending request.
func (s *Sensor) Tick(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
	if s.requested == nil {
		return
	}
	if *s.requested && !s.active {
		s.activations++
	}
	s.active = *s.requested
	s.requested = nil
}

// Activations returns how many times the sensor went from inactive to active.
func (s *Sensor) Activations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activations
}

// Requests returns every SetActive argument received so far.
func (s *Sensor) Requests() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.requests...)
}
