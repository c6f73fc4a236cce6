package activation

import (
	"go.uber.org/atomic"
)

// Counter is a subscriber reference count for a single output kind.
//
// The count is not clamped: an unsubscribe without a matching subscribe drives it
// below zero and it stays there until enough subscribes bring it back up. A
// negative count reads as no demand.
type Counter struct {
	n atomic.Int64
}

// Increment adds a subscriber and returns the new count.
func (c *Counter) Increment() int64 {
	return c.n.Inc()
}

// Decrement removes a subscriber and returns the new count.
func (c *Counter) Decrement() int64 {
	return c.n.Dec()
}

// HasDemand reports whether at least one subscriber is counted.
func (c *Counter) HasDemand() bool {
	return c.n.Load() > 0
}

// Value returns the raw count.
func (c *Counter) Value() int64 {
	return c.n.Load()
}

// Demand holds one Counter per output kind.
type Demand struct {
	counters [numKinds]Counter
}

// Subscribe counts a new subscriber of k and reports whether this moved the
// camera from no demand at all to some demand. Concurrent callers must be
// serialized for the report to be exact; Controller does that.
func (d *Demand) Subscribe(k Kind) bool {
	if !k.Valid() {
		return false
	}
	had := d.Any()
	d.counters[k].Increment()
	return !had && d.Any()
}

// Unsubscribe drops a subscriber of k and reports whether no output has demand left.
func (d *Demand) Unsubscribe(k Kind) bool {
	if !k.Valid() {
		return false
	}
	d.counters[k].Decrement()
	return !d.Any()
}

// Has reports whether k has demand.
func (d *Demand) Has(k Kind) bool {
	if !k.Valid() {
		return false
	}
	return d.counters[k].HasDemand()
}

// Any reports whether any output has demand.
func (d *Demand) Any() bool {
	for i := range d.counters {
		if d.counters[i].HasDemand() {
			return true
		}
	}
	return false
}

// Snapshot returns the current count of every kind.
func (d *Demand) Snapshot() map[Kind]int64 {
	out := make(map[Kind]int64, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out[k] = d.counters[k].Value()
	}
	return out
}
