// Package publish hands filled messages to a transport, one lock per output.
package publish

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/depthcamera/activation"
	"go.viam.com/depthcamera/msgs"
	"go.viam.com/depthcamera/sensors"
	"go.viam.com/depthcamera/sink"
)

// Publisher delivers messages on named topics. Published messages are owned by the
// receiver; callers never touch them again.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg msgs.Message) error
}

// Gate serializes fill and publish of a single output.
type Gate[T sensors.Sample] struct {
	mu      sync.Mutex
	topic   string
	frameID string
	sink    sink.Sink[T]
	pub     Publisher
}

// NewGate returns a Gate publishing what s fills on topic.
func NewGate[T sensors.Sample](topic, frameID string, s sink.Sink[T], pub Publisher) *Gate[T] {
	return &Gate[T]{topic: topic, frameID: frameID, sink: s, pub: pub}
}

// Kind returns the output kind of the underlying sink.
func (g *Gate[T]) Kind() activation.Kind {
	return g.sink.Kind()
}

// Topic returns the topic the gate publishes on.
func (g *Gate[T]) Topic() string {
	return g.topic
}

// Dispatch stamps, fills and publishes a copy of the output message for f.
func (g *Gate[T]) Dispatch(ctx context.Context, stamp time.Time, f sensors.Frame[T]) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	msg := g.sink.Message()
	h := msg.GetHeader()
	h.FrameID = g.frameID
	h.Stamp = stamp
	if err := g.sink.Fill(f); err != nil {
		return errors.Wrapf(err, "failed to fill %q", g.topic)
	}
	if err := g.pub.Publish(ctx, g.topic, msg.Clone()); err != nil {
		return errors.Wrapf(err, "failed to publish %q", g.topic)
	}
	return nil
}

// Fanout publishes every message to each of its publishers.
type Fanout []Publisher

// Publish implements Publisher. Every publisher is tried even if an earlier one fails.
// Publishers after the first receive their own copy.
func (f Fanout) Publish(ctx context.Context, topic string, msg msgs.Message) error {
	var err error
	for i, p := range f {
		m := msg
		if i > 0 {
			m = msg.Clone()
		}
		err = multierr.Append(err, p.Publish(ctx, topic, m))
	}
	return err
}
