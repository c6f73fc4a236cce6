package activation

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrUnknownKind is returned when a subscription names an output that does not exist.
var ErrUnknownKind = errors.New("unknown output kind")

// Switch is the part of the sensor the controller queries and commands.
type Switch interface {
	IsActive() bool
	SetActive(active bool)
}

// Controller tracks demand per output and keeps the sensor capturing only while
// someone is listening.
type Controller struct {
	sensor Switch
	// mu orders demand transitions with the activation requests they issue.
	// Frame ticks read the counters without it.
	mu     sync.Mutex
	demand Demand
	state  atomic.Int32
	logger golog.Logger
}

// NewController returns a Controller with no demand.
func NewController(sensor Switch, logger golog.Logger) *Controller {
	return &Controller{sensor: sensor, logger: logger}
}

// OnSubscribe counts a subscriber of k. The first subscriber across all outputs
// requests sensor activation.
func (c *Controller) OnSubscribe(k Kind) error {
	if !k.Valid() {
		return errors.Wrapf(ErrUnknownKind, "subscribe to %v", k)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	first := c.demand.Subscribe(k)
	c.logger.Debugw("subscriber connected", "output", k, "count", c.demand.counters[k].Value())
	if first {
		c.logger.Debug("demand appeared, requesting sensor activation")
		c.sensor.SetActive(true)
	}
	return nil
}

// OnUnsubscribe drops a subscriber of k. When no output has demand left the
// sensor is asked to deactivate.
func (c *Controller) OnUnsubscribe(k Kind) error {
	if !k.Valid() {
		return errors.Wrapf(ErrUnknownKind, "unsubscribe from %v", k)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	none := c.demand.Unsubscribe(k)
	count := c.demand.counters[k].Value()
	c.logger.Debugw("subscriber disconnected", "output", k, "count", count)
	if count < 0 {
		c.logger.Warnw("subscriber count went negative", "output", k, "count", count)
	}
	if none {
		c.logger.Debug("no demand left, requesting sensor deactivation")
		c.sensor.SetActive(false)
	}
	return nil
}

// OnFrame must be consulted before any conversion work on a new frame. It issues
// activation or deactivation requests as needed and returns the resulting state;
// the frame should only be converted when the state is Active.
func (c *Controller) OnFrame() State {
	next := Next(c.sensor.IsActive(), c.demand.Any())
	switch next {
	case PendingActivation:
		c.sensor.SetActive(true)
	case PendingDeactivation:
		c.sensor.SetActive(false)
	case Idle, Active:
	}
	if prev := State(c.state.Swap(int32(next))); prev != next {
		c.logger.Debugw("activation state changed", "from", prev, "to", next)
	}
	return next
}

// Wants reports whether output k currently has subscribers.
func (c *Controller) Wants(k Kind) bool {
	return c.demand.Has(k)
}

// State returns the state observed on the most recent frame.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Counts returns the subscriber count of every output.
func (c *Controller) Counts() map[Kind]int64 {
	return c.demand.Snapshot()
}
