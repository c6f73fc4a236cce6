package publish

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/depthcamera/msgs"
)

// ErrAlreadyAdvertised is returned when a topic is advertised twice.
var ErrAlreadyAdvertised = errors.New("topic is already advertised")

type topic struct {
	advertised   bool
	onConnect    func()
	onDisconnect func()
	subs         map[*Subscription]struct{}
}

// Bus is an in-process Publisher. Advertised topics get a callback every time a
// subscriber connects or disconnects.
type Bus struct {
	mu      sync.Mutex
	topics  map[string]*topic
	dropped atomic.Int64
	logger  golog.Logger
}

// NewBus returns an empty Bus.
func NewBus(logger golog.Logger) *Bus {
	return &Bus{topics: map[string]*topic{}, logger: logger}
}

func (b *Bus) topicLocked(name string) *topic {
	t, ok := b.topics[name]
	if !ok {
		t = &topic{subs: map[*Subscription]struct{}{}}
		b.topics[name] = t
	}
	return t
}

// Advertise registers callbacks for subscriber changes on name. Subscribers that
// are already connected are reported to onConnect right away.
func (b *Bus) Advertise(name string, onConnect, onDisconnect func()) error {
	b.mu.Lock()
	t := b.topicLocked(name)
	if t.advertised {
		b.mu.Unlock()
		return errors.Wrap(ErrAlreadyAdvertised, name)
	}
	t.advertised = true
	t.onConnect = onConnect
	t.onDisconnect = onDisconnect
	existing := len(t.subs)
	b.mu.Unlock()

	b.logger.Debugw("advertised topic", "topic", name, "subscribers", existing)
	if onConnect != nil {
		for i := 0; i < existing; i++ {
			onConnect()
		}
	}
	return nil
}

// Subscribe connects a new subscriber to name. Messages that do not fit in the
// buffer are dropped.
func (b *Bus) Subscribe(name string, buffer int) *Subscription {
	c := make(chan msgs.Message, buffer)
	s := &Subscription{Topic: name, C: c, c: c, bus: b}

	b.mu.Lock()
	t := b.topicLocked(name)
	t.subs[s] = struct{}{}
	onConnect := t.onConnect
	b.mu.Unlock()

	if onConnect != nil {
		onConnect()
	}
	return s
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	t, ok := b.topics[s.Topic]
	if !ok {
		b.mu.Unlock()
		return
	}
	if _, ok := t.subs[s]; !ok {
		b.mu.Unlock()
		return
	}
	delete(t.subs, s)
	close(s.c)
	onDisconnect := t.onDisconnect
	b.mu.Unlock()

	if onDisconnect != nil {
		onDisconnect()
	}
}

// NumSubscribers returns the number of subscribers connected to name.
func (b *Bus) NumSubscribers(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[name]; ok {
		return len(t.subs)
	}
	return 0
}

// Dropped returns how many deliveries were dropped on full subscriber buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Publish implements Publisher. Subscribers share msg and must not modify it.
func (b *Bus) Publish(ctx context.Context, name string, msg msgs.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[name]
	if !ok {
		return nil
	}
	for s := range t.subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.c <- msg:
		default:
			b.dropped.Inc()
		}
	}
	return nil
}

// Subscription is one subscriber connected to a Bus topic.
type Subscription struct {
	Topic string
	C     <-chan msgs.Message

	c    chan msgs.Message
	bus  *Bus
	once sync.Once
}

// Close disconnects the subscriber and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.bus.unsubscribe(s) })
}
