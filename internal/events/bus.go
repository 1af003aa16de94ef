package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Observer counts bus traffic.
type Observer interface {
	NotificationPublished(kind string)
	NotificationDropped(kind string)
}

// Bus is an in-process publish/subscribe hub. Publish never blocks: a
// subscriber whose buffer is full misses the notification.
type Bus struct {
	mu       sync.RWMutex
	subs     map[uint64]*Subscription
	nextID   uint64
	dropped  atomic.Uint64
	observer Observer
	now      func() time.Time
}

// NewBus constructs an empty bus. observer may be nil.
func NewBus(observer Observer) *Bus {
	return &Bus{
		subs:     make(map[uint64]*Subscription),
		observer: observer,
		now:      time.Now,
	}
}

// Subscription receives notifications matching its filter until closed.
type Subscription struct {
	id     uint64
	filter Filter
	ch     chan Notification
	bus    *Bus
	once   sync.Once
}

// C is the receive channel. It is closed by Close.
func (s *Subscription) C() <-chan Notification { return s.ch }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

// Subscribe registers a subscriber with the given buffer size.
func (b *Bus) Subscribe(filter Filter, buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{id: b.nextID, filter: filter, ch: make(chan Notification, buffer), bus: b}
	b.subs[sub.id] = sub
	return sub
}

// SubscribeContext is Subscribe with Close tied to ctx.
func (b *Bus) SubscribeContext(ctx context.Context, filter Filter, buffer int) *Subscription {
	sub := b.Subscribe(filter, buffer)
	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub
}

// Publish delivers n to every matching subscriber. A zero At is stamped.
func (b *Bus) Publish(n Notification) {
	if n.At.IsZero() {
		n.At = b.now().UTC()
	}
	kind := n.Kind.String()
	if b.observer != nil {
		b.observer.NotificationPublished(kind)
	}

	// The read lock also keeps Close from closing a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.filter.Match(n) {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			b.dropped.Add(1)
			if b.observer != nil {
				b.observer.NotificationDropped(kind)
			}
		}
	}
}

// Dropped returns the number of notifications lost to full buffers.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
