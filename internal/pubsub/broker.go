package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultBufferSize = 64

type subscriber[T any] struct {
	ch     chan Event[T]
	filter Filter[T]
	stop   func() bool
}

// Broker delivers every published event to each live subscriber whose filter
// accepts it. Publish never blocks: a subscriber with a full buffer misses
// the event and the miss is counted in Dropped.
type Broker[T any] struct {
	mu         sync.RWMutex
	subs       map[*subscriber[T]]struct{}
	closed     bool
	bufferSize int
	dropped    atomic.Uint64
}

// NewBroker creates a broker whose subscribers buffer 64 events.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a broker with a custom subscriber buffer.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[*subscriber[T]]struct{}),
		bufferSize: max(size, 1),
	}
}

// Subscribe receives every event until ctx is done or the broker closes,
// after which the channel is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	return b.SubscribeFunc(ctx, nil)
}

// SubscribeFunc is Subscribe restricted to payloads accepted by filter. A nil
// filter accepts everything.
func (b *Broker[T]) SubscribeFunc(ctx context.Context, filter Filter[T]) <-chan Event[T] {
	s := &subscriber[T]{ch: make(chan Event[T], b.bufferSize), filter: filter}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s.ch
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	s.stop = context.AfterFunc(ctx, func() { b.remove(s) })
	return s.ch
}

func (b *Broker[T]) remove(s *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.ch)
}

// Publish delivers payload and reports how many subscribers received it.
func (b *Broker[T]) Publish(eventType EventType, payload T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}

	ev := Event[T]{Type: eventType, Payload: payload, Timestamp: time.Now()}
	delivered := 0
	for s := range b.subs {
		if s.filter != nil && !s.filter(payload) {
			continue
		}
		select {
		case s.ch <- ev:
			delivered++
		default:
			b.dropped.Add(1)
		}
	}
	return delivered
}

// Close ends every subscription. Later publishes are ignored.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		if s.stop != nil {
			s.stop()
		}
		close(s.ch)
	}
	b.subs = nil
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *Broker[T]) Dropped() uint64 {
	return b.dropped.Load()
}
