package realtime

import (
	"context"
	"slices"
	"sync"
)

type memorySub struct {
	id      uint64
	handler Handler
}

// MemoryBus is an in-process bus for single-node deployments and tests.
// Publish delivers synchronously, in subscription order, on the caller's goroutine.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]memorySub
	closed bool
}

// NewMemoryBus constructs an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]memorySub)}
}

func (b *MemoryBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	subs := slices.Clone(b.subs[channel])
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(slices.Clone(payload))
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, channel string, handler Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.nextID++
	id := b.nextID
	b.subs[channel] = append(b.subs[channel], memorySub{id: id, handler: handler})

	return subscriptionFunc(func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		remaining := slices.DeleteFunc(slices.Clone(b.subs[channel]), func(s memorySub) bool { return s.id == id })
		if len(remaining) == 0 {
			delete(b.subs, channel)
		} else {
			b.subs[channel] = remaining
		}
		return nil
	}), nil
}

// Subscribers reports how many handlers are attached to channel.
func (b *MemoryBus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]memorySub)
	return nil
}
