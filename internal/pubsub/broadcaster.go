// Package pubsub provides the observer registry that the snapshot caches own.
// Subscribing returns an explicit unsubscribe handle, so teardown never leaks
// listeners into a module-level registry.
package pubsub

import "sync"

type Broadcaster[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(T)
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{listeners: make(map[int]func(T))}
}

// Subscribe registers fn and returns its unsubscribe handle. The handle is
// safe to call more than once.
func (b *Broadcaster[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish calls every registered listener synchronously with v.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	fns := make([]func(T), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len reports the current listener count.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
