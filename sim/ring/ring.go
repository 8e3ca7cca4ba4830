// Package ring provides a fixed-capacity buffer decoupling a producer that
// must never block from a consumer that waits for work.
package ring

import "sync"

// Buffer is a circular FIFO of at most Cap() items. TryPush never blocks;
// Pop blocks until an item is available or the buffer is shut down and
// drained. Safe for concurrent use.
type Buffer[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []T
	head     int // index of the oldest item
	size     int
	closed   bool
}

// New creates a Buffer holding at most capacity items.
// Panics if capacity < 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		panic("ring.New: capacity must be >= 1")
	}
	b := &Buffer[T]{items: make([]T, capacity)}
	b.notEmpty = sync.NewCond(&b.mu)
	return b
}

// TryPush appends v and reports success. It fails without blocking when the
// buffer is full or has been shut down.
func (b *Buffer[T]) TryPush(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.size == len(b.items) {
		return false
	}
	b.items[(b.head+b.size)%len(b.items)] = v
	b.size++
	b.notEmpty.Signal()
	return true
}

// Pop removes the oldest item, blocking while the buffer is empty and open.
// It returns false only once the buffer is shut down and empty.
func (b *Buffer[T]) Pop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.size == 0 && !b.closed {
		b.notEmpty.Wait()
	}
	return b.take()
}

// TryPop removes the oldest item without blocking.
func (b *Buffer[T]) TryPop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.take()
}

func (b *Buffer[T]) take() (T, bool) {
	var zero T
	if b.size == 0 {
		return zero, false
	}
	v := b.items[b.head]
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.size--
	return v, true
}

// Shutdown stops the buffer accepting items and wakes every blocked Pop.
// Items already buffered stay poppable. Idempotent.
func (b *Buffer[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.notEmpty.Broadcast()
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Closed reports whether Shutdown has been called.
func (b *Buffer[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
