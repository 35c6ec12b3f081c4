// This file implements a lock-free Multi-Producer Single-Consumer (MPSC) queue.
//
// Benchmark workers push their outcome here without blocking each other or
// the engine; the run coordinator is the single consumer.
//
//   - Lock-Free: producers only use atomic operations
//   - Unbounded: Push never blocks and never drops an item while the queue is open
//   - Single Consumer: values are collected with Drain()
//   - No Strict FIFO Guarantee between concurrent producers
package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is one element of the linked list
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// MPSCQueue is a lock-free multi-producer single-consumer queue backed by a
// linked list with a sentinel head node.
type MPSCQueue[T any] struct {
	head     atomic.Pointer[node[T]]
	tail     atomic.Pointer[node[T]]
	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool

	// wakes the consumer goroutine when new items arrive
	mu   sync.Mutex
	cond *sync.Cond
}

// NewMPSCQueue creates an open queue and starts its delivery goroutine.
func NewMPSCQueue[T any]() *MPSCQueue[T] {
	sentinel := &node[T]{}

	q := &MPSCQueue[T]{
		out: make(chan *T),
	}
	q.cond = sync.NewCond(&q.mu)

	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.consume()

	return q
}

// Push adds an item to the queue.
// Returns false if value is nil or the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *MPSCQueue[T]) Push(value *T) bool {
	if value == nil || q.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}

	var backoff uint8 = 0
	for {
		tailNode := q.tail.Load()

		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already moved the tail, which is fine
				q.tail.CompareAndSwap(tailNode, newNode)

				q.mu.Lock()
				q.cond.Signal()
				q.mu.Unlock()
				return true
			}
		} else {
			// help a producer that appended but did not move the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// exponential backoff: spin briefly, then yield
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// consume moves items from the linked list to the output channel until the
// queue is closed and empty.
func (q *MPSCQueue[T]) consume() {
	defer q.consumer.Done()
	defer close(q.out)

	for {
		hasItems := false

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			hasItems = true

			value := next.value
			q.head.Store(next)
			q.out <- value
			next.value = nil
		}

		if !hasItems && q.closed.Load() {
			return
		}

		if !hasItems {
			q.mu.Lock()
			// re-check under the lock so a concurrent Signal is not lost
			if q.head.Load().next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Close stops accepting new items. Items already queued are still delivered.
func (q *MPSCQueue[T]) Close() {
	q.closed.Store(true)

	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// Drain closes the queue and returns every item that was pushed before.
// It must only be called once all producers are done.
func (q *MPSCQueue[T]) Drain() []*T {
	q.Close()

	var items []*T
	for item := range q.out {
		items = append(items, item)
	}
	q.consumer.Wait()
	return items
}
