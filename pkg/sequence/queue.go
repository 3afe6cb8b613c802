package sequence

import "sync"

const minQueueCapacity = 16

// Queue is an unbounded FIFO safe for concurrent producers and consumers.
// Enqueue never blocks on the consumer and never drops a value.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
	size  int
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{items: make([]T, minQueueCapacity)}
}

func (q *Queue[T]) Enqueue(value T) {
	q.mu.Lock()
	if q.items == nil {
		q.items = make([]T, minQueueCapacity)
	}
	if q.size == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.size)%len(q.items)] = value
	q.size++
	q.mu.Unlock()
}

// TryDequeue removes the oldest value. It reports false when the queue is empty.
func (q *Queue[T]) TryDequeue() (T, bool) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return zero, false
	}
	value := q.items[q.head]
	q.items[q.head] = zero // release the reference
	q.head = (q.head + 1) % len(q.items)
	q.size--

	if q.size == 0 {
		q.head = 0
		if len(q.items) > 4*minQueueCapacity {
			q.items = make([]T, minQueueCapacity)
		}
	}
	return value, true
}

func (q *Queue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.items[q.head], true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// grow doubles the ring and unwraps it so head is index 0. Caller holds mu.
func (q *Queue[T]) grow() {
	next := make([]T, len(q.items)*2)
	n := copy(next, q.items[q.head:])
	copy(next[n:], q.items[:q.head])
	q.items = next
	q.head = 0
}
