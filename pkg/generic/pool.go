package generic

import "sync"

// Pool is a typed sync.Pool. The optional reset hook runs on every Put.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T) T
}

func NewPool[T any](generate func() T, reset func(T) T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
		reset: reset,
	}
}

// NewBufferPool returns a pool of byte slices of length size. Each reader
// takes one buffer for the lifetime of its connection.
func NewBufferPool(size int) *Pool[*[]byte] {
	return NewPool(func() *[]byte {
		buf := make([]byte, size)
		return &buf
	}, func(buf *[]byte) *[]byte {
		if cap(*buf) < size {
			*buf = make([]byte, size)
		}
		*buf = (*buf)[:size]
		return buf
	})
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		value = p.reset(value)
	}
	p.pool.Put(value)
}
