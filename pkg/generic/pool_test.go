package generic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolGenerates(t *testing.T) {
	calls := 0
	p := NewPool(func() int {
		calls++
		return 7
	}, nil)
	require.Equal(t, 7, p.Get())
	require.Equal(t, 1, calls)
}

func TestPoolResetOnPut(t *testing.T) {
	p := NewPool(func() []int { return nil }, func(s []int) []int { return s[:0] })
	p.Put([]int{1, 2, 3})
	// sync.Pool may drop values, but anything it hands back has been reset
	require.Empty(t, p.Get())
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(32)

	buf := p.Get()
	require.Len(t, *buf, 32)

	*buf = (*buf)[:3]
	p.Put(buf)
	require.Len(t, *p.Get(), 32)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := p.Get()
				require.Len(t, *b, 32)
				p.Put(b)
			}
		}()
	}
	wg.Wait()
}
