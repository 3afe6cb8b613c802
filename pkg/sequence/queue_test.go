package sequence

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("Queue: FIFO order", func(t *testing.T) {
		q := NewQueue[string]()
		require.True(t, q.IsEmpty())

		for i := 0; i < 5; i++ {
			q.Enqueue("m" + strconv.Itoa(i))
		}
		require.Equal(t, 5, q.Len())

		head, ok := q.Peek()
		require.True(t, ok)
		require.Equal(t, "m0", head)

		for i := 0; i < 5; i++ {
			v, ok := q.TryDequeue()
			require.True(t, ok)
			require.Equal(t, "m"+strconv.Itoa(i), v)
		}

		_, ok = q.TryDequeue()
		require.False(t, ok)
		_, ok = q.Peek()
		require.False(t, ok)
	})

	t.Run("Queue: growth across wrap-around", func(t *testing.T) {
		q := NewQueue[int]()
		next := 0
		expect := 0

		// leave the head in the middle of the ring before growing
		for i := 0; i < minQueueCapacity-3; i++ {
			q.Enqueue(next)
			next++
		}
		for i := 0; i < 7; i++ {
			v, ok := q.TryDequeue()
			require.True(t, ok)
			require.Equal(t, expect, v)
			expect++
		}
		for i := 0; i < 5*minQueueCapacity; i++ {
			q.Enqueue(next)
			next++
		}
		for !q.IsEmpty() {
			v, ok := q.TryDequeue()
			require.True(t, ok)
			require.Equal(t, expect, v)
			expect++
		}
		require.Equal(t, next, expect)
	})

	t.Run("Queue: zero value is usable", func(t *testing.T) {
		var q Queue[int]
		q.Enqueue(7)
		v, ok := q.TryDequeue()
		require.True(t, ok)
		require.Equal(t, 7, v)
	})
}

func TestQueueConcurrentProducerConsumer(t *testing.T) {
	const total = 20000
	q := NewQueue[int]()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			q.Enqueue(i)
		}
	}()

	got := make([]int, 0, total)
	for len(got) < total {
		if v, ok := q.TryDequeue(); ok {
			got = append(got, v)
		}
	}
	wg.Wait()

	for i, v := range got {
		require.Equal(t, i, v)
	}
	require.True(t, q.IsEmpty())
}

func BenchmarkQueueEnqueueDequeue(b *testing.B) {
	q := NewQueue[string]()
	for i := 0; i < b.N; i++ {
		q.Enqueue("payload")
		_, _ = q.TryDequeue()
	}
}
