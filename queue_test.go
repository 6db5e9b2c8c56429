package snowtrack

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_EnqueueDequeueFIFO(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Event{"e": "pv"})
	q.Enqueue(Event{"e": "se"})

	first, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, "pv", first["e"])

	second, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, "se", second["e"])

	_, ok = q.Dequeue()
	require.False(t, ok)
}

func TestQueue_RequeuePreservesOrderAtFront(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Event{"e": "ue"})

	q.Requeue([]Event{{"e": "pv"}, {"e": "se"}})

	events := q.ToSlice()
	require.Equal(t, "pv", events[0]["e"])
	require.Equal(t, "se", events[1]["e"])
	require.Equal(t, "ue", events[2]["e"])
}

func TestQueue_ClearAndLen(t *testing.T) {
	q := NewQueue()
	require.True(t, q.IsEmpty())

	q.Enqueue(Event{"e": "pv"})
	require.Equal(t, 1, q.Len())

	q.Clear()
	require.True(t, q.IsEmpty())
}

func TestQueue_LoadFromSliceReplacesContents(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Event{"e": "old"})

	q.LoadFromSlice([]Event{{"e": "pv"}, {"e": "se"}})

	require.Equal(t, 2, q.Len())
	first, _ := q.Dequeue()
	require.Equal(t, "pv", first["e"])
}

func TestQueue_ConcurrentAccess(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			q.Enqueue(Event{"e": "se", "se_va": strconv.Itoa(n)})
		}(i)
	}
	wg.Wait()

	require.Equal(t, 50, q.Len())
}
