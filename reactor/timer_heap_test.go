package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/api"
)

func TestTimerHeapOrdersByDeadlineThenSequence(t *testing.T) {
	h := NewTimerHeap()
	base := time.Now()

	var order []int
	h.Add(base.Add(2*time.Millisecond), func(api.Context) { order = append(order, 2) })
	h.Add(base.Add(1*time.Millisecond), func(api.Context) { order = append(order, 1) })
	h.Add(base.Add(1*time.Millisecond), func(api.Context) { order = append(order, 3) })

	expired := h.PopExpired(base.Add(5 * time.Millisecond))
	require.Len(t, expired, 3)
	for _, e := range expired {
		e.fn(nil)
	}
	require.Equal(t, []int{1, 3, 2}, order, "equal deadlines must fire in insertion order")
}

func TestTimerHeapCancel(t *testing.T) {
	h := NewTimerHeap()
	e := h.Add(time.Now().Add(time.Hour), func(api.Context) {})
	require.Equal(t, 1, h.Len())
	require.True(t, h.Cancel(e))
	require.Equal(t, 0, h.Len())
	require.False(t, h.Cancel(e), "canceling twice must be a no-op")
}

func TestTimerHeapNextDeadline(t *testing.T) {
	h := NewTimerHeap()
	_, ok := h.NextDeadline()
	require.False(t, ok)

	d := time.Now().Add(10 * time.Millisecond)
	h.Add(d, func(api.Context) {})
	got, ok := h.NextDeadline()
	require.True(t, ok)
	require.True(t, got.Equal(d))
}
