package reactor_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/reactor"
)

type noopObject struct {
	initCh chan struct{}
	inits  int32
}

func (o *noopObject) OnInit(ctx api.Context) {
	if atomic.AddInt32(&o.inits, 1) == 1 && o.initCh != nil {
		close(o.initCh)
	}
}

func startReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	r, err := reactor.New(reactor.Config{})
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run()
	}()
	t.Cleanup(func() {
		r.Stop()
		<-done
		_ = r.Close()
	})
	return r
}

func TestObjectInitDispatchedOnce(t *testing.T) {
	r := startReactor(t)
	obj := &noopObject{initCh: make(chan struct{})}
	id, err := r.Register(obj)
	require.NoError(t, err)

	select {
	case <-obj.initCh:
	case <-time.After(time.Second):
		t.Fatal("OnInit was never dispatched")
	}

	// Each post is drained on a later loop iteration than the previous one
	// ran in, so after two round trips at least one further iteration,
	// including its init step, has completed.
	for i := 0; i < 2; i++ {
		var wg sync.WaitGroup
		wg.Add(1)
		require.NoError(t, r.Post(id, func(api.Context) { wg.Done() }))
		waitGroupTimeout(t, &wg, time.Second)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&obj.inits), "OnInit must be dispatched exactly once")
}

// TestGenerationDrop is spec §8 scenario 6: a PostedEvent addressed to an
// Object id whose generation has since moved on (the slot was reused by a
// different Object) is silently dropped instead of running against the new
// occupant.
func TestGenerationDrop(t *testing.T) {
	r := startReactor(t)

	obj1 := &noopObject{}
	id1, err := r.Register(obj1)
	require.NoError(t, err)
	require.NoError(t, r.Unregister(id1))

	obj2 := &noopObject{}
	id2, err := r.Register(obj2)
	require.NoError(t, err)
	require.Equal(t, id1.Slot, id2.Slot, "slot must be reused for this assertion to be meaningful")
	require.NotEqual(t, id1.Gen, id2.Gen)

	var mu sync.Mutex
	fired := false
	require.NoError(t, r.Post(id1, func(ctx api.Context) {
		mu.Lock()
		fired = true
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, r.Post(id2, func(ctx api.Context) { wg.Done() }))
	waitGroupTimeout(t, &wg, time.Second)

	mu.Lock()
	require.False(t, fired, "stale-generation posted event must be dropped")
	mu.Unlock()
}

func waitGroupTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out")
	}
}
