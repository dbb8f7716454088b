package memcache_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/memcache"
)

func TestAllocateReusesFreedNode(t *testing.T) {
	c := memcache.New(memcache.Config{PageCapacity: 4096, Alignment: 16})

	b1, err := c.Allocate(48)
	require.NoError(t, err)
	require.Len(t, b1.Bytes(), 48)
	c.Deallocate(b1)

	b2, err := c.Allocate(40) // rounds into the same 48-byte class
	require.NoError(t, err)
	require.Len(t, b2.Bytes(), 40)

	// Same class, so the node offset is reused; stats stay flat.
	stats := c.Stats()
	require.Equal(t, 1, stats.TotalPages)
}

func TestAllocateOversizedDelegatesToHeap(t *testing.T) {
	c := memcache.New(memcache.Config{PageCapacity: 256})
	b, err := c.Allocate(4096)
	require.NoError(t, err)
	require.Len(t, b.Bytes(), 4096)
	c.Deallocate(b) // no-op, must not panic
}

func TestZeroLengthAllocateIsReady(t *testing.T) {
	c := memcache.New(memcache.Config{})
	b, err := c.Allocate(0)
	require.NoError(t, err)
	require.Empty(t, b.Bytes())
}

// TestReuseUnderChurn is the spec §8 scenario 5 (MemoryCache reuse): 1000
// objects allocated, freed in random order, then 1000 more allocated; the
// page count must not grow past what a single size class needs.
func TestReuseUnderChurn(t *testing.T) {
	c := memcache.New(memcache.Config{PageCapacity: 4096, Alignment: 16, EmptyPageRetention: 64})

	const n = 1000
	const size = 48

	blocks := make([]memcache.Block, n)
	for i := range blocks {
		b, err := c.Allocate(size)
		require.NoError(t, err)
		blocks[i] = b
	}

	peak := c.Stats().TotalPages
	require.Greater(t, peak, 0)

	order := rand.Perm(n)
	for _, i := range order {
		c.Deallocate(blocks[i])
	}

	for i := range blocks {
		b, err := c.Allocate(size)
		require.NoError(t, err)
		blocks[i] = b
	}

	require.Equal(t, peak, c.Stats().TotalPages, "allocation after churn must not grow the page count")
}

func TestConfigureRejectedAfterUse(t *testing.T) {
	c := memcache.New(memcache.Config{})
	_, err := c.Allocate(8)
	require.NoError(t, err)
	require.Error(t, c.Configure(8192, 4))
}

func TestReserveLazyDoesNotTouchHeap(t *testing.T) {
	c := memcache.New(memcache.Config{PageCapacity: 4096})
	require.NoError(t, c.Reserve(64, 100, true))
	require.Equal(t, 0, c.Stats().TotalPages)
}

func TestReserveEagerPrePopulates(t *testing.T) {
	c := memcache.New(memcache.Config{PageCapacity: 4096, Alignment: 16})
	require.NoError(t, c.Reserve(48, 1000, false))
	require.Greater(t, c.Stats().TotalPages, 0)

	// Allocating up to the reserved count must not grow the page count
	// further.
	before := c.Stats().TotalPages
	for i := 0; i < 1000; i++ {
		_, err := c.Allocate(48)
		require.NoError(t, err)
	}
	require.Equal(t, before, c.Stats().TotalPages)
}
