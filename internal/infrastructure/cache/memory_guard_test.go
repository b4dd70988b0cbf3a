package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimFirstWins(t *testing.T) {
	g := NewMemorySubmissionGuard()
	defer g.Close()

	ctx := context.Background()

	claimed, err := g.Claim(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = g.Claim(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	held, err := g.IsClaimed(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestReleaseAllowsReclaim(t *testing.T) {
	g := NewMemorySubmissionGuard()
	defer g.Close()

	ctx := context.Background()

	claimed, err := g.Claim(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, g.Release(ctx, "key-1"))

	held, err := g.IsClaimed(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, held)

	claimed, err = g.Claim(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestExpiredClaimCanBeRetaken(t *testing.T) {
	g := NewMemorySubmissionGuard()
	defer g.Close()

	ctx := context.Background()

	claimed, err := g.Claim(ctx, "key-1", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, claimed)

	time.Sleep(20 * time.Millisecond)

	held, err := g.IsClaimed(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, held)

	claimed, err = g.Claim(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	g := NewMemorySubmissionGuard()
	defer g.Close()

	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := g.Claim(ctx, "contested", time.Minute)
			assert.NoError(t, err)
			if claimed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestCleanupRemovesExpiredClaims(t *testing.T) {
	g := NewMemorySubmissionGuard()
	defer g.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := g.Claim(ctx, fmt.Sprintf("key-%d", i), 5*time.Millisecond)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, g.Size())

	time.Sleep(10 * time.Millisecond)
	g.cleanup()
	assert.Equal(t, 0, g.Size())
}

func TestCloseIsIdempotent(t *testing.T) {
	g := NewMemorySubmissionGuard()
	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
}
