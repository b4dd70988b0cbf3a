package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dealdesk/backend/internal/domain/shared"
)

// claim represents a held submission key with expiration
type claim struct {
	expiresAt time.Time
}

// MemorySubmissionGuard implements SubmissionGuard using an in-memory map.
// Suitable for single-instance deployments and testing; claims are not
// shared across processes.
type MemorySubmissionGuard struct {
	mu        sync.RWMutex
	claims    map[string]claim
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemorySubmissionGuard creates an in-memory guard and starts a background
// goroutine that cleans up expired claims.
func NewMemorySubmissionGuard() *MemorySubmissionGuard {
	g := &MemorySubmissionGuard{
		claims:   make(map[string]claim),
		stopChan: make(chan struct{}),
	}

	g.wg.Add(1)
	go g.cleanupLoop()

	return g
}

// Claim marks a submission key as in flight with a TTL.
// Returns true if the key was newly claimed, false if it was already held.
func (g *MemorySubmissionGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, exists := g.claims[key]; exists {
		if time.Now().Before(c.expiresAt) {
			return false, nil // Already in flight
		}
		// Claim exists but expired, will be overwritten
	}

	g.claims[key] = claim{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// Release frees a claimed key so the same draft can be resubmitted
func (g *MemorySubmissionGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, key)
	return nil
}

// IsClaimed reports whether a submission key is currently held
func (g *MemorySubmissionGuard) IsClaimed(ctx context.Context, key string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, exists := g.claims[key]
	if !exists {
		return false, nil
	}
	if time.Now().After(c.expiresAt) {
		return false, nil // Expired, treat as not held
	}

	return true, nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (g *MemorySubmissionGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired claims
func (g *MemorySubmissionGuard) cleanupLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

// cleanup removes expired claims from the guard
func (g *MemorySubmissionGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, c := range g.claims {
		if now.After(c.expiresAt) {
			delete(g.claims, key)
		}
	}
}

// Size returns the number of held claims (for testing/monitoring)
func (g *MemorySubmissionGuard) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.claims)
}

// Ensure MemorySubmissionGuard implements SubmissionGuard
var _ shared.SubmissionGuard = (*MemorySubmissionGuard)(nil)
