package services

import (
	"context"
	"sync"
	"sync/atomic"
)

// ConcurrencyLimits bounds simultaneous workflow runs.
type ConcurrencyLimits struct {
	GlobalMax int
	PerFamily int
}

// ConcurrencyLimiter controls how many workflows can execute simultaneously.
// It uses channel-based counting semaphores at two levels: global and
// per-family.
type ConcurrencyLimiter struct {
	global      chan struct{}
	perFamily   map[string]chan struct{}
	mu          sync.Mutex
	limits      ConcurrencyLimits
	activeCount atomic.Int64
}

// NewConcurrencyLimiter creates a limiter with the given limits.
func NewConcurrencyLimiter(limits ConcurrencyLimits) *ConcurrencyLimiter {
	if limits.GlobalMax <= 0 {
		limits.GlobalMax = 10
	}
	if limits.PerFamily <= 0 {
		limits.PerFamily = 3
	}

	return &ConcurrencyLimiter{
		global:    make(chan struct{}, limits.GlobalMax),
		perFamily: make(map[string]chan struct{}),
		limits:    limits,
	}
}

// Acquire blocks until both global and per-family slots are available,
// or returns an error if the context is cancelled.
func (c *ConcurrencyLimiter) Acquire(ctx context.Context, family string) error {
	// 1. Acquire global slot.
	select {
	case c.global <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	// 2. Acquire per-family slot.
	famCh := c.getOrCreateFamilyChan(family)
	select {
	case famCh <- struct{}{}:
		c.activeCount.Add(1)
		return nil
	case <-ctx.Done():
		// Release global slot since we couldn't get per-family.
		<-c.global
		return ctx.Err()
	}
}

// Release returns both the global and per-family slots.
func (c *ConcurrencyLimiter) Release(family string) {
	c.activeCount.Add(-1)

	// Release per-family slot.
	c.mu.Lock()
	if ch, ok := c.perFamily[family]; ok {
		select {
		case <-ch:
		default:
		}
	}
	c.mu.Unlock()

	// Release global slot.
	select {
	case <-c.global:
	default:
	}
}

// ConcurrencyStats reports current usage.
type ConcurrencyStats struct {
	ActiveRuns int `json:"active_runs"`
	GlobalMax  int `json:"global_max"`
	PerFamily  int `json:"per_family"`
}

// Stats returns the current concurrency statistics.
func (c *ConcurrencyLimiter) Stats() ConcurrencyStats {
	return ConcurrencyStats{
		ActiveRuns: int(c.activeCount.Load()),
		GlobalMax:  c.limits.GlobalMax,
		PerFamily:  c.limits.PerFamily,
	}
}

func (c *ConcurrencyLimiter) getOrCreateFamilyChan(family string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.perFamily[family]
	if !ok {
		ch = make(chan struct{}, c.limits.PerFamily)
		c.perFamily[family] = ch
	}
	return ch
}
