package ledger

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tradelog/internal/logger"
	"tradelog/internal/pkg/circuit"
)

// Reader is the one gateway capability the cache needs.
type Reader interface {
	ReadAll(ctx context.Context) ([][]string, error)
}

// CacheConfig bounds how stale a snapshot may get and how hard the cache
// may lean on the remote store.
type CacheConfig struct {
	// MaxAge is the freshness bound: a snapshot younger than this is served
	// without any remote call.
	MaxAge time.Duration
	// MinRefreshInterval is a rate-limit floor on remote reads. While the
	// last refresh attempt is younger than this, an existing snapshot is
	// served even past MaxAge. Zero disables the floor.
	MinRefreshInterval time.Duration
	// RefreshWait is how long a caller waits on an in-flight refresh before
	// settling for whatever snapshot exists.
	RefreshWait time.Duration
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = 30 * time.Second
	}
	if c.RefreshWait <= 0 {
		c.RefreshWait = 2 * time.Second
	}
	return c
}

// SnapshotCache holds the most recent full read of the ledger table. It is
// the only mutable state shared across requests: the snapshot, its
// timestamps and the in-flight refresh guard.
type SnapshotCache struct {
	cfg     CacheConfig
	breaker *circuit.Breaker

	mu          sync.RWMutex
	snap        Snapshot
	lastAttempt time.Time

	group singleflight.Group
}

func NewSnapshotCache(cfg CacheConfig) *SnapshotCache {
	return &SnapshotCache{
		cfg:     cfg.withDefaults(),
		breaker: circuit.NewBreaker("ledger-read", 5, 30*time.Second),
	}
}

// Get returns a snapshot no older than MaxAge when it can, degrading to
// stale data rather than failing: refresh errors are logged and swallowed,
// and the previous snapshot is never discarded on a failed read. Concurrent
// callers share a single remote read.
func (c *SnapshotCache) Get(ctx context.Context, src Reader) Snapshot {
	c.mu.RLock()
	snap := c.snap
	lastAttempt := c.lastAttempt
	c.mu.RUnlock()

	now := time.Now()
	if !snap.CapturedAt.IsZero() && now.Sub(snap.CapturedAt) <= c.cfg.MaxAge {
		return snap
	}
	if c.cfg.MinRefreshInterval > 0 && snap.Rows != nil && now.Sub(lastAttempt) < c.cfg.MinRefreshInterval {
		// Trade staleness for protection against remote rate limits.
		return snap
	}

	ch := c.group.DoChan("refresh", func() (any, error) {
		return c.refresh(src)
	})

	timer := time.NewTimer(c.cfg.RefreshWait)
	defer timer.Stop()
	select {
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(Snapshot)
		}
	case <-timer.C:
		logger.Warnf("ledger cache: refresh still in flight after %s, serving stale snapshot", c.cfg.RefreshWait)
	case <-ctx.Done():
	}

	c.mu.RLock()
	snap = c.snap
	c.mu.RUnlock()
	return snap
}

// refresh performs exactly one remote read. It deliberately ignores the
// caller's context: the result is shared by every waiter, so one impatient
// request must not cancel the read for the rest.
func (c *SnapshotCache) refresh(src Reader) (Snapshot, error) {
	c.mu.Lock()
	c.lastAttempt = time.Now()
	c.mu.Unlock()

	if !c.breaker.Allow() {
		return Snapshot{}, errReadShortCircuited
	}
	rows, err := src.ReadAll(context.Background())
	if err != nil {
		c.breaker.RecordFailure()
		logger.Warnf("ledger cache: refresh failed, keeping previous snapshot: %v", err)
		return Snapshot{}, err
	}
	c.breaker.RecordSuccess()

	snap := Snapshot{Rows: rows, CapturedAt: time.Now()}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	logger.Debugf("ledger cache: snapshot refreshed rows=%d", len(rows))
	return snap, nil
}

// Invalidate marks the snapshot stale without discarding its rows, so a
// subsequent failed refresh still has fallback data. Callers invoke it
// after every write so the next read observes their change.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.snap.CapturedAt = time.Time{}
	c.mu.Unlock()
}

type cacheError string

func (e cacheError) Error() string { return string(e) }

const errReadShortCircuited = cacheError("ledger read short-circuited by breaker")
