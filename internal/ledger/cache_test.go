package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	mu    sync.Mutex
	calls int
	rows  [][]string
	err   error
	delay time.Duration
}

func (r *countingReader) ReadAll(ctx context.Context) ([][]string, error) {
	r.mu.Lock()
	r.calls++
	rows, err, delay := r.rows, r.err, r.delay
	r.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return rows, err
}

func (r *countingReader) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *countingReader) set(rows [][]string, err error) {
	r.mu.Lock()
	r.rows, r.err = rows, err
	r.mu.Unlock()
}

var tableFixture = [][]string{
	{"header"},
	{"2024.01.02 10:00:00", "T1", "", "eurusd", "B", "1.1", "", ""},
}

func TestSnapshotCacheStalenessBound(t *testing.T) {
	src := &countingReader{rows: tableFixture}
	cache := NewSnapshotCache(CacheConfig{MaxAge: time.Minute})

	first := cache.Get(context.Background(), src)
	second := cache.Get(context.Background(), src)

	require.Equal(t, 1, src.callCount(), "second read inside MaxAge must not hit the store")
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.CapturedAt, second.CapturedAt)
}

func TestSnapshotCacheStampede(t *testing.T) {
	src := &countingReader{rows: tableFixture, delay: 50 * time.Millisecond}
	cache := NewSnapshotCache(CacheConfig{MaxAge: time.Minute, RefreshWait: time.Second})

	const n = 16
	var wg sync.WaitGroup
	snaps := make([]Snapshot, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i] = cache.Get(context.Background(), src)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, src.callCount(), "concurrent cold reads must share one remote read")
	for _, snap := range snaps {
		assert.Equal(t, tableFixture, snap.Rows)
	}
}

func TestSnapshotCacheInvalidateForcesRefresh(t *testing.T) {
	src := &countingReader{rows: tableFixture}
	cache := NewSnapshotCache(CacheConfig{MaxAge: time.Minute})

	cache.Get(context.Background(), src)
	cache.Invalidate()
	cache.Get(context.Background(), src)

	assert.Equal(t, 2, src.callCount())
}

func TestSnapshotCacheKeepsRowsOnFailedRefresh(t *testing.T) {
	src := &countingReader{rows: tableFixture}
	cache := NewSnapshotCache(CacheConfig{MaxAge: time.Minute})

	cache.Get(context.Background(), src)
	cache.Invalidate()
	src.set(nil, errors.New("store down"))

	snap := cache.Get(context.Background(), src)

	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, tableFixture, snap.Rows, "stale rows survive a failed refresh")
}

func TestSnapshotCacheMinRefreshInterval(t *testing.T) {
	src := &countingReader{rows: tableFixture}
	cache := NewSnapshotCache(CacheConfig{
		MaxAge:             time.Nanosecond,
		MinRefreshInterval: time.Minute,
	})

	first := cache.Get(context.Background(), src)
	require.Equal(t, tableFixture, first.Rows)
	time.Sleep(2 * time.Millisecond)

	second := cache.Get(context.Background(), src)

	assert.Equal(t, 1, src.callCount(), "refresh floor must suppress the second read")
	assert.Equal(t, tableFixture, second.Rows, "stale snapshot is served instead")
}

func TestSnapshotCacheRefreshWaitFallsBack(t *testing.T) {
	src := &countingReader{rows: tableFixture, delay: 300 * time.Millisecond}
	cache := NewSnapshotCache(CacheConfig{MaxAge: time.Minute, RefreshWait: 20 * time.Millisecond})

	start := time.Now()
	snap := cache.Get(context.Background(), src)

	assert.Less(t, time.Since(start), 200*time.Millisecond, "caller must not wait out the full read")
	assert.True(t, snap.Empty(), "no fallback data exists yet")
}
