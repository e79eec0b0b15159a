package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelme/internal/observability"
	"labelme/internal/snowflake"
)

var queryIDs = []string{
	"quality_scorecard",
	"artist_performance",
	"streaming_trends",
	"catalog_health",
	"raw_vs_clean_sample",
	"contract_alerts",
}

type countingLoader struct {
	calls map[string]*int64
}

func newCountingLoader() *countingLoader {
	l := &countingLoader{calls: make(map[string]*int64)}
	for _, id := range queryIDs {
		l.calls[id] = new(int64)
	}
	return l
}

func (l *countingLoader) loader(id string) Loader {
	return func(ctx context.Context) (*snowflake.Table, error) {
		atomic.AddInt64(l.calls[id], 1)
		return snowflake.NewTable(id, []string{"ID"}, []interface{}{id}), nil
	}
}

func (l *countingLoader) count(id string) int64 {
	return atomic.LoadInt64(l.calls[id])
}

func newTestCache(t *testing.T, ttl time.Duration) *ResultCache {
	t.Helper()
	c := New(ttl, observability.NewMetrics(), observability.NewNopLogger())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewDefaultTTL(t *testing.T) {
	c := newTestCache(t, 0)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestGetPut(t *testing.T) {
	c := newTestCache(t, time.Minute)

	_, ok := c.Get("quality_scorecard")
	assert.False(t, ok)

	table := snowflake.NewTable("quality_scorecard", []string{"ENTITY"}, []interface{}{"Artists"})
	c.Put("quality_scorecard", table, 0)

	got, ok := c.Get("quality_scorecard")
	require.True(t, ok)
	assert.Same(t, table, got)
	assert.Equal(t, 1, c.Len())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 50.0, stats.HitRate(), 0.001)
}

func TestFetchHitDoesNotRequery(t *testing.T) {
	c := newTestCache(t, time.Minute)
	loads := newCountingLoader()
	ctx := context.Background()

	for _, id := range queryIDs {
		first, err := c.Fetch(ctx, id, loads.loader(id))
		require.NoError(t, err)

		second, err := c.Fetch(ctx, id, loads.loader(id))
		require.NoError(t, err)

		assert.Same(t, first, second, id)
		assert.Equal(t, int64(1), loads.count(id), id)
	}
}

func TestClearAllRequeriesEachKeyOnce(t *testing.T) {
	c := newTestCache(t, time.Minute)
	loads := newCountingLoader()
	ctx := context.Background()

	for _, id := range queryIDs {
		_, err := c.Fetch(ctx, id, loads.loader(id))
		require.NoError(t, err)
	}

	c.ClearAll()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(1), c.Stats().Clears)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		for _, id := range queryIDs {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := c.Fetch(ctx, id, loads.loader(id))
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range queryIDs {
		assert.Equal(t, int64(2), loads.count(id), id)
	}
}

func TestFetchConcurrentMissesShareLoad(t *testing.T) {
	c := newTestCache(t, time.Minute)

	var calls int64
	release := make(chan struct{})
	loader := func(ctx context.Context) (*snowflake.Table, error) {
		atomic.AddInt64(&calls, 1)
		<-release
		return snowflake.NewTable("catalog_health", []string{"TOTAL_ARTISTS"}, []interface{}{int64(10)}), nil
	}

	const callers = 8
	results := make(chan *snowflake.Table, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := c.Fetch(context.Background(), "catalog_health", loader)
			assert.NoError(t, err)
			results <- table
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	var first *snowflake.Table
	for table := range results {
		if first == nil {
			first = table
		}
		assert.Same(t, first, table)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestFetchErrorNotCached(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	failing := func(ctx context.Context) (*snowflake.Table, error) {
		return nil, errors.New("object does not exist")
	}
	_, err := c.Fetch(ctx, "contract_alerts", failing)
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	loads := newCountingLoader()
	table, err := c.Fetch(ctx, "contract_alerts", loads.loader("contract_alerts"))
	require.NoError(t, err)
	assert.Equal(t, "contract_alerts", table.Name)
	assert.Equal(t, int64(1), loads.count("contract_alerts"))
}

func TestFetchAfterExpiry(t *testing.T) {
	c := newTestCache(t, 50*time.Millisecond)
	loads := newCountingLoader()
	ctx := context.Background()

	_, err := c.Fetch(ctx, "streaming_trends", loads.loader("streaming_trends"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("streaming_trends")
		return !ok
	}, 2*time.Second, 20*time.Millisecond)

	_, err = c.Fetch(ctx, "streaming_trends", loads.loader("streaming_trends"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), loads.count("streaming_trends"))
}

func TestClearDuringLoadDiscardsResult(t *testing.T) {
	c := newTestCache(t, time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	loader := func(ctx context.Context) (*snowflake.Table, error) {
		close(started)
		<-release
		return snowflake.NewTable("artist_performance", []string{"ARTIST_NAME"}), nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Fetch(context.Background(), "artist_performance", loader)
		assert.NoError(t, err)
	}()

	<-started
	c.ClearAll()
	close(release)
	<-done

	_, ok := c.Get("artist_performance")
	assert.False(t, ok)
}

func TestFetchAfterClearDoesNotJoinEarlierLoad(t *testing.T) {
	c := newTestCache(t, time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	stale := func(ctx context.Context) (*snowflake.Table, error) {
		close(started)
		<-release
		return snowflake.NewTable("stale", []string{"ARTIST_NAME"}), nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		table, err := c.Fetch(context.Background(), "artist_performance", stale)
		assert.NoError(t, err)
		assert.Equal(t, "stale", table.Name)
	}()

	<-started
	c.ClearAll()

	var freshCalls int64
	fresh := func(ctx context.Context) (*snowflake.Table, error) {
		atomic.AddInt64(&freshCalls, 1)
		return snowflake.NewTable("fresh", []string{"ARTIST_NAME"}), nil
	}
	table, err := c.Fetch(context.Background(), "artist_performance", fresh)
	require.NoError(t, err)
	assert.Equal(t, "fresh", table.Name)
	assert.Equal(t, int64(1), atomic.LoadInt64(&freshCalls))

	close(release)
	<-done

	cached, ok := c.Get("artist_performance")
	require.True(t, ok)
	assert.Equal(t, "fresh", cached.Name)
}

func TestFetchCallerCancelDoesNotFailOthers(t *testing.T) {
	c := newTestCache(t, time.Minute)

	var calls int64
	started := make(chan struct{})
	release := make(chan struct{})
	loader := func(ctx context.Context) (*snowflake.Table, error) {
		if atomic.AddInt64(&calls, 1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return snowflake.NewTable("streaming_trends", []string{"PLATFORM"}), nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctxA, "streaming_trends", loader)
		errA <- err
	}()
	<-started

	type outcome struct {
		table *snowflake.Table
		err   error
	}
	resB := make(chan outcome, 1)
	go func() {
		table, err := c.Fetch(context.Background(), "streaming_trends", loader)
		resB <- outcome{table, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting on the shared load")
	}

	close(release)
	select {
	case res := <-resB:
		require.NoError(t, res.err)
		assert.Equal(t, "streaming_trends", res.table.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("live caller did not receive the shared load")
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	_, ok := c.Get("streaming_trends")
	assert.True(t, ok)
}
