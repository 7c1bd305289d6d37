package assistant

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedResult(sources ...string) *RetrievalResult {
	if sources == nil {
		sources = []string{}
	}
	return &RetrievalResult{
		AnswerText:        "answer",
		Confidence:        0.9,
		ReferencedSources: sources,
	}
}

func TestResultCache_GetOrCompute(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		cache := NewResultCache(time.Minute)
		calls := 0
		compute := func(context.Context) (*RetrievalResult, error) {
			calls++
			return cachedResult("faq-001"), nil
		}

		result, hit, err := cache.GetOrCompute(ctx, "fp-1", compute)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, "answer", result.AnswerText)

		result, hit, err = cache.GetOrCompute(ctx, "fp-1", compute)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, "answer", result.AnswerText)
		assert.Equal(t, 1, calls)
	})

	t.Run("concurrent callers share one computation", func(t *testing.T) {
		cache := NewResultCache(time.Minute)
		var calls atomic.Int64
		release := make(chan struct{})
		compute := func(context.Context) (*RetrievalResult, error) {
			calls.Add(1)
			<-release
			return cachedResult("faq-001"), nil
		}

		const workers = 16
		var wg sync.WaitGroup
		results := make([]*RetrievalResult, workers)
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _, errs[i] = cache.GetOrCompute(ctx, "fp-shared", compute)
			}(i)
		}

		// 等全部 goroutine 挂到同一个 in-flight 计算上再放行
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
		close(release)
		wg.Wait()

		assert.EqualValues(t, 1, calls.Load())
		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, "answer", results[i].AnswerText)
		}
	})

	t.Run("computation error broadcast and nothing cached", func(t *testing.T) {
		cache := NewResultCache(time.Minute)
		calls := 0
		failing := func(context.Context) (*RetrievalResult, error) {
			calls++
			return nil, assert.AnError
		}

		_, _, err := cache.GetOrCompute(ctx, "fp-err", failing)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 0, cache.Len())

		// 失败不缓存，下一次重新计算
		_, _, err = cache.GetOrCompute(ctx, "fp-err", failing)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 2, calls)
	})

	t.Run("caller deadline abandons wait without killing computation", func(t *testing.T) {
		cache := NewResultCache(time.Minute)
		release := make(chan struct{})
		started := make(chan struct{})
		compute := func(context.Context) (*RetrievalResult, error) {
			close(started)
			<-release
			return cachedResult("faq-001"), nil
		}

		done := make(chan error, 1)
		go func() {
			shortCtx, cancel := context.WithCancel(ctx)
			<-started
			cancel()
			_, _, err := cache.GetOrCompute(shortCtx, "fp-slow", func(context.Context) (*RetrievalResult, error) {
				t.Error("second caller must join in-flight computation")
				return nil, nil
			})
			done <- err
		}()

		go func() {
			_, _, _ = cache.GetOrCompute(ctx, "fp-slow", compute)
		}()

		err := <-done
		assert.ErrorIs(t, err, context.Canceled)

		close(release)
		require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, time.Millisecond)
	})
}

func TestResultCache_TTL(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache(time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	calls := 0
	compute := func(context.Context) (*RetrievalResult, error) {
		calls++
		return cachedResult("faq-001"), nil
	}

	_, hit, err := cache.GetOrCompute(ctx, "fp-ttl", compute)
	require.NoError(t, err)
	assert.False(t, hit)

	// TTL 内命中
	now = now.Add(30 * time.Second)
	_, hit, err = cache.GetOrCompute(ctx, "fp-ttl", compute)
	require.NoError(t, err)
	assert.True(t, hit)

	// 过期后重新计算
	now = now.Add(time.Minute)
	_, hit, err = cache.GetOrCompute(ctx, "fp-ttl", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestResultCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache(time.Minute)

	seed := func(fp string, sources ...string) {
		_, _, err := cache.GetOrCompute(ctx, fp, func(context.Context) (*RetrievalResult, error) {
			return cachedResult(sources...), nil
		})
		require.NoError(t, err)
	}

	seed("fp-1", "faq-001", "doc-001")
	seed("fp-2", "doc-001")
	seed("fp-3", "faq-002")

	t.Run("removes every entry referencing the source", func(t *testing.T) {
		removed := cache.Invalidate("doc-001")
		assert.Equal(t, 2, removed)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("unknown source removes nothing", func(t *testing.T) {
		assert.Equal(t, 0, cache.Invalidate("doc-unknown"))
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("invalidate all", func(t *testing.T) {
		cache.InvalidateAll()
		assert.Equal(t, 0, cache.Len())
	})
}
