package assistant

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/metrics"
)

// ResultCache 以 fingerprint 为键的进程内结果缓存。
// singleflight 保证同一 fingerprint 全局至多一个并发计算，
// 等待方挂起（非轮询）直至持有方完成，失败同样广播，不会悬挂。
type ResultCache struct {
	ttl   time.Duration
	group singleflight.Group
	// now 可注入，便于测试 TTL
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	result    *RetrievalResult
	createdAt time.Time
	// sources 反向索引：按 source_id 失效时用
	sources map[string]struct{}
}

func (e *cacheEntry) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.createdAt) >= ttl
}

// NewResultCache 创建结果缓存
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ResultCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*cacheEntry),
	}
}

// GetOrCompute 命中新鲜条目直接返回；未命中时通过 singleflight 计算并写入。
// 返回值第二项表示是否为缓存命中。
func (c *ResultCache) GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) (*RetrievalResult, error)) (*RetrievalResult, bool, error) {
	if result, ok := c.lookup(fingerprint); ok {
		return result, true, nil
	}

	ch := c.group.DoChan(fingerprint, func() (interface{}, error) {
		// 双重检查：排队期间可能已被持有方写入
		if result, ok := c.lookup(fingerprint); ok {
			return result, nil
		}

		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(fingerprint, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		// 计算仍在进行并服务其他等待方；本调用方按自身截止时间退出
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*RetrievalResult), false, nil
	}
}

// Invalidate 按来源失效：清除 referenced_sources 含该 source_id 的全部条目。
// 同一来源可能被多个 fingerprint 引用，因此不能只按 fingerprint 清。
// 返回清除的条目数。
func (c *ResultCache) Invalidate(sourceID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for fp, entry := range c.entries {
		if _, ok := entry.sources[sourceID]; ok {
			delete(c.entries, fp)
			removed++
		}
	}
	if removed > 0 {
		metrics.AssistantCacheEvictions.WithLabelValues("invalidate").Add(float64(removed))
	}
	return removed
}

// InvalidateAll 清空缓存
func (c *ResultCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Len 返回当前条目数（含未被惰性清理的过期条目）
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResultCache) lookup(fingerprint string) (*RetrievalResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if entry.expired(c.now(), c.ttl) {
		// 惰性清理过期条目
		c.mu.Lock()
		if cur, ok := c.entries[fingerprint]; ok && cur == entry {
			delete(c.entries, fingerprint)
			metrics.AssistantCacheEvictions.WithLabelValues("ttl").Inc()
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.result, true
}

func (c *ResultCache) store(fingerprint string, result *RetrievalResult) {
	sources := make(map[string]struct{}, len(result.ReferencedSources))
	for _, id := range result.ReferencedSources {
		sources[id] = struct{}{}
	}

	c.mu.Lock()
	c.entries[fingerprint] = &cacheEntry{
		result:    result,
		createdAt: c.now(),
		sources:   sources,
	}
	c.mu.Unlock()
}
