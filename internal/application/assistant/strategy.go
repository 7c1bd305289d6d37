package assistant

import (
	"context"
	"sort"
)

// Strategy 可插拔的检索策略。
// 策略只负责召回原始候选；跨策略的归一化与排序由 Scorer 完成。
type Strategy interface {
	// Name 策略名，用于日志/指标与归一化分派
	Name() string
	// Priority 执行优先级，数值越小越先执行
	Priority() int
	// Applicable 当前查询下策略是否可用（如条目库为空时跳过）
	Applicable(ctx context.Context, q Query) bool
	// Search 召回最多 limit 条候选
	Search(ctx context.Context, q Query, limit int) ([]Candidate, error)
	// Normalize 将策略自有量纲的原始分映射到 [0,1]
	Normalize(raw float64) float64
}

// Registry 按优先级排序的策略注册表。
// 启动时显式注册，之后只读，可安全并发共享。
type Registry struct {
	strategies []Strategy
}

// NewRegistry 创建注册表并按优先级排序
func NewRegistry(strategies ...Strategy) *Registry {
	sorted := make([]Strategy, len(strategies))
	copy(sorted, strategies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Registry{strategies: sorted}
}

// Strategies 返回按优先级排序的策略列表
func (r *Registry) Strategies() []Strategy {
	return r.strategies
}

// Lookup 按名称查找策略
func (r *Registry) Lookup(name string) (Strategy, bool) {
	for _, s := range r.strategies {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// priorityOf 按策略名取优先级；未注册的策略排在最后
func (r *Registry) priorityOf(name string) int {
	if s, ok := r.Lookup(name); ok {
		return s.Priority()
	}
	return int(^uint(0) >> 1)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
