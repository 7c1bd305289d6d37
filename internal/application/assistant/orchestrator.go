package assistant

import (
	"context"
	"time"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/monitor"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/metrics"
)

// OrchestratorConfig 编排器配置
type OrchestratorConfig struct {
	// TopK 单个策略的召回上限
	TopK int
	// ConfidenceFloor 计入“高置信候选”的相关度下限
	ConfidenceFloor float64
	// MinConfidentResults 提前停止所需的高置信候选数
	MinConfidentResults int
}

// Orchestrator 按优先级依次执行策略，凑齐足量高置信候选即提前停止。
// 单策略失败只记录并跳过，绝不中断整条流水线。
type Orchestrator struct {
	registry *Registry
	scorer   *Scorer
	monitor  *monitor.Monitor
	cfg      OrchestratorConfig
}

// NewOrchestrator 创建编排器
func NewOrchestrator(registry *Registry, scorer *Scorer, mon *monitor.Monitor, cfg OrchestratorConfig) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}
	if cfg.ConfidenceFloor <= 0 {
		cfg.ConfidenceFloor = 0.55
	}
	if cfg.MinConfidentResults <= 0 {
		cfg.MinConfidentResults = 3
	}
	return &Orchestrator{
		registry: registry,
		scorer:   scorer,
		monitor:  mon,
		cfg:      cfg,
	}
}

// Retrieve 执行检索：合并各策略候选并打分。
// 候选为空不是错误；调用方据此走兜底回答。
func (o *Orchestrator) Retrieve(ctx context.Context, q Query) ([]ScoredCandidate, error) {
	var merged []Candidate
	var scored []ScoredCandidate

	for _, st := range o.registry.Strategies() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !st.Applicable(ctx, q) {
			logger.Debug(ctx, "strategy not applicable, skipped", "strategy", st.Name())
			continue
		}

		start := time.Now()
		candidates, err := st.Search(ctx, q, o.cfg.TopK)
		elapsed := time.Since(start)

		if err != nil {
			// 后端故障只降级：记录并尝试下一个策略
			logger.Warn(ctx, "retrieval strategy failed, skipped",
				"strategy", st.Name(),
				"error", err.Error(),
			)
			o.record(st.Name(), elapsed, monitor.OutcomeError)
			metrics.StrategySearchTotal.WithLabelValues(st.Name(), "error").Inc()
			continue
		}

		outcome := monitor.OutcomeMiss
		if len(candidates) > 0 {
			outcome = monitor.OutcomeHit
		}
		o.record(st.Name(), elapsed, outcome)
		metrics.StrategySearchTotal.WithLabelValues(st.Name(), "ok").Inc()
		metrics.StrategySearchDuration.WithLabelValues(st.Name()).Observe(elapsed.Seconds())

		merged = append(merged, candidates...)
		scored = o.scorer.Score(merged)

		if o.confidentCount(scored) >= o.cfg.MinConfidentResults {
			// 已有足量高置信候选，跳过剩余策略以省时省钱
			logger.Debug(ctx, "early stop after strategy", "strategy", st.Name(), "candidates", len(scored))
			break
		}
	}

	return scored, nil
}

func (o *Orchestrator) confidentCount(scored []ScoredCandidate) int {
	n := 0
	for _, sc := range scored {
		if sc.Relevance >= o.cfg.ConfidenceFloor {
			n++
		}
	}
	return n
}

func (o *Orchestrator) record(strategy string, d time.Duration, outcome monitor.Outcome) {
	if o.monitor == nil {
		return
	}
	o.monitor.Record("strategy."+strategy, d, outcome)
}
