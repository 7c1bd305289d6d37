package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/monitor"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/errors"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/metrics"
)

// AskInput 问答请求入参
type AskInput struct {
	Text          string
	ContextFilter string
	Locale        string
	Scope         string
}

// AnswerOutput 问答结果，附带缓存与指纹信息
type AnswerOutput struct {
	*RetrievalResult
	Fingerprint string `json:"fingerprint"`
	Cached      bool   `json:"cached"`
}

// ServiceConfig 服务级配置
type ServiceConfig struct {
	// MaxContextChars 上下文装配的字符预算
	MaxContextChars int
	// GenerationDerate 生成降级时的置信度折减系数
	GenerationDerate float64
}

// Service 问答门面：指纹 → 缓存 → 检索 → 装配 → 生成。
// 所有降级路径都在这里收敛，上层只见 AnswerOutput。
type Service struct {
	cfg          ServiceConfig
	orchestrator *Orchestrator
	generator    Generator
	cache        *ResultCache
	monitor      *monitor.Monitor
	snapshot     *FAQSnapshotStore
}

// NewService 创建问答服务
func NewService(
	cfg ServiceConfig,
	orchestrator *Orchestrator,
	generator Generator,
	cache *ResultCache,
	mon *monitor.Monitor,
	snapshot *FAQSnapshotStore,
) *Service {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = 4000
	}
	if cfg.GenerationDerate <= 0 || cfg.GenerationDerate >= 1 {
		cfg.GenerationDerate = 0.6
	}
	return &Service{
		cfg:          cfg,
		orchestrator: orchestrator,
		generator:    generator,
		cache:        cache,
		monitor:      mon,
		snapshot:     snapshot,
	}
}

// Answer 回答一个员工问题。
// 相同指纹的请求命中缓存或共享同一次计算；检索为空走固定兜底，
// 生成失败走候选摘录降级，两者都算成功返回。
func (s *Service) Answer(ctx context.Context, in AskInput) (*AnswerOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, errors.New(errors.CodeInvalidParam, "question text is required")
	}

	q := Query{
		Text:          text,
		ContextFilter: in.ContextFilter,
		Locale:        in.Locale,
		Scope:         in.Scope,
	}
	fp := Fingerprint(q)

	start := time.Now()
	result, cached, err := s.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (*RetrievalResult, error) {
		return s.compute(ctx, q)
	})
	elapsed := time.Since(start)

	if err != nil {
		s.record(elapsed, monitor.OutcomeError)
		metrics.AssistantAnswersTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	outcome := monitor.OutcomeMiss
	label := "miss"
	if cached {
		outcome = monitor.OutcomeHit
		label = "hit"
	}
	s.record(elapsed, outcome)
	metrics.AssistantAnswersTotal.WithLabelValues(label).Inc()
	metrics.AssistantAnswerDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	return &AnswerOutput{
		RetrievalResult: result,
		Fingerprint:     fp,
		Cached:          cached,
	}, nil
}

// compute 执行一次完整流水线，产出可缓存的结果。
func (s *Service) compute(ctx context.Context, q Query) (*RetrievalResult, error) {
	scored, err := s.orchestrator.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(scored) == 0 {
		// 知识库没有任何候选：固定兜底，置信度归零
		logger.Info(ctx, "no candidates retrieved, returning fallback answer")
		return &RetrievalResult{
			Candidates:        []ScoredCandidate{},
			AssembledContext:  "",
			AnswerText:        FallbackAnswer,
			Confidence:        0,
			ReferencedSources: []string{},
		}, nil
	}

	assembled := AssembleContext(scored, s.cfg.MaxContextChars)
	top := scored[0]

	answer, genErr := s.generator.Generate(ctx, BuildPrompt(q.Text, assembled))
	if genErr != nil {
		// 生成后端失败：用最优候选摘录降级，置信度按系数折减
		logger.Warn(ctx, "generation failed, degrading to top candidate snippet",
			"error", genErr.Error(),
		)
		return &RetrievalResult{
			Candidates:        scored,
			AssembledContext:  assembled,
			AnswerText:        top.Snippet,
			Confidence:        top.Relevance * s.cfg.GenerationDerate,
			ReferencedSources: referencedSources(scored),
			Degraded:          true,
		}, nil
	}

	return &RetrievalResult{
		Candidates:        scored,
		AssembledContext:  assembled,
		AnswerText:        answer,
		Confidence:        top.Relevance,
		ReferencedSources: referencedSources(scored),
	}, nil
}

// Invalidate 在知识来源变更后失效相关缓存，并刷新问答条目快照。
// 返回清除的缓存条目数。
func (s *Service) Invalidate(ctx context.Context, sourceID string) (int, error) {
	if strings.TrimSpace(sourceID) == "" {
		return 0, errors.New(errors.CodeInvalidParam, "source_id is required")
	}

	removed := s.cache.Invalidate(sourceID)
	logger.Info(ctx, "cache invalidated by source",
		"source_id", sourceID,
		"removed", removed,
	)

	if s.snapshot != nil {
		if err := s.snapshot.Refresh(ctx); err != nil {
			// 快照刷新失败不影响失效结果，下一次读取会再次尝试
			logger.Warn(ctx, "faq snapshot refresh failed after invalidation", "error", err.Error())
		}
	}
	return removed, nil
}

// HealthSummary 返回各服务维度的性能摘要
func (s *Service) HealthSummary() map[string]monitor.Summary {
	if s.monitor == nil {
		return map[string]monitor.Summary{}
	}
	return s.monitor.SummaryAll()
}

func (s *Service) record(d time.Duration, outcome monitor.Outcome) {
	if s.monitor == nil {
		return
	}
	s.monitor.Record("assistant.answer", d, outcome)
}
