package assistant

import (
	"context"
)

// StrategyNameSemantic 语义策略名
const StrategyNameSemantic = "semantic"

// Embedder 查询向量化的最小依赖（port），由基础设施层实现。
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NearestFilter 近邻检索的范围限定
type NearestFilter struct {
	Department string
	Locale     string
}

// NearestResult 近邻检索结果；Similarity 为余弦相似度 [-1,1]。
type NearestResult struct {
	SourceID   string
	Title      string
	Snippet    string
	Similarity float64
}

// VectorSearcher 向量近邻检索的最小依赖（port），由基础设施层实现（如 Milvus）。
type VectorSearcher interface {
	Nearest(ctx context.Context, vector []float32, k int, filter NearestFilter) ([]NearestResult, error)
}

// SemanticStrategy 基于向量相似度的语义检索策略。
// 优先级 1：仅当关键词策略召回不足时作为补充。
type SemanticStrategy struct {
	embedder Embedder
	vector   VectorSearcher
}

// NewSemanticStrategy 创建语义策略
func NewSemanticStrategy(embedder Embedder, vector VectorSearcher) *SemanticStrategy {
	return &SemanticStrategy{
		embedder: embedder,
		vector:   vector,
	}
}

func (s *SemanticStrategy) Name() string { return StrategyNameSemantic }

func (s *SemanticStrategy) Priority() int { return 1 }

func (s *SemanticStrategy) Applicable(ctx context.Context, q Query) bool {
	return s != nil && s.embedder != nil && s.vector != nil
}

// Normalize 余弦相似度 [-1,1] 映射到 [0,1]
func (s *SemanticStrategy) Normalize(raw float64) float64 {
	return clamp01((raw + 1) / 2)
}

// Search 向量化查询后做余弦近邻检索
func (s *SemanticStrategy) Search(ctx context.Context, q Query, limit int) ([]Candidate, error) {
	vec, err := s.embedder.EmbedQuery(ctx, q.Text)
	if err != nil {
		return nil, err
	}

	results, err := s.vector.Nearest(ctx, vec, limit, NearestFilter{
		Department: q.ContextFilter,
		Locale:     q.Locale,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		if r.SourceID == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			SourceID:   r.SourceID,
			SourceKind: SourceKindDocument,
			Title:      r.Title,
			Snippet:    r.Snippet,
			RawScore:   r.Similarity,
			Strategy:   StrategyNameSemantic,
		})
	}
	return candidates, nil
}
