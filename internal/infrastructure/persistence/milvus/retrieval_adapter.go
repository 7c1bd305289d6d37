package milvus

import (
	"context"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/assistant"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/knowledge"
)

// VectorSearchAdapter 把向量仓储适配为语义策略的近邻检索端口。
// COSINE 距离换算为相似度：similarity = 1 - distance。
type VectorSearchAdapter struct {
	repo *Repository
}

func NewVectorSearchAdapter(repo *Repository) *VectorSearchAdapter {
	return &VectorSearchAdapter{repo: repo}
}

var _ assistant.VectorSearcher = (*VectorSearchAdapter)(nil)

func (a *VectorSearchAdapter) Nearest(ctx context.Context, vector []float32, k int, filter assistant.NearestFilter) ([]assistant.NearestResult, error) {
	if a == nil || a.repo == nil {
		return nil, knowledge.ErrVectorDisabled
	}

	out, err := a.repo.SearchChunks(ctx, &SearchParams{
		QueryVector: vector,
		TopK:        k,
		Department:  filter.Department,
		Locale:      filter.Locale,
	})
	if err != nil {
		return nil, err
	}

	results := make([]assistant.NearestResult, 0, len(out))
	for i := range out {
		v := out[i]
		if v == nil || v.DocID == "" {
			continue
		}
		results = append(results, assistant.NearestResult{
			SourceID:   v.DocID,
			Title:      v.Title,
			Snippet:    v.TextContent,
			Similarity: 1 - float64(v.Score),
		})
	}
	return results, nil
}

// IndexVectorRepository 把向量仓储适配为索引器的写入端口
type IndexVectorRepository struct {
	repo *Repository
}

func NewIndexVectorRepository(repo *Repository) *IndexVectorRepository {
	return &IndexVectorRepository{repo: repo}
}

var _ knowledge.VectorRepository = (*IndexVectorRepository)(nil)

func (r *IndexVectorRepository) EnsureDocumentChunksCollection(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return knowledge.ErrVectorDisabled
	}
	return r.repo.EnsureDocumentChunksCollection(ctx)
}

func (r *IndexVectorRepository) DeleteChunksByDocument(ctx context.Context, docID string) error {
	if r == nil || r.repo == nil {
		return knowledge.ErrVectorDisabled
	}
	return r.repo.DeleteChunksByDocument(ctx, docID)
}

func (r *IndexVectorRepository) InsertChunks(ctx context.Context, chunks []*knowledge.DocumentChunk) error {
	if r == nil || r.repo == nil {
		return knowledge.ErrVectorDisabled
	}
	return r.repo.InsertChunks(ctx, chunks)
}
