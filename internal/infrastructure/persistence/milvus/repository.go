// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/knowledge"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/metrics"
)

// Repository 文档分片向量仓储
type Repository struct {
	client *Client
}

// NewRepository 创建向量仓储
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

// SearchParams 向量检索参数
type SearchParams struct {
	QueryVector []float32
	TopK        int
	// Department/Locale 为空表示不过滤
	Department string
	Locale     string
}

// SearchResult 向量检索结果。
// Score 为 COSINE 距离，相似度 = 1 - Score。
type SearchResult struct {
	ID          string
	Score       float32
	DocID       string
	Title       string
	TextContent string
}

// CreateCollection 创建集合
func (r *Repository) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection",
		trace.WithAttributes(attribute.String("collection", schema.CollectionName)))
	defer span.End()

	collName := r.client.CollectionName(schema.CollectionName)
	schema.CollectionName = collName

	err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// CreateIndex 创建 HNSW 索引
func (r *Repository) CreateIndex(ctx context.Context, collection string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	collName := r.client.CollectionName(collection)

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// SearchChunks 按查询向量检索文档分片
func (r *Repository) SearchChunks(ctx context.Context, params *SearchParams) ([]*SearchResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchChunks",
		trace.WithAttributes(
			attribute.Int("top_k", params.TopK),
			attribute.String("department", params.Department),
		))
	defer span.End()

	collName := r.client.CollectionName(CollectionDocumentChunks)

	// 构建过滤表达式
	var conds []string
	if dept := strings.TrimSpace(params.Department); dept != "" {
		conds = append(conds, fmt.Sprintf(`department == "%s"`, escapeExprValue(dept)))
	}
	if locale := strings.TrimSpace(params.Locale); locale != "" {
		conds = append(conds, fmt.Sprintf(`locale == "%s"`, escapeExprValue(locale)))
	}
	filter := strings.Join(conds, " && ")

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	start := time.Now()
	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		filter,
		[]string{"id", "doc_id", "title", "text_content"},
		[]entity.Vector{entity.FloatVector(params.QueryVector)},
		"vector",
		entity.COSINE,
		params.TopK,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(CollectionDocumentChunks).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.MilvusSearchTotal.WithLabelValues(CollectionDocumentChunks, "error").Inc()
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(CollectionDocumentChunks, "ok").Inc()

	var searchResults []*SearchResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			sr := &SearchResult{
				Score: result.Scores[i],
			}

			if idCol, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				sr.ID = idCol.Data()[i]
			}
			if docCol, ok := result.Fields.GetColumn("doc_id").(*entity.ColumnVarChar); ok {
				sr.DocID = docCol.Data()[i]
			}
			if titleCol, ok := result.Fields.GetColumn("title").(*entity.ColumnVarChar); ok {
				sr.Title = titleCol.Data()[i]
			}
			if textCol, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				sr.TextContent = textCol.Data()[i]
			}

			searchResults = append(searchResults, sr)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(searchResults)))
	return searchResults, nil
}

// InsertChunks 插入文档分片
func (r *Repository) InsertChunks(ctx context.Context, chunks []*knowledge.DocumentChunk) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertChunks",
		trace.WithAttributes(attribute.Int("count", len(chunks))))
	defer span.End()

	if len(chunks) == 0 {
		return nil
	}

	collName := r.client.CollectionName(CollectionDocumentChunks)

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	docIDs := make([]string, len(chunks))
	departments := make([]string, len(chunks))
	locales := make([]string, len(chunks))
	titles := make([]string, len(chunks))
	textContents := make([]string, len(chunks))

	for i, chunk := range chunks {
		ids[i] = chunk.ID
		vectors[i] = chunk.Vector
		docIDs[i] = chunk.DocID
		departments[i] = chunk.Department
		locales[i] = chunk.Locale
		titles[i] = chunk.Title
		textContents[i] = chunk.TextContent
	}

	idCol := entity.NewColumnVarChar("id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", VectorDimension, vectors)
	docCol := entity.NewColumnVarChar("doc_id", docIDs)
	deptCol := entity.NewColumnVarChar("department", departments)
	localeCol := entity.NewColumnVarChar("locale", locales)
	titleCol := entity.NewColumnVarChar("title", titles)
	textCol := entity.NewColumnVarChar("text_content", textContents)

	_, err := r.client.milvus.Insert(ctx, collName, "",
		idCol, vectorCol, docCol, deptCol, localeCol, titleCol, textCol)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	return nil
}

// DeleteChunksByDocument 删除文档的全部分片
func (r *Repository) DeleteChunksByDocument(ctx context.Context, docID string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "milvus.DeleteChunksByDocument",
		trace.WithAttributes(attribute.String("doc_id", docID)))
	defer span.End()

	collName := r.client.CollectionName(CollectionDocumentChunks)
	filter := fmt.Sprintf(`doc_id == "%s"`, escapeExprValue(docID))

	if err := r.client.milvus.Delete(ctx, collName, "", filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// EnsureDocumentChunksCollection 确保 document_chunks 集合与索引可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureDocumentChunksCollection(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	exists, err := r.client.HasCollection(ctx, CollectionDocumentChunks)
	if err != nil {
		return err
	}
	if !exists {
		if err := r.CreateCollection(ctx, DocumentChunksSchema()); err != nil {
			return err
		}
		// 新建集合时创建索引；若失败，允许后续由运维介入。
		_ = r.CreateIndex(ctx, CollectionDocumentChunks)
	}

	return r.client.LoadCollection(ctx, CollectionDocumentChunks)
}

// escapeExprValue 过滤表达式中的字符串值转义
func escapeExprValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
