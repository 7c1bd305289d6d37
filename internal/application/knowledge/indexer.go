// Package knowledge 负责知识文档的切分与向量索引
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/repository"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
)

const (
	defaultChunkSizeRunes    = 800
	defaultChunkOverlapRunes = 80
	defaultEmbeddingBatch    = 32

	// embedConcurrency 并发向量化的批次上限，避免打满 embedding 服务
	embedConcurrency = 4
)

// ErrVectorDisabled 表示向量索引未配置，索引操作不可用
var ErrVectorDisabled = errors.New("vector indexing disabled")

// ErrEmbeddingCountMismatch 表示 embedding 服务返回的向量数与输入文本数不一致
var ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

// Embedder 批量向量化端口
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentChunk 写入向量库的文档分片
type DocumentChunk struct {
	ID          string
	DocID       string
	Department  string
	Locale      string
	Title       string
	TextContent string
	Vector      []float32
}

// VectorRepository 向量库端口
type VectorRepository interface {
	EnsureDocumentChunksCollection(ctx context.Context) error
	DeleteChunksByDocument(ctx context.Context, docID string) error
	InsertChunks(ctx context.Context, chunks []*DocumentChunk) error
}

// Indexer 文档索引器：切分 → 批量向量化 → 先删后插。
// 先删后插保证同一文档重索引不会残留旧分片。
type Indexer struct {
	embedder Embedder
	vector   VectorRepository
	docs     repository.DocumentRepository

	embeddingBatchSize int
	chunkSizeRunes     int
	chunkOverlapRunes  int
}

// NewIndexer 创建索引器
func NewIndexer(embedder Embedder, vectorRepo VectorRepository, docs repository.DocumentRepository, embeddingBatchSize int) *Indexer {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Indexer{
		embedder:           embedder,
		vector:             vectorRepo,
		docs:               docs,
		embeddingBatchSize: bs,
		chunkSizeRunes:     defaultChunkSizeRunes,
		chunkOverlapRunes:  defaultChunkOverlapRunes,
	}
}

func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil
}

func (i *Indexer) ensureReady(ctx context.Context) error {
	if i == nil || i.vector == nil {
		return ErrVectorDisabled
	}
	return i.vector.EnsureDocumentChunksCollection(ctx)
}

// IndexDocument 索引单个文档。
// 已失效的文档只删不插，等价于从索引中摘除。
func (i *Indexer) IndexDocument(ctx context.Context, doc *entity.Document) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("document.id is required")
	}
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return err
	}

	if err := i.vector.DeleteChunksByDocument(ctx, doc.ID); err != nil {
		return err
	}

	content := strings.TrimSpace(doc.Content)
	if !doc.Active || content == "" {
		// 空正文或已下线的文档：删除即完成，不写新分片
		return nil
	}

	chunks := splitByRunes(content, i.chunkSizeRunes, i.chunkOverlapRunes)
	if len(chunks) == 0 {
		return nil
	}

	title := strings.TrimSpace(doc.Title)
	embedInputs := make([]string, 0, len(chunks))
	records := make([]*DocumentChunk, 0, len(chunks))
	for _, chunk := range chunks {
		embedText := chunk
		if title != "" {
			embedText = title + "\n" + chunk
		}
		embedInputs = append(embedInputs, embedText)
		records = append(records, &DocumentChunk{
			ID:          uuid.NewString(),
			DocID:       doc.ID,
			Department:  strings.TrimSpace(doc.Department),
			Locale:      strings.TrimSpace(doc.Locale),
			Title:       title,
			TextContent: chunk,
		})
	}

	vectors, err := i.embedBatch(ctx, embedInputs)
	if err != nil {
		return err
	}
	for idx := range records {
		records[idx].Vector = vectors[idx]
	}
	return i.vector.InsertChunks(ctx, records)
}

// IndexByID 按文档 ID 索引，供任务消费方调用。
func (i *Indexer) IndexByID(ctx context.Context, docID string) error {
	if strings.TrimSpace(docID) == "" {
		return fmt.Errorf("document id is required")
	}
	doc, err := i.docs.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	return i.IndexDocument(ctx, doc)
}

// Rebuild 全量重建：依次重索引所有生效文档。
// 单文档失败记录后继续，最后返回聚合错误。
func (i *Indexer) Rebuild(ctx context.Context) error {
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	docs, err := i.docs.ListActive(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	failed := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := i.IndexDocument(ctx, doc); err != nil {
			failed++
			logger.Warn(ctx, "document reindex failed",
				"doc_id", doc.ID,
				"error", err.Error(),
			)
		}
	}

	logger.Info(ctx, "index rebuild finished",
		"documents", len(docs),
		"failed", failed,
		"elapsed", time.Since(start).String(),
	)
	if failed > 0 {
		return fmt.Errorf("index rebuild: %d of %d documents failed", failed, len(docs))
	}
	return nil
}

func (i *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if i == nil || i.embedder == nil {
		return nil, ErrVectorDisabled
	}
	if len(texts) == 0 {
		return nil, nil
	}

	// 各批次并发向量化，按偏移写回固定位置保证顺序稳定
	out := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		offset := start
		g.Go(func() error {
			vecs, err := i.embedder.EmbedBatch(ctx, batch)
			if err != nil {
				return err
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("%w: got %d vectors for %d inputs", ErrEmbeddingCountMismatch, len(vecs), len(batch))
			}
			copy(out[offset:], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
