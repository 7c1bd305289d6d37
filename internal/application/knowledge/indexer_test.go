package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
)

// fakeEmbedder 返回固定维度的零向量；short 为真时每批少返回一个向量
type fakeEmbedder struct {
	mu         sync.Mutex
	batchSizes []int
	err        error
	short      bool
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchSizes = append(f.batchSizes, len(texts))
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, 4)
	}
	return out, nil
}

// fakeVectorRepo 记录删除/插入调用
type fakeVectorRepo struct {
	deleted   []string
	inserted  [][]*DocumentChunk
	ensured   int
	deleteErr error
	insertErr error
}

func (f *fakeVectorRepo) EnsureDocumentChunksCollection(context.Context) error {
	f.ensured++
	return nil
}

func (f *fakeVectorRepo) DeleteChunksByDocument(_ context.Context, docID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, docID)
	return nil
}

func (f *fakeVectorRepo) InsertChunks(_ context.Context, chunks []*DocumentChunk) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks)
	return nil
}

// fakeDocRepo 内存文档仓储
type fakeDocRepo struct {
	docs map[string]*entity.Document
}

func (f *fakeDocRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	return doc, nil
}

func (f *fakeDocRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Document, error) {
	out := make([]*entity.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocRepo) ListActive(context.Context) ([]*entity.Document, error) {
	out := make([]*entity.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		if doc.Active {
			out = append(out, doc)
		}
	}
	return out, nil
}

func activeDoc(id, title, content string) *entity.Document {
	return &entity.Document{
		ID:         id,
		Title:      title,
		Content:    content,
		Department: "hr",
		Locale:     "en",
		Active:     true,
	}
}

func TestIndexer_IndexDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("delete then insert", func(t *testing.T) {
		embedder := &fakeEmbedder{}
		vector := &fakeVectorRepo{}
		indexer := NewIndexer(embedder, vector, &fakeDocRepo{}, 32)

		doc := activeDoc("doc-001", "Leave Policy", "Employees accrue leave monthly.")
		require.NoError(t, indexer.IndexDocument(ctx, doc))

		assert.Equal(t, []string{"doc-001"}, vector.deleted)
		require.Len(t, vector.inserted, 1)
		chunks := vector.inserted[0]
		require.Len(t, chunks, 1)
		assert.Equal(t, "doc-001", chunks[0].DocID)
		assert.Equal(t, "Leave Policy", chunks[0].Title)
		assert.Equal(t, "Employees accrue leave monthly.", chunks[0].TextContent)
		assert.NotEmpty(t, chunks[0].ID)
		assert.Len(t, chunks[0].Vector, 4)
	})

	t.Run("inactive document is only removed", func(t *testing.T) {
		vector := &fakeVectorRepo{}
		indexer := NewIndexer(&fakeEmbedder{}, vector, &fakeDocRepo{}, 32)

		doc := activeDoc("doc-002", "Old Policy", "superseded content")
		doc.Active = false
		require.NoError(t, indexer.IndexDocument(ctx, doc))

		assert.Equal(t, []string{"doc-002"}, vector.deleted)
		assert.Empty(t, vector.inserted)
	})

	t.Run("long document is chunked and batched", func(t *testing.T) {
		embedder := &fakeEmbedder{}
		vector := &fakeVectorRepo{}
		indexer := NewIndexer(embedder, vector, &fakeDocRepo{}, 2)

		doc := activeDoc("doc-003", "Handbook", strings.Repeat("policy text ", 500))
		require.NoError(t, indexer.IndexDocument(ctx, doc))

		require.Len(t, vector.inserted, 1)
		chunks := vector.inserted[0]
		assert.Greater(t, len(chunks), 2)
		for _, size := range embedder.batchSizes {
			assert.LessOrEqual(t, size, 2)
		}
	})

	t.Run("short embedding response fails without inserting", func(t *testing.T) {
		embedder := &fakeEmbedder{short: true}
		vector := &fakeVectorRepo{}
		indexer := NewIndexer(embedder, vector, &fakeDocRepo{}, 2)

		doc := activeDoc("doc-005", "Handbook", strings.Repeat("policy text ", 500))
		err := indexer.IndexDocument(ctx, doc)
		require.ErrorIs(t, err, ErrEmbeddingCountMismatch)
		assert.Empty(t, vector.inserted)
	})

	t.Run("missing vector backend", func(t *testing.T) {
		indexer := NewIndexer(nil, nil, &fakeDocRepo{}, 32)
		err := indexer.IndexDocument(ctx, activeDoc("doc-004", "t", "c"))
		assert.ErrorIs(t, err, ErrVectorDisabled)
	})

	t.Run("nil document rejected", func(t *testing.T) {
		indexer := NewIndexer(&fakeEmbedder{}, &fakeVectorRepo{}, &fakeDocRepo{}, 32)
		assert.Error(t, indexer.IndexDocument(ctx, nil))
	})
}

func TestIndexer_Rebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes every active document", func(t *testing.T) {
		vector := &fakeVectorRepo{}
		repo := &fakeDocRepo{docs: map[string]*entity.Document{
			"doc-1": activeDoc("doc-1", "a", "content a"),
			"doc-2": activeDoc("doc-2", "b", "content b"),
		}}
		indexer := NewIndexer(&fakeEmbedder{}, vector, repo, 32)

		require.NoError(t, indexer.Rebuild(ctx))
		assert.Len(t, vector.deleted, 2)
		assert.Len(t, vector.inserted, 2)
	})

	t.Run("single failure aggregates without aborting", func(t *testing.T) {
		repo := &fakeDocRepo{docs: map[string]*entity.Document{
			"doc-1": activeDoc("doc-1", "a", "content a"),
			"doc-2": activeDoc("doc-2", "b", "content b"),
		}}
		indexer := NewIndexer(&fakeEmbedder{err: assert.AnError}, &fakeVectorRepo{}, repo, 32)

		err := indexer.Rebuild(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 of 2 documents failed")
	})
}

func TestIndexer_IndexByID(t *testing.T) {
	ctx := context.Background()
	vector := &fakeVectorRepo{}
	repo := &fakeDocRepo{docs: map[string]*entity.Document{
		"doc-1": activeDoc("doc-1", "a", "content a"),
	}}
	indexer := NewIndexer(&fakeEmbedder{}, vector, repo, 32)

	require.NoError(t, indexer.IndexByID(ctx, "doc-1"))
	assert.Equal(t, []string{"doc-1"}, vector.deleted)

	assert.Error(t, indexer.IndexByID(ctx, "doc-missing"))
	assert.Error(t, indexer.IndexByID(ctx, "  "))
}
