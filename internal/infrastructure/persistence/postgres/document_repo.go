package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/repository"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/errors"
)

// DocumentRepository 知识库文档仓储实现
type DocumentRepository struct {
	client *Client
}

// NewDocumentRepository 创建文档仓储
func NewDocumentRepository(client *Client) *DocumentRepository {
	return &DocumentRepository{client: client}
}

var _ repository.DocumentRepository = (*DocumentRepository)(nil)

const documentColumns = `id, title, content, department, locale, active, created_at, updated_at`

// GetByID 按 ID 获取文档
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetByID")
	defer span.End()

	row := r.client.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM ai_documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.CodeDocumentNotFound, "document not found")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetByIDs 批量获取文档
func (r *DocumentRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return []*entity.Document{}, nil
	}

	rows, err := r.client.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM ai_documents WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListActive 列出所有启用的文档
func (r *DocumentRepository) ListActive(ctx context.Context) ([]*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.ListActive")
	defer span.End()

	rows, err := r.client.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM ai_documents WHERE active = TRUE ORDER BY id`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func collectDocuments(rows *sql.Rows) ([]*entity.Document, error) {
	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document
	if err := row.Scan(
		&doc.ID, &doc.Title, &doc.Content, &doc.Department, &doc.Locale,
		&doc.Active, &doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}
