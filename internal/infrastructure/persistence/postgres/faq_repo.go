package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/repository"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/errors"
)

// FAQRepository 问答条目仓储实现
type FAQRepository struct {
	client *Client
}

// NewFAQRepository 创建问答条目仓储
func NewFAQRepository(client *Client) *FAQRepository {
	return &FAQRepository{client: client}
}

var _ repository.FAQRepository = (*FAQRepository)(nil)

// AllActive 返回指定语言下所有启用的条目
func (r *FAQRepository) AllActive(ctx context.Context, locale string) ([]*entity.FAQEntry, error) {
	ctx, span := tracer.Start(ctx, "postgres.FAQRepository.AllActive")
	defer span.End()

	query := `SELECT id, question, answer, category, locale, active, created_at, updated_at
		FROM ai_faq_entries WHERE active = TRUE`
	args := []any{}
	if locale != "" {
		query += ` AND locale = $1`
		args = append(args, locale)
	}
	query += ` ORDER BY id`

	rows, err := r.client.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list faq entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.FAQEntry
	for rows.Next() {
		e, err := scanFAQEntry(rows)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate faq entries: %w", err)
	}
	return entries, nil
}

// GetByID 按 ID 获取条目
func (r *FAQRepository) GetByID(ctx context.Context, id string) (*entity.FAQEntry, error) {
	ctx, span := tracer.Start(ctx, "postgres.FAQRepository.GetByID")
	defer span.End()

	row := r.client.db.QueryRowContext(ctx,
		`SELECT id, question, answer, category, locale, active, created_at, updated_at
		FROM ai_faq_entries WHERE id = $1`, id)

	e, err := scanFAQEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.CodeFAQEntryNotFound, "faq entry not found")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get faq entry: %w", err)
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFAQEntry(row rowScanner) (*entity.FAQEntry, error) {
	var e entity.FAQEntry
	if err := row.Scan(
		&e.ID, &e.Question, &e.Answer, &e.Category, &e.Locale,
		&e.Active, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan faq entry: %w", err)
	}
	return &e, nil
}
