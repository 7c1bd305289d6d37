package repository

import (
	"context"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
)

// DocumentRepository 知识库文档仓储（只读）
type DocumentRepository interface {
	// GetByID 按 ID 获取文档
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetByIDs 批量获取文档元数据
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Document, error)
	// ListActive 列出所有启用的文档（用于全量重建索引）
	ListActive(ctx context.Context) ([]*entity.Document, error)
}
