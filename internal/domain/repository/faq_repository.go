// Package repository 定义领域仓储接口
package repository

import (
	"context"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
)

// FAQRepository 问答条目仓储（只读）
type FAQRepository interface {
	// AllActive 返回指定语言下所有启用的条目；locale 为空表示不过滤
	AllActive(ctx context.Context, locale string) ([]*entity.FAQEntry, error)
	// GetByID 按 ID 获取条目
	GetByID(ctx context.Context, id string) (*entity.FAQEntry, error)
}
