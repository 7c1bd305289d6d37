package repository

import (
	"context"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
)

// JobRepository 索引任务仓储
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.IndexJob) error
	// GetByID 按 ID 获取任务
	GetByID(ctx context.Context, id string) (*entity.IndexJob, error)
	// Update 更新任务状态与结果
	Update(ctx context.Context, job *entity.IndexJob) error
}
