package dto

import (
	"time"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
)

// ReindexRequest 重索引请求；document_id 为空表示全量重建。
type ReindexRequest struct {
	DocumentID string `json:"document_id,omitempty"`
}

// JobResponse 任务响应
type JobResponse struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"document_id,omitempty"`
	JobType      string     `json:"job_type"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RetryCount   int        `json:"retry_count"`
	DurationMs   int        `json:"duration_ms,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewJobResponse 从实体构建响应
func NewJobResponse(job *entity.IndexJob) *JobResponse {
	return &JobResponse{
		ID:           job.ID,
		DocumentID:   job.DocumentID,
		JobType:      string(job.JobType),
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
		RetryCount:   job.RetryCount,
		DurationMs:   job.DurationMs,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
}
