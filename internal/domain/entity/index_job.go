package entity

import (
	"encoding/json"
	"time"
)

// JobType 任务类型
type JobType string

const (
	JobTypeDocumentIndex JobType = "document_index"
	JobTypeIndexRebuild  JobType = "index_rebuild"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IndexJob 文档向量化任务
// 由 API 提交、worker 异步执行，调用方通过 job id 轮询状态。
type IndexJob struct {
	ID           string          `json:"id"`
	DocumentID   string          `json:"document_id,omitempty"`
	JobType      JobType         `json:"job_type"`
	Status       JobStatus       `json:"status"`
	InputParams  json.RawMessage `json:"input_params,omitempty"`
	OutputResult json.RawMessage `json:"output_result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RetryCount   int             `json:"retry_count"`
	DurationMs   int             `json:"duration_ms,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// NewIndexJob 创建新任务
func NewIndexJob(documentID string, jobType JobType, inputParams json.RawMessage) *IndexJob {
	return &IndexJob{
		DocumentID:  documentID,
		JobType:     jobType,
		Status:      JobStatusPending,
		InputParams: inputParams,
		CreatedAt:   time.Now(),
	}
}

// Start 开始执行任务
func (j *IndexJob) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// Complete 完成任务
func (j *IndexJob) Complete(result json.RawMessage) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.OutputResult = result
	j.CompletedAt = &now
	if j.StartedAt != nil {
		j.DurationMs = int(now.Sub(*j.StartedAt).Milliseconds())
	}
}

// Fail 标记任务失败
func (j *IndexJob) Fail(message string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = message
	j.CompletedAt = &now
}

// IsTerminal 是否处于终态
func (j *IndexJob) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}
