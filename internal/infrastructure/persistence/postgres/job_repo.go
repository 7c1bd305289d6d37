package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/repository"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/errors"
)

// JobRepository 索引任务仓储实现
type JobRepository struct {
	client *Client
}

// NewJobRepository 创建任务仓储
func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

var _ repository.JobRepository = (*JobRepository)(nil)

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.IndexJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Create")
	defer span.End()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = job.CreatedAt

	_, err := r.client.db.ExecContext(ctx,
		`INSERT INTO ai_index_jobs
			(id, document_id, job_type, status, input_params, error_message, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, nullString(job.DocumentID), job.JobType, job.Status,
		nullBytes(job.InputParams), job.ErrorMessage, job.RetryCount,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID 按 ID 获取任务
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.IndexJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetByID")
	defer span.End()

	row := r.client.db.QueryRowContext(ctx,
		`SELECT id, document_id, job_type, status, input_params, output_result,
			error_message, retry_count, duration_ms, created_at, updated_at, started_at, completed_at
		FROM ai_index_jobs WHERE id = $1`, id)

	var job entity.IndexJob
	var docID sql.NullString
	var inputParams, outputResult []byte
	var durationMs sql.NullInt64
	var startedAt, completedAt sql.NullTime

	if err := row.Scan(
		&job.ID, &docID, &job.JobType, &job.Status, &inputParams, &outputResult,
		&job.ErrorMessage, &job.RetryCount, &durationMs,
		&job.CreatedAt, &job.UpdatedAt, &startedAt, &completedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.CodeJobNotFound, "job not found")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.DocumentID = docID.String
	job.InputParams = inputParams
	job.OutputResult = outputResult
	job.DurationMs = int(durationMs.Int64)
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

// Update 更新任务状态与结果
func (r *JobRepository) Update(ctx context.Context, job *entity.IndexJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Update")
	defer span.End()

	job.UpdatedAt = time.Now()

	res, err := r.client.db.ExecContext(ctx,
		`UPDATE ai_index_jobs SET
			status = $2, output_result = $3, error_message = $4, retry_count = $5,
			duration_ms = $6, updated_at = $7, started_at = $8, completed_at = $9
		WHERE id = $1`,
		job.ID, job.Status, nullBytes(job.OutputResult), job.ErrorMessage, job.RetryCount,
		job.DurationMs, job.UpdatedAt, job.StartedAt, job.CompletedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New(errors.CodeJobNotFound, "job not found")
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
