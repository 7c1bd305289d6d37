package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/repository"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/infrastructure/messaging"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/errors"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/metrics"
)

// JobService 索引任务：API 侧落库并投递，worker 侧消费执行。
type JobService struct {
	jobs     repository.JobRepository
	producer *messaging.Producer
	indexer  *Indexer
}

// NewJobService 创建任务服务
func NewJobService(jobs repository.JobRepository, producer *messaging.Producer, indexer *Indexer) *JobService {
	return &JobService{
		jobs:     jobs,
		producer: producer,
		indexer:  indexer,
	}
}

// SubmitDocumentIndex 提交单文档索引任务
func (s *JobService) SubmitDocumentIndex(ctx context.Context, documentID string) (*entity.IndexJob, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, errors.New(errors.CodeInvalidParam, "document_id is required")
	}
	return s.submit(ctx, documentID, entity.JobTypeDocumentIndex)
}

// SubmitRebuild 提交全量重建任务
func (s *JobService) SubmitRebuild(ctx context.Context) (*entity.IndexJob, error) {
	return s.submit(ctx, "", entity.JobTypeIndexRebuild)
}

func (s *JobService) submit(ctx context.Context, documentID string, jobType entity.JobType) (*entity.IndexJob, error) {
	job := entity.NewIndexJob(documentID, jobType, nil)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	_, err := s.producer.PublishIndexJob(ctx, &messaging.IndexJobMessage{
		JobID:      job.ID,
		DocumentID: documentID,
		JobType:    string(jobType),
	})
	if err != nil {
		// 投递失败立刻标记任务失败，避免调用方无限轮询 pending
		job.Fail(fmt.Sprintf("failed to enqueue: %v", err))
		if uerr := s.jobs.Update(ctx, job); uerr != nil {
			logger.Error(ctx, "failed to mark job as failed", uerr, "job_id", job.ID)
		}
		return nil, errors.Wrap(err, errors.CodeIndexingFailed, "failed to enqueue index job")
	}

	logger.Info(ctx, "index job submitted",
		"job_id", job.ID,
		"job_type", string(jobType),
		"document_id", documentID,
	)
	return job, nil
}

// GetJob 查询任务状态
func (s *JobService) GetJob(ctx context.Context, id string) (*entity.IndexJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// HandleIndexJobMessage worker 侧消息处理器
func (s *JobService) HandleIndexJobMessage(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.IndexJobMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		// 非法载荷不可重试，记录后吞掉
		logger.Error(ctx, "invalid index job payload", err, "message_id", msg.ID)
		return nil
	}

	job, err := s.jobs.GetByID(ctx, payload.JobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		logger.Info(ctx, "job already terminal, skipped", "job_id", job.ID, "status", string(job.Status))
		return nil
	}

	job.Start()
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}

	start := time.Now()
	runErr := s.execute(ctx, job)
	elapsed := time.Since(start)

	if runErr != nil {
		job.RetryCount++
		job.Fail(runErr.Error())
		metrics.IndexJobsTotal.WithLabelValues("failed").Inc()
		metrics.IndexJobDuration.WithLabelValues("failed").Observe(elapsed.Seconds())
	} else {
		result, _ := json.Marshal(map[string]any{"elapsed_ms": elapsed.Milliseconds()})
		job.Complete(result)
		metrics.IndexJobsTotal.WithLabelValues("completed").Inc()
		metrics.IndexJobDuration.WithLabelValues("completed").Observe(elapsed.Seconds())
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}
	return runErr
}

func (s *JobService) execute(ctx context.Context, job *entity.IndexJob) error {
	switch job.JobType {
	case entity.JobTypeDocumentIndex:
		return s.indexer.IndexByID(ctx, job.DocumentID)
	case entity.JobTypeIndexRebuild:
		return s.indexer.Rebuild(ctx)
	default:
		return fmt.Errorf("unsupported job type: %s", job.JobType)
	}
}
