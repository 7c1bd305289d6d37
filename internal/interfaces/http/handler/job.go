package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/knowledge"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/interfaces/http/dto"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/errors"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
)

// JobHandler 索引任务处理器
type JobHandler struct {
	jobs *knowledge.JobService
}

// NewJobHandler 创建任务处理器
func NewJobHandler(jobs *knowledge.JobService) *JobHandler {
	return &JobHandler{
		jobs: jobs,
	}
}

// Reindex 提交重索引任务
// @Summary 提交重索引任务
// @Description 提交单文档索引或全量重建任务，异步执行
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param request body dto.ReindexRequest true "重索引请求"
// @Success 202 {object} dto.Response[dto.JobResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/knowledge/reindex [post]
func (h *JobHandler) Reindex(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ReindexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var submitted *dto.JobResponse
	if req.DocumentID != "" {
		j, serr := h.jobs.SubmitDocumentIndex(ctx, req.DocumentID)
		if serr != nil {
			h.writeSubmitError(c, serr)
			return
		}
		submitted = dto.NewJobResponse(j)
	} else {
		j, serr := h.jobs.SubmitRebuild(ctx)
		if serr != nil {
			h.writeSubmitError(c, serr)
			return
		}
		submitted = dto.NewJobResponse(j)
	}

	dto.Accepted(c, submitted)
}

// GetJob 查询任务状态
// @Summary 查询任务状态
// @Description 按任务 ID 轮询任务执行状态
// @Tags Knowledge
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("jid")

	job, err := h.jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.IsAppError(err) {
			appErr := errors.AsAppError(err)
			dto.Error(c, appErr.HTTPStatus, appErr.Message)
			return
		}
		logger.Error(ctx, "failed to get job", err)
		dto.InternalError(c, "failed to get job")
		return
	}

	dto.Success(c, dto.NewJobResponse(job))
}

func (h *JobHandler) writeSubmitError(c *gin.Context, err error) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		dto.Error(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	logger.Error(c.Request.Context(), "failed to submit index job", err)
	dto.InternalError(c, "failed to submit index job")
}
