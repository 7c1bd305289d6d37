// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/assistant"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/interfaces/http/dto"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/errors"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
)

// AssistantHandler 问答处理器
type AssistantHandler struct {
	service *assistant.Service
}

// NewAssistantHandler 创建问答处理器
func NewAssistantHandler(service *assistant.Service) *AssistantHandler {
	return &AssistantHandler{
		service: service,
	}
}

// Ask 回答员工问题
// @Summary 知识库问答
// @Description 基于知识库回答问题；检索为空或生成失败时降级但不报错
// @Tags Assistant
// @Accept json
// @Produce json
// @Param request body dto.AskRequest true "问答请求"
// @Success 200 {object} dto.Response[dto.AnswerResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/assistant/ask [post]
func (h *AssistantHandler) Ask(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.service.Answer(ctx, assistant.AskInput{
		Text:          req.Question,
		ContextFilter: req.ContextFilter,
		Locale:        req.Locale,
		Scope:         req.Scope,
	})
	if err != nil {
		if errors.IsAppError(err) {
			appErr := errors.AsAppError(err)
			dto.Error(c, appErr.HTTPStatus, appErr.Message)
			return
		}
		logger.Error(ctx, "failed to answer question", err)
		dto.InternalError(c, "failed to answer question")
		return
	}

	dto.Success(c, dto.NewAnswerResponse(out))
}

// Invalidate 按来源失效缓存
// @Summary 缓存失效
// @Description 知识来源变更后清除相关缓存并刷新问答条目快照
// @Tags Assistant
// @Accept json
// @Produce json
// @Param request body dto.InvalidateRequest true "失效请求"
// @Success 200 {object} dto.Response[dto.InvalidateResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/assistant/invalidate [post]
func (h *AssistantHandler) Invalidate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.InvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	removed, err := h.service.Invalidate(ctx, req.SourceID)
	if err != nil {
		if errors.IsAppError(err) {
			appErr := errors.AsAppError(err)
			dto.Error(c, appErr.HTTPStatus, appErr.Message)
			return
		}
		logger.Error(ctx, "failed to invalidate cache", err)
		dto.InternalError(c, "failed to invalidate cache")
		return
	}

	dto.Success(c, &dto.InvalidateResponse{
		SourceID: req.SourceID,
		Removed:  removed,
	})
}

// HealthSummary 性能摘要
// @Summary 性能摘要
// @Description 返回各检索策略与问答流水线的调用统计
// @Tags Assistant
// @Produce json
// @Success 200 {object} dto.Response[dto.HealthSummaryResponse]
// @Router /v1/assistant/health-summary [get]
func (h *AssistantHandler) HealthSummary(c *gin.Context) {
	dto.Success(c, &dto.HealthSummaryResponse{
		Services: h.service.HealthSummary(),
	})
}
