// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	assistantHandler *handler.AssistantHandler,
	jobHandler *handler.JobHandler,
) {
	// 问答
	assistant := v1.Group("/assistant")
	{
		assistant.POST("/ask", assistantHandler.Ask)
		assistant.POST("/invalidate", assistantHandler.Invalidate)
		assistant.GET("/health-summary", assistantHandler.HealthSummary)
	}

	// 知识库索引
	knowledge := v1.Group("/knowledge")
	{
		knowledge.POST("/reindex", jobHandler.Reindex)
	}

	// 任务管理
	jobs := v1.Group("/jobs")
	{
		jobs.GET("/:jid", jobHandler.GetJob)
	}
}
