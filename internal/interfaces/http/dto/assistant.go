package dto

import (
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/assistant"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/monitor"
)

// AskRequest 问答请求
type AskRequest struct {
	Question      string `json:"question" binding:"required"`
	ContextFilter string `json:"context_filter,omitempty"`
	Locale        string `json:"locale,omitempty"`
	Scope         string `json:"scope,omitempty"`
}

// AnswerResponse 问答响应
type AnswerResponse struct {
	AnswerText        string                      `json:"answer_text"`
	Confidence        float64                     `json:"confidence"`
	ReferencedSources []string                    `json:"referenced_sources"`
	Candidates        []assistant.ScoredCandidate `json:"candidates,omitempty"`
	Degraded          bool                        `json:"degraded,omitempty"`
	Cached            bool                        `json:"cached"`
	Fingerprint       string                      `json:"fingerprint"`
}

// NewAnswerResponse 从服务输出构建响应
func NewAnswerResponse(out *assistant.AnswerOutput) *AnswerResponse {
	return &AnswerResponse{
		AnswerText:        out.AnswerText,
		Confidence:        out.Confidence,
		ReferencedSources: out.ReferencedSources,
		Candidates:        out.Candidates,
		Degraded:          out.Degraded,
		Cached:            out.Cached,
		Fingerprint:       out.Fingerprint,
	}
}

// InvalidateRequest 缓存失效请求
type InvalidateRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

// InvalidateResponse 缓存失效响应
type InvalidateResponse struct {
	SourceID string `json:"source_id"`
	Removed  int    `json:"removed"`
}

// HealthSummaryResponse 性能摘要响应
type HealthSummaryResponse struct {
	Services map[string]monitor.Summary `json:"services"`
}
