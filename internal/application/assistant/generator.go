package assistant

import (
	"context"
	"fmt"
	"strings"
)

// Generator 文本生成后端的最小依赖（port）。
// 核心把它当作纯函数 (prompt) -> text，不关心后端实现。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// answerPromptTemplate 固定的回答提示词模板。
// 约束：只允许基于给定上下文回答，避免模型编造 HR 政策。
const answerPromptTemplate = `You are an HR assistant. Answer the employee's question using ONLY the knowledge base context below. If the context does not contain the answer, say you don't know and suggest contacting HR.

Context:
%s

Question: %s

Answer:`

// BuildPrompt 组装生成提示词
func BuildPrompt(queryText, assembledContext string) string {
	ctx := strings.TrimSpace(assembledContext)
	if ctx == "" {
		ctx = "(empty)"
	}
	return fmt.Sprintf(answerPromptTemplate, ctx, strings.TrimSpace(queryText))
}
