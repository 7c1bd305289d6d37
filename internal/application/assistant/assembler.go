package assistant

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// AssembleContext 将排名靠前的候选装配为带来源标注的有界上下文。
// 按 rank 顺序贪心追加完整块；块以超预算即停，绝不截断块内部。
// 输入为空时返回空串（不是错误）。
func AssembleContext(scored []ScoredCandidate, maxChars int) string {
	if len(scored) == 0 {
		return ""
	}
	if maxChars <= 0 {
		maxChars = 4000
	}

	var sb strings.Builder
	used := 0
	for _, sc := range scored {
		block := formatContextBlock(sc)
		blockLen := utf8.RuneCountInString(block)
		if used > 0 {
			blockLen += 2 // 块之间的空行
		}
		if used+blockLen > maxChars {
			break
		}
		if used > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(block)
		used += blockLen
	}
	return sb.String()
}

// formatContextBlock 单个候选的上下文块，首行为来源标注。
func formatContextBlock(sc ScoredCandidate) string {
	kind := "Document"
	if sc.SourceKind == SourceKindFAQ {
		kind = "FAQ"
	}
	title := strings.TrimSpace(sc.Title)
	snippet := strings.TrimSpace(sc.Snippet)
	if title == "" {
		return fmt.Sprintf("[%d] (%s:%s)\n%s", sc.Rank, kind, sc.SourceID, snippet)
	}
	return fmt.Sprintf("[%d] (%s:%s) %s\n%s", sc.Rank, kind, sc.SourceID, title, snippet)
}
