package assistant

// Query 一次问答请求的不可变输入。
type Query struct {
	Text string
	// ContextFilter 限定检索范围（如部门/分类），为空表示不限定。
	ContextFilter string
	Locale        string
	// Scope 请求方权限范围，核心只透传不解析。
	Scope string
}

// SourceKind 候选来源类型
type SourceKind string

const (
	SourceKindFAQ      SourceKind = "faq_entry"
	SourceKindDocument SourceKind = "document"
)

// Candidate 策略召回的原始候选，创建后不再修改。
type Candidate struct {
	SourceID   string     `json:"source_id"`
	SourceKind SourceKind `json:"source_kind"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	// RawScore 策略自有量纲的原始分（keyword: [0,1]，semantic: [-1,1]）
	RawScore float64 `json:"raw_score"`
	Strategy string  `json:"strategy"`
}

// ScoredCandidate 归一化打分后的候选
type ScoredCandidate struct {
	Candidate
	// Relevance 跨策略可比的 [0,1] 相关度
	Relevance float64 `json:"relevance"`
	Rank      int     `json:"rank"`
}

// RetrievalResult 一次流水线运行的完整产出，也是缓存值。
type RetrievalResult struct {
	Candidates        []ScoredCandidate `json:"candidates"`
	AssembledContext  string            `json:"assembled_context"`
	AnswerText        string            `json:"answer_text"`
	Confidence        float64           `json:"confidence"`
	ReferencedSources []string          `json:"referenced_sources"`
	// Degraded 表示生成后端失败后走了候选摘录兜底
	Degraded bool `json:"degraded,omitempty"`
}

// FallbackAnswer 无候选时的固定兜底回答
const FallbackAnswer = "I don't have enough information in the knowledge base to answer that. Please contact HR directly or rephrase your question."

// referencedSources 提取去重且排序的来源 ID 集合
func referencedSources(scored []ScoredCandidate) []string {
	if len(scored) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(scored))
	out := make([]string, 0, len(scored))
	for _, sc := range scored {
		if _, ok := seen[sc.SourceID]; ok {
			continue
		}
		seen[sc.SourceID] = struct{}{}
		out = append(out, sc.SourceID)
	}
	sortStrings(out)
	return out
}
