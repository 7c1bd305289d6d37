package assistant

import "sort"

// Scorer 将异构策略的原始分归一化到同一 [0,1] 量纲并产出确定性排序。
// 无状态，可安全并发共享。
type Scorer struct {
	registry      *Registry
	maxCandidates int
}

// NewScorer 创建打分器
func NewScorer(registry *Registry, maxCandidates int) *Scorer {
	if maxCandidates <= 0 {
		maxCandidates = 8
	}
	return &Scorer{
		registry:      registry,
		maxCandidates: maxCandidates,
	}
}

// Score 归一化、按来源去重（保留最高分）、确定性排序并截断。
// 排序键：relevance 降序 -> 策略优先级升序（人工条目权威）-> source_id 升序。
func (s *Scorer) Score(candidates []Candidate) []ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		relevance := clamp01(c.RawScore)
		if st, ok := s.registry.Lookup(c.Strategy); ok {
			relevance = st.Normalize(c.RawScore)
		}
		scored = append(scored, ScoredCandidate{
			Candidate: c,
			Relevance: relevance,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return s.less(scored[i], scored[j])
	})

	// 同一来源可能被多个策略召回，保留排序最优的一条
	seen := make(map[string]struct{}, len(scored))
	deduped := scored[:0]
	for _, sc := range scored {
		if _, ok := seen[sc.SourceID]; ok {
			continue
		}
		seen[sc.SourceID] = struct{}{}
		deduped = append(deduped, sc)
	}

	if len(deduped) > s.maxCandidates {
		deduped = deduped[:s.maxCandidates]
	}

	for i := range deduped {
		deduped[i].Rank = i + 1
	}
	return deduped
}

func (s *Scorer) less(a, b ScoredCandidate) bool {
	if a.Relevance != b.Relevance {
		return a.Relevance > b.Relevance
	}
	pa, pb := s.registry.priorityOf(a.Strategy), s.registry.priorityOf(b.Strategy)
	if pa != pb {
		return pa < pb
	}
	return a.SourceID < b.SourceID
}
