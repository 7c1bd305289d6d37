package assistant

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/repository"
	"github.com/ilhaam43/horila-apps-ai-sub000/pkg/logger"
)

// StrategyNameKeyword 关键词策略名
const StrategyNameKeyword = "keyword"

// FAQSnapshotStore 问答条目的内存快照。
// 后台按间隔刷新；收到失效信号时立即刷新。快照读路径无锁争用（RWMutex 读锁）。
type FAQSnapshotStore struct {
	repo     repository.FAQRepository
	interval time.Duration

	mu        sync.RWMutex
	entries   []*entity.FAQEntry
	refreshed time.Time
}

// NewFAQSnapshotStore 创建快照存储
func NewFAQSnapshotStore(repo repository.FAQRepository, interval time.Duration) *FAQSnapshotStore {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &FAQSnapshotStore{
		repo:     repo,
		interval: interval,
	}
}

// Refresh 从仓储重建快照
func (s *FAQSnapshotStore) Refresh(ctx context.Context) error {
	entries, err := s.repo.AllActive(ctx, "")
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = entries
	s.refreshed = time.Now()
	s.mu.Unlock()
	return nil
}

// Entries 返回当前快照；过期时先尝试刷新，刷新失败沿用旧快照。
func (s *FAQSnapshotStore) Entries(ctx context.Context) []*entity.FAQEntry {
	s.mu.RLock()
	stale := time.Since(s.refreshed) > s.interval
	entries := s.entries
	s.mu.RUnlock()

	if stale {
		if err := s.Refresh(ctx); err != nil {
			logger.Warn(ctx, "faq snapshot refresh failed, serving stale entries", "error", err.Error())
			return entries
		}
		s.mu.RLock()
		entries = s.entries
		s.mu.RUnlock()
	}
	return entries
}

// KeywordStrategy 基于词元重合度的精确匹配策略。
// 人工维护的问答条目权威性高，因此优先级为 0（最先执行）。
type KeywordStrategy struct {
	store *FAQSnapshotStore
}

// NewKeywordStrategy 创建关键词策略
func NewKeywordStrategy(store *FAQSnapshotStore) *KeywordStrategy {
	return &KeywordStrategy{store: store}
}

func (s *KeywordStrategy) Name() string { return StrategyNameKeyword }

func (s *KeywordStrategy) Priority() int { return 0 }

func (s *KeywordStrategy) Applicable(ctx context.Context, q Query) bool {
	return s != nil && s.store != nil && len(s.store.Entries(ctx)) > 0
}

// Normalize 关键词原始分已在 [0,1]
func (s *KeywordStrategy) Normalize(raw float64) float64 {
	return clamp01(raw)
}

// Search 计算查询词元与条目问/答文本的重合度。
// raw_score = 命中的查询词元数 / 查询词元总数。
func (s *KeywordStrategy) Search(ctx context.Context, q Query, limit int) ([]Candidate, error) {
	tokens := Tokenize(q.Text)
	if len(tokens) == 0 {
		return nil, nil
	}

	entries := s.store.Entries(ctx)
	candidates := make([]Candidate, 0, len(entries))

	for _, entry := range entries {
		if entry == nil || !entry.Active {
			continue
		}
		if q.Locale != "" && entry.Locale != "" && !strings.EqualFold(entry.Locale, q.Locale) {
			continue
		}
		if q.ContextFilter != "" && entry.Category != "" && !strings.EqualFold(entry.Category, q.ContextFilter) {
			continue
		}

		entryTokens := tokenSet(entry.Question + " " + entry.Answer)
		matched := 0
		for _, tok := range tokens {
			if _, ok := entryTokens[tok]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		candidates = append(candidates, Candidate{
			SourceID:   entry.ID,
			SourceKind: SourceKindFAQ,
			Title:      entry.Question,
			Snippet:    entry.Answer,
			RawScore:   float64(matched) / float64(len(tokens)),
			Strategy:   StrategyNameKeyword,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RawScore != candidates[j].RawScore {
			return candidates[i].RawScore > candidates[j].RawScore
		}
		return candidates[i].SourceID < candidates[j].SourceID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Tokenize 将文本切为小写词元（字母/数字串）
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func tokenSet(s string) map[string]struct{} {
	tokens := Tokenize(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
