package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/domain/entity"
)

// fakeFAQRepo 内存问答条目仓储
type fakeFAQRepo struct {
	entries []*entity.FAQEntry
	err     error
	calls   int
}

func (f *fakeFAQRepo) AllActive(_ context.Context, locale string) ([]*entity.FAQEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*entity.FAQEntry, 0, len(f.entries))
	for _, e := range f.entries {
		if !e.Active {
			continue
		}
		if locale != "" && e.Locale != locale {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeFAQRepo) GetByID(_ context.Context, id string) (*entity.FAQEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func faqEntry(id, question, answer string) *entity.FAQEntry {
	return &entity.FAQEntry{
		ID:       id,
		Question: question,
		Answer:   answer,
		Locale:   "en",
		Active:   true,
	}
}

func newTestStore(t *testing.T, entries ...*entity.FAQEntry) *FAQSnapshotStore {
	t.Helper()
	store := NewFAQSnapshotStore(&fakeFAQRepo{entries: entries}, 0)
	require.NoError(t, store.Refresh(context.Background()))
	return store
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"how", "to", "create", "an", "employee"}, Tokenize("How to create an Employee?"))
	assert.Equal(t, []string{"pto", "2024"}, Tokenize("PTO/2024"))
	assert.Empty(t, Tokenize("?!."))
}

func TestKeywordStrategy_Search(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t,
		faqEntry("faq-001", "How to create an Employee?", "Go to Employee > Create and fill in the profile form."),
		faqEntry("faq-002", "How to request leave?", "Open the Leave module and submit a request."),
		faqEntry("faq-003", "What is the payroll cutoff date?", "Payroll closes on the 25th of each month."),
	)
	strategy := NewKeywordStrategy(store)

	t.Run("overlap ratio scoring", func(t *testing.T) {
		candidates, err := strategy.Search(ctx, Query{Text: "How to create an Employee?"}, 10)
		require.NoError(t, err)
		require.NotEmpty(t, candidates)

		// 全部 5 个查询词元命中 faq-001
		assert.Equal(t, "faq-001", candidates[0].SourceID)
		assert.InDelta(t, 1.0, candidates[0].RawScore, 1e-9)
		assert.Equal(t, SourceKindFAQ, candidates[0].SourceKind)
		assert.Equal(t, StrategyNameKeyword, candidates[0].Strategy)
	})

	t.Run("no overlap yields no candidates", func(t *testing.T) {
		candidates, err := strategy.Search(ctx, Query{Text: "quarterly revenue forecast"}, 10)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("empty query yields no candidates", func(t *testing.T) {
		candidates, err := strategy.Search(ctx, Query{Text: "  ?! "}, 10)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("limit truncates", func(t *testing.T) {
		candidates, err := strategy.Search(ctx, Query{Text: "how to the"}, 1)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(candidates), 1)
	})

	t.Run("deterministic tie break by source id", func(t *testing.T) {
		tied := newTestStore(t,
			faqEntry("faq-b", "remote work policy", "See the handbook."),
			faqEntry("faq-a", "remote work policy", "See the handbook."),
		)
		candidates, err := NewKeywordStrategy(tied).Search(ctx, Query{Text: "remote work policy"}, 10)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, "faq-a", candidates[0].SourceID)
		assert.Equal(t, "faq-b", candidates[1].SourceID)
	})
}

func TestKeywordStrategy_Filters(t *testing.T) {
	ctx := context.Background()
	hr := faqEntry("faq-hr", "How to create an Employee?", "Use the Employee module.")
	hr.Category = "hr"
	payroll := faqEntry("faq-payroll", "How to create an Employee bonus?", "Use the Payroll module.")
	payroll.Category = "payroll"
	indonesian := faqEntry("faq-id", "Bagaimana cara membuat Employee?", "Buka modul Employee.")
	indonesian.Locale = "id"
	indonesian.Category = "general"

	strategy := NewKeywordStrategy(newTestStore(t, hr, payroll, indonesian))

	t.Run("context filter restricts category", func(t *testing.T) {
		candidates, err := strategy.Search(ctx, Query{Text: "create an employee", ContextFilter: "hr"}, 10)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "faq-hr", candidates[0].SourceID)
	})

	t.Run("locale restricts entries", func(t *testing.T) {
		candidates, err := strategy.Search(ctx, Query{Text: "employee", Locale: "id"}, 10)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "faq-id", candidates[0].SourceID)
	})
}

func TestKeywordStrategy_Applicable(t *testing.T) {
	ctx := context.Background()

	empty := NewKeywordStrategy(newTestStore(t))
	assert.False(t, empty.Applicable(ctx, Query{Text: "anything"}))

	populated := NewKeywordStrategy(newTestStore(t, faqEntry("faq-001", "q", "a")))
	assert.True(t, populated.Applicable(ctx, Query{Text: "anything"}))
}

func TestFAQSnapshotStore_ServesStaleOnRefreshFailure(t *testing.T) {
	ctx := context.Background()
	repo := &fakeFAQRepo{entries: []*entity.FAQEntry{faqEntry("faq-001", "q", "a")}}
	store := NewFAQSnapshotStore(repo, 1) // 纳秒级间隔，下次读取必然触发刷新
	require.NoError(t, store.Refresh(ctx))

	repo.err = assert.AnError
	entries := store.Entries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "faq-001", entries[0].ID)
}
