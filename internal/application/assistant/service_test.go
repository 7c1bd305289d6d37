package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/ilhaam43/horila-apps-ai-sub000/pkg/errors"
)

// stubGenerator 可编程的生成后端
type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type serviceFixture struct {
	service   *Service
	generator *stubGenerator
	keyword   *stubStrategy
	semantic  *stubStrategy
}

func newServiceFixture(t *testing.T, strategies ...Strategy) *serviceFixture {
	t.Helper()

	var keyword, semantic *stubStrategy
	if len(strategies) == 0 {
		keyword = &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: true,
			candidates: []Candidate{
				{SourceID: "faq-001", SourceKind: SourceKindFAQ, Strategy: StrategyNameKeyword,
					Title: "How to create an Employee?", Snippet: "Use the Employee module.", RawScore: 1.0},
			}}
		semantic = &stubStrategy{name: StrategyNameSemantic, priority: 1, applicable: true,
			normalize: func(raw float64) float64 { return clamp01((raw + 1) / 2) }}
		strategies = []Strategy{keyword, semantic}
	}

	registry := NewRegistry(strategies...)
	orchestrator := NewOrchestrator(registry, NewScorer(registry, 8), nil, OrchestratorConfig{
		ConfidenceFloor:     0.55,
		MinConfidentResults: 1,
	})
	generator := &stubGenerator{answer: "Navigate to the Employee module and click Create."}

	service := NewService(ServiceConfig{}, orchestrator, generator,
		NewResultCache(time.Minute), nil, nil)

	return &serviceFixture{
		service:   service,
		generator: generator,
		keyword:   keyword,
		semantic:  semantic,
	}
}

func TestService_Answer(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty question", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.Answer(ctx, AskInput{Text: "   "})
		require.Error(t, err)
		require.True(t, pkgerrors.IsAppError(err))
		assert.Equal(t, pkgerrors.CodeInvalidParam, pkgerrors.AsAppError(err).Code)
	})

	t.Run("answers with generated text and top relevance confidence", func(t *testing.T) {
		f := newServiceFixture(t)
		out, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err)

		assert.Equal(t, "Navigate to the Employee module and click Create.", out.AnswerText)
		assert.InDelta(t, 1.0, out.Confidence, 1e-9)
		assert.GreaterOrEqual(t, out.Confidence, 0.7)
		assert.Equal(t, []string{"faq-001"}, out.ReferencedSources)
		assert.False(t, out.Degraded)
		assert.False(t, out.Cached)
		assert.NotEmpty(t, out.Fingerprint)
		assert.Equal(t, 0, f.semantic.searchCalls, "confident keyword hit must not trigger semantic search")
	})

	t.Run("second identical question is served from cache", func(t *testing.T) {
		f := newServiceFixture(t)
		first, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err)
		require.False(t, first.Cached)

		second, err := f.service.Answer(ctx, AskInput{Text: "  how to CREATE an employee?  "})
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.Equal(t, first.Fingerprint, second.Fingerprint)
		assert.Equal(t, first.AnswerText, second.AnswerText)
		assert.Equal(t, 1, f.generator.calls)
	})

	t.Run("generation failure degrades to top snippet", func(t *testing.T) {
		f := newServiceFixture(t)
		f.generator.err = ErrBackendUnavailable

		out, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err, "generation failure must not surface as an error")

		assert.True(t, out.Degraded)
		assert.Equal(t, "Use the Employee module.", out.AnswerText)
		// 降级置信度严格低于正常生成路径
		assert.InDelta(t, 0.6, out.Confidence, 1e-9)
		assert.Less(t, out.Confidence, 1.0)
		assert.Equal(t, []string{"faq-001"}, out.ReferencedSources)
	})

	t.Run("empty retrieval returns fallback answer", func(t *testing.T) {
		empty := &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: true}
		f := newServiceFixture(t, empty)

		out, err := f.service.Answer(ctx, AskInput{Text: "completely unrelated question"})
		require.NoError(t, err)

		assert.Equal(t, FallbackAnswer, out.AnswerText)
		assert.Zero(t, out.Confidence)
		assert.Empty(t, out.Candidates)
		assert.Empty(t, out.ReferencedSources)
		assert.False(t, out.Degraded)
		assert.Equal(t, 0, f.generator.calls, "no context means nothing to generate")
	})

	t.Run("degraded result is cached like any other", func(t *testing.T) {
		f := newServiceFixture(t)
		f.generator.err = ErrBackendTimeout

		first, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err)
		require.True(t, first.Degraded)

		second, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.True(t, second.Degraded)
	})
}

func TestService_Invalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty source id", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.Invalidate(ctx, "  ")
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeInvalidParam, pkgerrors.AsAppError(err).Code)
	})

	t.Run("invalidated source forces recompute", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err)
		require.Equal(t, 1, f.generator.calls)

		removed, err := f.service.Invalidate(ctx, "faq-001")
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		out, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err)
		assert.False(t, out.Cached)
		assert.Equal(t, 2, f.generator.calls)
	})

	t.Run("unrelated source leaves cache intact", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err)

		removed, err := f.service.Invalidate(ctx, "doc-999")
		require.NoError(t, err)
		assert.Equal(t, 0, removed)

		out, err := f.service.Answer(ctx, AskInput{Text: "How to create an Employee?"})
		require.NoError(t, err)
		assert.True(t, out.Cached)
	})
}
