package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(cfg OrchestratorConfig, strategies ...Strategy) *Orchestrator {
	registry := NewRegistry(strategies...)
	return NewOrchestrator(registry, NewScorer(registry, 8), nil, cfg)
}

func TestOrchestrator_Retrieve(t *testing.T) {
	ctx := context.Background()
	q := Query{Text: "How to create an Employee?"}

	t.Run("merges candidates across strategies", func(t *testing.T) {
		keyword := &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: true,
			candidates: []Candidate{keywordCandidate("faq-001", 0.9)}}
		semantic := &stubStrategy{name: StrategyNameSemantic, priority: 1, applicable: true,
			candidates: []Candidate{semanticCandidate("doc-001", 0.7)},
			normalize:  func(raw float64) float64 { return clamp01((raw + 1) / 2) }}

		scored, err := newOrchestrator(OrchestratorConfig{MinConfidentResults: 3}, keyword, semantic).Retrieve(ctx, q)
		require.NoError(t, err)
		require.Len(t, scored, 2)
		assert.Equal(t, 1, keyword.searchCalls)
		assert.Equal(t, 1, semantic.searchCalls)
	})

	t.Run("early stop skips lower priority strategies", func(t *testing.T) {
		keyword := &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: true,
			candidates: []Candidate{
				keywordCandidate("faq-001", 0.95),
				keywordCandidate("faq-002", 0.80),
				keywordCandidate("faq-003", 0.70),
			}}
		semantic := &stubStrategy{name: StrategyNameSemantic, priority: 1, applicable: true}

		scored, err := newOrchestrator(OrchestratorConfig{
			ConfidenceFloor:     0.55,
			MinConfidentResults: 3,
		}, keyword, semantic).Retrieve(ctx, q)
		require.NoError(t, err)
		require.Len(t, scored, 3)
		assert.Equal(t, 0, semantic.searchCalls, "semantic strategy must not run after early stop")
	})

	t.Run("low confidence keeps pipeline going", func(t *testing.T) {
		keyword := &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: true,
			candidates: []Candidate{keywordCandidate("faq-001", 0.4)}}
		semantic := &stubStrategy{name: StrategyNameSemantic, priority: 1, applicable: true,
			candidates: []Candidate{semanticCandidate("doc-001", 0.8)},
			normalize:  func(raw float64) float64 { return clamp01((raw + 1) / 2) }}

		scored, err := newOrchestrator(OrchestratorConfig{
			ConfidenceFloor:     0.55,
			MinConfidentResults: 3,
		}, keyword, semantic).Retrieve(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 1, semantic.searchCalls)
		require.Len(t, scored, 2)
		assert.Equal(t, "doc-001", scored[0].SourceID)
	})

	t.Run("strategy failure degrades to next strategy", func(t *testing.T) {
		failing := &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: true, err: assert.AnError}
		semantic := &stubStrategy{name: StrategyNameSemantic, priority: 1, applicable: true,
			candidates: []Candidate{semanticCandidate("doc-001", 0.9)},
			normalize:  func(raw float64) float64 { return clamp01((raw + 1) / 2) }}

		scored, err := newOrchestrator(OrchestratorConfig{MinConfidentResults: 3}, failing, semantic).Retrieve(ctx, q)
		require.NoError(t, err)
		require.Len(t, scored, 1)
		assert.Equal(t, "doc-001", scored[0].SourceID)
	})

	t.Run("inapplicable strategies are skipped", func(t *testing.T) {
		skipped := &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: false,
			candidates: []Candidate{keywordCandidate("faq-001", 0.9)}}

		scored, err := newOrchestrator(OrchestratorConfig{}, skipped).Retrieve(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, scored)
		assert.Equal(t, 0, skipped.searchCalls)
	})

	t.Run("all strategies empty yields empty result", func(t *testing.T) {
		keyword := &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: true}
		scored, err := newOrchestrator(OrchestratorConfig{}, keyword).Retrieve(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, scored)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		keyword := &stubStrategy{name: StrategyNameKeyword, priority: 0, applicable: true}
		_, err := newOrchestrator(OrchestratorConfig{}, keyword).Retrieve(cancelled, q)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, keyword.searchCalls)
	})
}

func TestRegistry_Ordering(t *testing.T) {
	semantic := &stubStrategy{name: StrategyNameSemantic, priority: 1}
	keyword := &stubStrategy{name: StrategyNameKeyword, priority: 0}

	registry := NewRegistry(semantic, keyword)
	strategies := registry.Strategies()
	require.Len(t, strategies, 2)
	assert.Equal(t, StrategyNameKeyword, strategies[0].Name())
	assert.Equal(t, StrategyNameSemantic, strategies[1].Name())

	_, ok := registry.Lookup(StrategyNameSemantic)
	assert.True(t, ok)
	_, ok = registry.Lookup("unknown")
	assert.False(t, ok)
}
