package assistant

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredCandidate(rank int, id, title, snippet string, kind SourceKind) ScoredCandidate {
	return ScoredCandidate{
		Candidate: Candidate{SourceID: id, SourceKind: kind, Title: title, Snippet: snippet},
		Rank:      rank,
	}
}

func TestAssembleContext(t *testing.T) {
	t.Run("empty input returns empty string", func(t *testing.T) {
		assert.Equal(t, "", AssembleContext(nil, 4000))
	})

	t.Run("blocks carry source attribution", func(t *testing.T) {
		out := AssembleContext([]ScoredCandidate{
			scoredCandidate(1, "faq-001", "How to create an Employee?", "Use the Employee module.", SourceKindFAQ),
			scoredCandidate(2, "doc-007", "Onboarding Guide", "New hires complete onboarding in week one.", SourceKindDocument),
		}, 4000)

		assert.Contains(t, out, "[1] (FAQ:faq-001) How to create an Employee?")
		assert.Contains(t, out, "[2] (Document:doc-007) Onboarding Guide")
		assert.Contains(t, out, "Use the Employee module.")
		blocks := strings.Split(out, "\n\n")
		assert.Len(t, blocks, 2)
	})

	t.Run("never exceeds budget", func(t *testing.T) {
		scored := []ScoredCandidate{
			scoredCandidate(1, "a", "", strings.Repeat("x", 50), SourceKindFAQ),
			scoredCandidate(2, "b", "", strings.Repeat("y", 50), SourceKindFAQ),
			scoredCandidate(3, "c", "", strings.Repeat("z", 50), SourceKindFAQ),
		}
		out := AssembleContext(scored, 140)
		assert.LessOrEqual(t, utf8.RuneCountInString(out), 140)
	})

	t.Run("keeps whole blocks only", func(t *testing.T) {
		scored := []ScoredCandidate{
			scoredCandidate(1, "a", "", "short answer", SourceKindFAQ),
			scoredCandidate(2, "b", "", strings.Repeat("long", 2000), SourceKindFAQ),
			scoredCandidate(3, "c", "", "another short answer", SourceKindFAQ),
		}
		out := AssembleContext(scored, 200)

		// 首个超预算的块即停止装配，绝不出现被截断的尾巴
		assert.Contains(t, out, "short answer")
		assert.NotContains(t, out, "longlong")
	})

	t.Run("first block larger than budget yields empty context", func(t *testing.T) {
		scored := []ScoredCandidate{
			scoredCandidate(1, "a", "", strings.Repeat("x", 500), SourceKindFAQ),
		}
		assert.Equal(t, "", AssembleContext(scored, 100))
	})

	t.Run("budget counts runes not bytes", func(t *testing.T) {
		snippet := strings.Repeat("员", 80)
		scored := []ScoredCandidate{scoredCandidate(1, "a", "", snippet, SourceKindFAQ)}
		out := AssembleContext(scored, 100)
		require.NotEmpty(t, out)
		assert.Contains(t, out, snippet)
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("How to create an Employee?", "[1] (FAQ:faq-001) ...")
	assert.Contains(t, prompt, "Question: How to create an Employee?")
	assert.Contains(t, prompt, "[1] (FAQ:faq-001)")
	assert.Contains(t, prompt, "ONLY the knowledge base context")

	empty := BuildPrompt("anything", "   ")
	assert.Contains(t, empty, "(empty)")
}
