package knowledge

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByRunes(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, splitByRunes("   ", 800, 80))
	})

	t.Run("short text is a single chunk", func(t *testing.T) {
		chunks := splitByRunes("annual leave policy", 800, 80)
		require.Len(t, chunks, 1)
		assert.Equal(t, "annual leave policy", chunks[0])
	})

	t.Run("chunks respect max size", func(t *testing.T) {
		text := strings.Repeat("a", 2000)
		chunks := splitByRunes(text, 800, 80)
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 800)
		}
	})

	t.Run("consecutive chunks overlap", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 100; i++ {
			sb.WriteString("segment")
		}
		chunks := splitByRunes(sb.String(), 100, 20)
		require.Greater(t, len(chunks), 1)

		first := []rune(chunks[0])
		tail := string(first[len(first)-20:])
		assert.True(t, strings.HasPrefix(chunks[1], tail))
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		text := strings.Repeat("员工手册", 100) // 400 runes, 1200 bytes
		chunks := splitByRunes(text, 800, 80)
		assert.Len(t, chunks, 1)
	})

	t.Run("overlap not smaller than size still advances", func(t *testing.T) {
		chunks := splitByRunes(strings.Repeat("x", 50), 10, 10)
		assert.Len(t, chunks, 5)
	})
}
