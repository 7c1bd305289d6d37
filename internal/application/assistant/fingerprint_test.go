package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "how to create an employee", NormalizeText("  How   to CREATE an\tEmployee  "))
	assert.Equal(t, "", NormalizeText("   "))
	assert.Equal(t, "a b", NormalizeText("a\n\nb"))
}

func TestFingerprint(t *testing.T) {
	base := Query{Text: "How to create an Employee?", ContextFilter: "recruitment", Locale: "en"}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Fingerprint(base), Fingerprint(base))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		variant := Query{Text: "  how to   CREATE an employee?  ", ContextFilter: "Recruitment", Locale: "EN"}
		assert.Equal(t, Fingerprint(base), Fingerprint(variant))
	})

	t.Run("context filter changes fingerprint", func(t *testing.T) {
		other := base
		other.ContextFilter = "payroll"
		assert.NotEqual(t, Fingerprint(base), Fingerprint(other))
	})

	t.Run("locale changes fingerprint", func(t *testing.T) {
		other := base
		other.Locale = "id"
		assert.NotEqual(t, Fingerprint(base), Fingerprint(other))
	})

	t.Run("different questions differ", func(t *testing.T) {
		other := base
		other.Text = "How to delete an Employee?"
		assert.NotEqual(t, Fingerprint(base), Fingerprint(other))
	})
}
