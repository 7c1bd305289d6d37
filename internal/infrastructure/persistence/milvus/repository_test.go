package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeExprValue(t *testing.T) {
	assert.Equal(t, "hr", escapeExprValue("hr"))
	assert.Equal(t, `it\"ops`, escapeExprValue(`it"ops`))
	assert.Equal(t, `a\\b`, escapeExprValue(`a\b`))
	assert.Equal(t, `\\\"`, escapeExprValue(`\"`))
}
