package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Run("uses environment value when set", func(t *testing.T) {
		t.Setenv("TEST_PG_HOST", "db.internal")
		assert.Equal(t, "host: db.internal", expandEnv("host: ${TEST_PG_HOST:localhost}"))
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.Equal(t, "host: localhost", expandEnv("host: ${TEST_UNSET_VAR:localhost}"))
	})

	t.Run("empty default", func(t *testing.T) {
		assert.Equal(t, "password: ", expandEnv("password: ${TEST_UNSET_PASSWORD:}"))
	})

	t.Run("no default keeps placeholder when unset", func(t *testing.T) {
		assert.Equal(t, "key: ${TEST_UNSET_NO_DEFAULT}", expandEnv("key: ${TEST_UNSET_NO_DEFAULT}"))
	})

	t.Run("plain text untouched", func(t *testing.T) {
		assert.Equal(t, "level: info", expandEnv("level: info"))
	})
}
