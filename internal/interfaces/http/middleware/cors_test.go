package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCORSRouter(cfg CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(cfg))
	r.POST("/v1/assistant/ask", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func preflight(r *gin.Engine, origin, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/v1/assistant/ask", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	t.Run("default methods exclude mutation verbs the api does not serve", func(t *testing.T) {
		r := newCORSRouter(CORSConfig{AllowedOrigins: []string{"https://hr.example.com"}})

		w := preflight(r, "https://hr.example.com", http.MethodPost)
		require.Equal(t, http.StatusNoContent, w.Code)
		allowed := w.Header().Get("Access-Control-Allow-Methods")
		assert.Contains(t, allowed, "POST")
		assert.NotContains(t, allowed, "PUT")
		assert.NotContains(t, allowed, "DELETE")
	})

	t.Run("credentials enabled for explicit origins", func(t *testing.T) {
		r := newCORSRouter(CORSConfig{AllowedOrigins: []string{"https://hr.example.com"}})

		w := preflight(r, "https://hr.example.com", http.MethodPost)
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "https://hr.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard origin disables credentials", func(t *testing.T) {
		r := newCORSRouter(CORSConfig{})

		w := preflight(r, "https://anywhere.example.com", http.MethodPost)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin is rejected", func(t *testing.T) {
		r := newCORSRouter(CORSConfig{AllowedOrigins: []string{"https://hr.example.com"}})

		w := preflight(r, "https://evil.example.com", http.MethodPost)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
