package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilhaam43/horila-apps-ai-sub000/internal/application/assistant"
	"github.com/ilhaam43/horila-apps-ai-sub000/internal/config"
)

func newTestClient(endpoint string, timeout time.Duration) *Client {
	return NewClient(&config.EmbeddingConfig{
		Endpoint:  endpoint,
		Model:     "BAAI/bge-m3",
		BatchSize: 2,
		Timeout:   timeout,
	})
}

func embedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_EmbedBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns one vector per text", func(t *testing.T) {
		srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			out := embedResponse{Embeddings: make([][]float32, len(req.Texts))}
			for i := range out.Embeddings {
				out.Embeddings[i] = []float32{0.1, 0.2}
			}
			require.NoError(t, json.NewEncoder(w).Encode(&out))
		})

		client := newTestClient(srv.URL, time.Second)
		vecs, err := client.EmbedBatch(ctx, []string{"a", "b", "c"})
		require.NoError(t, err)
		require.Len(t, vecs, 3)
	})

	t.Run("short response maps to backend unavailable", func(t *testing.T) {
		srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
			out := embedResponse{Embeddings: [][]float32{{0.1, 0.2}}}
			require.NoError(t, json.NewEncoder(w).Encode(&out))
		})

		client := newTestClient(srv.URL, time.Second)
		_, err := client.EmbedBatch(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, assistant.ErrBackendUnavailable)
	})

	t.Run("bad status maps to backend unavailable", func(t *testing.T) {
		srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		client := newTestClient(srv.URL, time.Second)
		_, err := client.EmbedBatch(ctx, []string{"a"})
		assert.ErrorIs(t, err, assistant.ErrBackendUnavailable)
	})

	t.Run("timeout maps to backend timeout", func(t *testing.T) {
		srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})

		client := newTestClient(srv.URL, 20*time.Millisecond)
		_, err := client.EmbedBatch(ctx, []string{"a"})
		assert.ErrorIs(t, err, assistant.ErrBackendTimeout)
	})

	t.Run("empty endpoint maps to backend unavailable", func(t *testing.T) {
		client := newTestClient("", time.Second)
		_, err := client.EmbedBatch(ctx, []string{"a"})
		assert.ErrorIs(t, err, assistant.ErrBackendUnavailable)
	})
}

func TestClient_EmbedQuery(t *testing.T) {
	srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		out := embedResponse{Embeddings: [][]float32{{0.3, 0.4}}}
		require.NoError(t, json.NewEncoder(w).Encode(&out))
	})

	client := newTestClient(srv.URL, time.Second)
	vec, err := client.EmbedQuery(context.Background(), "annual leave")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.3, 0.4}, vec)
}
