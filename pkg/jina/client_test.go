package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/esg-intel/internal/resilience"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithModel("test-model"))
}

func TestEmbed(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, []string{"first chunk", "second chunk"}, req.Input)

		resp := embedResponse{Data: []embedResult{
			{Index: 0, Embedding: []float32{0.1, 0.2}},
			{Index: 1, Embedding: []float32{0.3, 0.4}},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	vectors, err := c.Embed(context.Background(), []string{"first chunk", "second chunk"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEmbed_ReordersByIndex(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		resp := embedResponse{Data: []embedResult{
			{Index: 1, Embedding: []float32{0.3}},
			{Index: 0, Embedding: []float32{0.1}},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	vectors, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1}, vectors[0])
	assert.Equal(t, []float32{0.3}, vectors[1])
}

func TestEmbed_CountMismatch(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		resp := embedResponse{Data: []embedResult{{Index: 0, Embedding: []float32{0.1}}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	_, err := c.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings")
}

func TestEmbed_IndexOutOfRange(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		resp := embedResponse{Data: []embedResult{{Index: 5, Embedding: []float32{0.1}}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	_, err := c.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestEmbed_APIError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.True(t, resilience.IsTransient(err))
}

func TestEmbed_BadRequestIsNotRetryable(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid input", http.StatusBadRequest)
	})

	_, err := c.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestEmbed_EmptyInput(t *testing.T) {
	c := NewClient("test-key")
	vectors, err := c.Embed(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestAvailable(t *testing.T) {
	assert.True(t, NewClient("key").Available())
	assert.False(t, NewClient("").Available())
	assert.False(t, Noop{}.Available())
}

func TestNoop(t *testing.T) {
	_, err := Noop{}.Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
}
