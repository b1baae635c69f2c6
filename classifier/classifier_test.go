package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biaslens/biaslens"
)

func TestHTTPClientClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "PLAIN_TEXT", req["type"])
		assert.Equal(t, "en", req["language"])
		assert.Equal(t, "some article text", req["content"])

		json.NewEncoder(w).Encode(map[string]any{
			"categories": []map[string]any{
				{"name": "left", "confidence": 0.8},
				{"name": "strong", "confidence": 0.6},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	categories, err := c.Classify(context.Background(), "some article text")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "left", categories[0].Name)
	assert.InDelta(t, 0.8, categories[0].Confidence, 1e-9)
}

func TestHTTPClientFailures(t *testing.T) {
	t.Run("non-200 response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model melted", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, time.Second)
		_, err := c.Classify(context.Background(), "text")
		require.Error(t, err)
		assert.True(t, biaslens.IsErrorCode(err, biaslens.ClassificationFailed))
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, 20*time.Millisecond)
		_, err := c.Classify(context.Background(), "text")
		require.Error(t, err)
		assert.True(t, biaslens.IsErrorCode(err, biaslens.ClassificationFailed))
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, time.Second)
		_, err := c.Classify(context.Background(), "text")
		require.Error(t, err)
		assert.True(t, biaslens.IsErrorCode(err, biaslens.ClassificationFailed))
	})
}

func TestStubDeterminism(t *testing.T) {
	s := NewStub()
	ctx := context.Background()

	first, err := s.Classify(ctx, "sample")
	require.NoError(t, err)
	second, err := s.Classify(ctx, "sample")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Stub output always resolves cleanly.
	bias, extent, err := biaslens.ResolveCategories(first)
	require.NoError(t, err)
	assert.True(t, biaslens.IsValidBias(string(bias)))
	assert.True(t, biaslens.IsValidExtent(string(extent)))
}
