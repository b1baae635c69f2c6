package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>T</title><style>p{color:red}</style></head>
<body><script>var x = "<p>not text</p>";</script><h1>Headline</h1><p>First paragraph.</p>
<p>Second   paragraph.</p></body></html>`))
	}))
	defer srv.Close()

	f := NewArticleFetcher(time.Second)
	text, err := f.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "T Headline First paragraph. Second paragraph.", text)
}

func TestArticleFetcherFailures(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		f := NewArticleFetcher(time.Second)
		_, err := f.Extract(context.Background(), srv.URL)
		assert.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html><body><script>only()</script></body></html>"))
		}))
		defer srv.Close()

		f := NewArticleFetcher(time.Second)
		_, err := f.Extract(context.Background(), srv.URL)
		assert.Error(t, err)
	})

	t.Run("unreachable host", func(t *testing.T) {
		f := NewArticleFetcher(200 * time.Millisecond)
		_, err := f.Extract(context.Background(), "http://127.0.0.1:1")
		assert.Error(t, err)
	})
}
