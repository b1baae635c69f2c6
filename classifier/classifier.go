// Package classifier provides clients for the external classification engine.
// The HTTP client talks to a hosted model endpoint; the stub mirrors the
// endpoint's contract deterministically for local development and tests.
package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/encoding"
)

// classifyRequest is the document payload the model endpoint expects.
type classifyRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	Language string `json:"language"`
}

type classifyResponse struct {
	Categories []biaslens.ClassificationCategory `json:"categories"`
}

// HTTPClient calls a remote classification model over HTTP.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient returns a classifier posting plain-text documents to the given
// endpoint. Every call is bounded by timeout; on expiry the call reports the
// ClassificationFailed code like any other transport failure.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Classify(ctx context.Context, text string) ([]biaslens.ClassificationCategory, error) {
	ba, err := encoding.DefaultMarshaler.Marshal(classifyRequest{
		Content:  text,
		Type:     "PLAIN_TEXT",
		Language: "en",
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(ba))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, biaslens.NewError(biaslens.ClassificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, biaslens.NewError(biaslens.ClassificationFailed,
			fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, body))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, biaslens.NewError(biaslens.ClassificationFailed, err)
	}
	var decoded classifyResponse
	if err := encoding.DefaultMarshaler.Unmarshal(body, &decoded); err != nil {
		return nil, biaslens.NewError(biaslens.ClassificationFailed, err)
	}
	return decoded.Categories, nil
}
