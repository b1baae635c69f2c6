// Package extract fetches article URLs and reduces them to best-effort plain
// text. Extraction failures are never fatal to a submission; the service
// falls back to the text the caller supplied.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ArticleFetcher is a biaslens.Extractor over plain HTTP. It strips markup,
// scripts, and styles from the fetched document; it does not attempt
// readability-grade boilerplate removal.
type ArticleFetcher struct {
	client *http.Client
	// MaxBodyBytes caps how much of a response is read. Defaults to 2 MiB.
	maxBodyBytes int64
}

func NewArticleFetcher(timeout time.Duration) *ArticleFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ArticleFetcher{
		client:       &http.Client{Timeout: timeout},
		maxBodyBytes: 2 << 20,
	}
}

func (f *ArticleFetcher) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s returned %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", err
	}
	text := stripMarkup(string(body))
	if text == "" {
		return "", fmt.Errorf("no article text found at %s", url)
	}
	return text, nil
}

// stripMarkup drops script/style blocks and tags, collapsing the remaining
// text runs into single-space separated plain text.
func stripMarkup(document string) string {
	var sb strings.Builder
	inTag := false
	skipUntil := ""
	lower := strings.ToLower(document)

	for i := 0; i < len(document); i++ {
		if skipUntil != "" {
			if strings.HasPrefix(lower[i:], skipUntil) {
				i += len(skipUntil) - 1
				skipUntil = ""
			}
			continue
		}
		ch := document[i]
		if ch == '<' {
			if strings.HasPrefix(lower[i:], "<script") {
				skipUntil = "</script>"
				continue
			}
			if strings.HasPrefix(lower[i:], "<style") {
				skipUntil = "</style>"
				continue
			}
			inTag = true
			continue
		}
		if ch == '>' {
			inTag = false
			sb.WriteByte(' ')
			continue
		}
		if !inTag {
			sb.WriteByte(ch)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
