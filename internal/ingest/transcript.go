package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TranscriptFetcher retrieves a video's caption text.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// TimedTextFetcher reads captions from YouTube's public timedtext endpoint.
// The official Data API only allows caption downloads for the video owner,
// so the public endpoint is the only unauthenticated path.
type TimedTextFetcher struct {
	client  *http.Client
	baseURL string
	lang    string
}

func NewTimedTextFetcher() *TimedTextFetcher {
	return &TimedTextFetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://video.google.com/timedtext",
		lang:    "en",
	}
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func (f *TimedTextFetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	u := fmt.Sprintf("%s?lang=%s&v=%s", f.baseURL, f.lang, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch captions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch captions: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read captions: %w", err)
	}
	return ParseTimedText(body)
}

// ParseTimedText joins the caption lines of a timedtext XML document.
func ParseTimedText(data []byte) (string, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse captions: %w", err)
	}
	if len(doc.Texts) == 0 {
		return "", fmt.Errorf("no captions available")
	}
	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		if s := strings.TrimSpace(t.Value); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}
