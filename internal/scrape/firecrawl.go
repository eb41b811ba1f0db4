package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const FirecrawlBaseURL = "https://api.firecrawl.dev"

// Firecrawl uses the Firecrawl v1 scrape endpoint.
type Firecrawl struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

var _ Scraper = (*Firecrawl)(nil)

func NewFirecrawl(client *http.Client, baseURL, apiKey string) *Firecrawl {
	if baseURL == "" {
		baseURL = FirecrawlBaseURL
	}
	return &Firecrawl{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

type firecrawlRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	ExcludeTags     []string `json:"excludeTags"`
}

type firecrawlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
}

func (f *Firecrawl) Scrape(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(firecrawlRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
		ExcludeTags:     []string{"img", "video", "iframe"},
	})
	if err != nil {
		return "", fmt.Errorf("firecrawl: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("firecrawl: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("firecrawl: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("firecrawl: reading response: %w", err)
	}

	var out firecrawlResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("firecrawl: status %d: %s", resp.StatusCode, truncate(raw, 200))
		}
		return "", fmt.Errorf("firecrawl: decoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("firecrawl: status %d: %s", resp.StatusCode, msg)
	}

	content := strings.TrimSpace(out.Data.Markdown)
	if content == "" {
		return "", fmt.Errorf("firecrawl: %w", ErrEmptyPage)
	}
	return content, nil
}
