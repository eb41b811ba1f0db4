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

const JinaBaseURL = "https://r.jina.ai"

// Jina uses the Jina reader API.
type Jina struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

var _ Scraper = (*Jina)(nil)

func NewJina(client *http.Client, baseURL, apiKey string) *Jina {
	if baseURL == "" {
		baseURL = JinaBaseURL
	}
	return &Jina{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

type jinaResponse struct {
	Code int `json:"code"`
	Data struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"data"`
}

func (j *Jina) Scrape(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return "", fmt.Errorf("jina: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("jina: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if j.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+j.apiKey)
	}
	req.Header.Set("X-Engine", "cf-browser-rendering")
	req.Header.Set("X-Remove-Selector", "img, video, iframe, a")
	req.Header.Set("X-Retain-Images", "none")
	req.Header.Set("X-Return-Format", "markdown")

	resp, err := j.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("jina: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("jina: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jina: status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var out jinaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("jina: decoding response: %w", err)
	}
	content := strings.TrimSpace(out.Data.Content)
	if content == "" {
		return "", fmt.Errorf("jina: %w", ErrEmptyPage)
	}
	if out.Data.Title != "" {
		content = "# " + out.Data.Title + "\n\n" + content
	}
	return content, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
