// Package favicon downloads site icons from public favicon services.
package favicon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// maxIconBytes bounds how much of an icon response is read.
const maxIconBytes = 1 << 20

// Provider builds the icon URL for a domain.
type Provider struct {
	Name string
	URL  func(domain string) string
}

// DefaultProviders are tried in order: Google S2, then DuckDuckGo.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name: "Google S2",
			URL: func(domain string) string {
				return "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(domain) + "&sz=128"
			},
		},
		{
			Name: "DuckDuckGo",
			URL: func(domain string) string {
				return "https://icons.duckduckgo.com/ip3/" + url.PathEscape(domain) + ".ico"
			},
		},
	}
}

// Icon is a downloaded favicon.
type Icon struct {
	Data        []byte
	ContentType string
	Provider    string
}

// AllFailedError reports that no provider produced an icon. Last is the
// error of the final provider tried.
type AllFailedError struct {
	Last error
}

func (e *AllFailedError) Error() string {
	return "all favicon providers failed: " + e.Last.Error()
}

func (e *AllFailedError) Unwrap() error { return e.Last }

type Fetcher struct {
	client    *http.Client
	providers []Provider
	logger    *slog.Logger
}

func NewFetcher(client *http.Client, providers []Provider, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, providers: providers, logger: logger}
}

// Domain extracts the host name of a website URL.
func Domain(websiteURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(websiteURL))
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("favicon: no host in %q", websiteURL)
	}
	return strings.ToLower(u.Hostname()), nil
}

// Fetch tries each provider in order and returns the first icon.
func (f *Fetcher) Fetch(ctx context.Context, domain string) (*Icon, error) {
	if len(f.providers) == 0 {
		return nil, &AllFailedError{Last: errors.New("no providers configured")}
	}

	var lastErr error
	for _, p := range f.providers {
		f.logger.Debug("trying favicon provider", slog.String("provider", p.Name), slog.String("domain", domain))

		icon, err := f.fetchOne(ctx, p, domain)
		if err == nil {
			f.logger.Info("fetched favicon", slog.String("provider", p.Name), slog.String("domain", domain))
			return icon, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn("favicon provider failed",
			slog.String("provider", p.Name),
			slog.String("domain", domain),
			slog.String("error", err.Error()),
		)
		lastErr = err
	}
	return nil, &AllFailedError{Last: lastErr}
}

func (f *Fetcher) fetchOne(ctx context.Context, p Provider, domain string) (*Icon, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(domain), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", p.Name, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: reading icon: %w", p.Name, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty icon", p.Name)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &Icon{Data: data, ContentType: ct, Provider: p.Name}, nil
}
