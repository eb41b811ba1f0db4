// Package scrape turns a web page into markdown for the content generator.
package scrape

import (
	"context"
	"errors"
)

// ErrEmptyPage is returned when a provider answers without any content.
var ErrEmptyPage = errors.New("scraped page is empty")

// Scraper fetches the readable content of url as markdown.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 4 << 20
