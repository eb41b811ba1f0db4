// Package render captures screenshots of web pages.
//
// Two renderers implement Renderer: render/screenshotone calls the hosted
// ScreenshotOne API, render/chrome drives a local headless Chrome.
package render

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("screenshot provider not configured")

// Options describes one capture.
type Options struct {
	Width   int
	Height  int
	Quality int // JPEG quality, 1..100

	DarkMode           bool
	BlockAds           bool
	BlockCookieBanners bool
	BlockTrackers      bool
}

// DefaultOptions is the capture used for tool screenshots.
func DefaultOptions() Options {
	return Options{
		Width:              1280,
		Height:             800,
		Quality:            80,
		DarkMode:           true,
		BlockAds:           true,
		BlockCookieBanners: true,
		BlockTrackers:      true,
	}
}

// Screenshot is an encoded image.
type Screenshot struct {
	Data        []byte
	ContentType string
}

type Renderer interface {
	Capture(ctx context.Context, url string, opts Options) (*Screenshot, error)
}

// Disabled is the Renderer used when no provider is configured.
type Disabled struct{}

func (Disabled) Capture(context.Context, string, Options) (*Screenshot, error) {
	return nil, ErrNotConfigured
}
