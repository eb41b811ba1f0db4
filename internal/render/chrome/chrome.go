// Package chrome implements render.Renderer with a local headless Chrome
// driven over the DevTools protocol by go-rod.
package chrome

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/sakif/altdirectory/internal/render"
)

// blockedURLs are matched by Network.setBlockedURLs when ads or trackers
// are blocked.
var blockedURLs = []string{
	"*doubleclick.net*",
	"*googlesyndication.com*",
	"*google-analytics.com*",
	"*googletagmanager.com*",
	"*facebook.net*",
	"*hotjar.com*",
	"*segment.io*",
	"*adservice.google.*",
}

// cookieBannerCSS hides the common consent banners.
const cookieBannerCSS = `
#onetrust-banner-sdk, #CybotCookiebotDialog, .cc-window, .cookie-banner,
.cookie-consent, [id*="cookie-notice"], [class*="cookie-notice"] { display: none !important; }`

// Renderer captures screenshots in single-use incognito contexts.
type Renderer struct {
	cfg     Config
	logger  *slog.Logger
	browser *rod.Browser
	pool    *Pool
}

var _ render.Renderer = (*Renderer)(nil)

// New launches Chrome, connects to it and starts the context pool.
func New(cfg Config, logger *slog.Logger) (*Renderer, error) {
	l := launcher.New().Headless(true)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	logger.Info("chrome is ready", slog.String("controlURL", controlURL))

	r := &Renderer{
		cfg:     cfg,
		logger:  logger,
		browser: browser,
		pool:    NewPool(browser, cfg.PoolSize, logger),
	}
	r.pool.Start()
	return r, nil
}

// Close stops the pool and the browser.
func (r *Renderer) Close() error {
	r.pool.Stop()
	return r.browser.Close()
}

func (r *Renderer) Capture(ctx context.Context, url string, opts render.Options) (*render.Screenshot, error) {
	start := time.Now()

	bc, err := r.pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("chrome: getting context from pool: %w", err)
	}
	// Always dispose the context we acquired.
	defer func() {
		if err := bc.Close(); err != nil {
			r.logger.Error("failed to dispose incognito context", slog.String("error", err.Error()))
		}
	}()

	captureCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	page, err := bc.Context(captureCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("chrome: creating page: %w", err)
	}

	if err := preparePage(page, opts); err != nil {
		return nil, err
	}

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("chrome: navigating to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("chrome: waiting for %s: %w", url, err)
	}
	if opts.BlockCookieBanners {
		if err := page.AddStyleTag("", cookieBannerCSS); err != nil {
			r.logger.Warn("failed to hide cookie banners", slog.String("error", err.Error()))
		}
	}
	if r.cfg.SettleDelay > 0 {
		select {
		case <-time.After(r.cfg.SettleDelay):
		case <-captureCtx.Done():
			return nil, captureCtx.Err()
		}
	}

	quality := opts.Quality
	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})
	if err != nil {
		return nil, fmt.Errorf("chrome: capturing %s: %w", url, err)
	}

	r.logger.Debug("captured screenshot",
		slog.String("url", url),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)
	return &render.Screenshot{Data: data, ContentType: "image/jpeg"}, nil
}

// preparePage applies viewport, color scheme and request blocking before
// navigation.
func preparePage(page *rod.Page, opts render.Options) error {
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("chrome: setting viewport: %w", err)
	}

	if opts.DarkMode {
		err := proto.EmulationSetEmulatedMedia{
			Features: []*proto.EmulationMediaFeature{{Name: "prefers-color-scheme", Value: "dark"}},
		}.Call(page)
		if err != nil {
			return fmt.Errorf("chrome: emulating dark mode: %w", err)
		}
	}

	if opts.BlockAds || opts.BlockTrackers {
		if err := (proto.NetworkEnable{}).Call(page); err != nil {
			return fmt.Errorf("chrome: enabling network domain: %w", err)
		}
		if err := (proto.NetworkSetBlockedURLs{Urls: blockedURLs}).Call(page); err != nil {
			return fmt.Errorf("chrome: blocking urls: %w", err)
		}
	}
	return nil
}
