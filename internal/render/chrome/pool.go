package chrome

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
)

// Pool keeps pre-warmed incognito browser contexts so a capture does not
// pay for context creation. Each context is used once and then disposed,
// so no cookies or storage leak between captures.
type Pool struct {
	browser  *rod.Browser
	size     int
	logger   *slog.Logger
	contexts chan *rod.Browser
	done     chan struct{}
	wg       sync.WaitGroup
	start    sync.Once
	stop     sync.Once
}

func NewPool(browser *rod.Browser, size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		browser:  browser,
		size:     size,
		logger:   logger,
		contexts: make(chan *rod.Browser, size),
		done:     make(chan struct{}),
	}
}

// Start begins filling the pool in the background.
func (p *Pool) Start() {
	p.start.Do(func() {
		p.logger.Info("starting chrome context pool manager", slog.Int("poolSize", p.size))
		p.wg.Add(1)
		go p.manager()
	})
}

// Stop shuts down the manager and disposes every pre-warmed context.
func (p *Pool) Stop() {
	p.stop.Do(func() {
		p.logger.Info("shutting down chrome context pool")
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case bc := <-p.contexts:
				_ = bc.Close()
			default:
				return
			}
		}
	})
}

// Get returns a ready incognito context. It blocks until one is available
// or ctx is done. The caller owns the context and must Close it.
func (p *Pool) Get(ctx context.Context) (*rod.Browser, error) {
	select {
	case bc := <-p.contexts:
		return bc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, fmt.Errorf("chrome pool stopped")
	}
}

// manager keeps the pool at capacity.
func (p *Pool) manager() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		default:
		}

		if len(p.contexts) >= cap(p.contexts) {
			select {
			case <-p.done:
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		bc, err := p.browser.Incognito()
		if err != nil {
			p.logger.Error("failed to create incognito context", slog.String("error", err.Error()))
			select {
			case <-p.done:
				return
			case <-time.After(time.Second): // backoff on failure
			}
			continue
		}

		select {
		case p.contexts <- bc:
		case <-p.done:
			_ = bc.Close()
			return
		}
	}
}
