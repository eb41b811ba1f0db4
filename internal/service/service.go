// Package service contains the business logic of the directory.
//
//	Handler (HTTP)  → parses requests, writes the envelope
//	Service         → validates, enforces rules, orchestrates collaborators
//	Repository      → reads and writes rows
//
// Services accept repository interfaces, not *sqlite.DB, so tests run them
// against in-memory fakes. They never see an *http.Request; the same calls
// back the HTTP API and the cobra commands.
package service

import (
	"errors"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/repository"
	"github.com/sakif/altdirectory/internal/resilience"
	"github.com/sakif/altdirectory/internal/validation"
)

// listDefaults fills a zero page or limit, so callers other than the HTTP
// layer can pass an empty ListOptions.
func listDefaults(opts repository.ListOptions) repository.ListOptions {
	if opts.Page <= 0 {
		opts.Page = validation.DefaultPage
	}
	if opts.Limit <= 0 {
		opts.Limit = validation.DefaultLimit
	}
	if opts.Limit > validation.MaxLimit {
		opts.Limit = validation.MaxLimit
	}
	return opts
}

// upstream runs fn through b and turns every failure into an Upstream
// error headed by message.
func upstream(b *resilience.Breaker, message string, fn func() error) error {
	err := b.Execute(fn)
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Upstream(message, err)
}
