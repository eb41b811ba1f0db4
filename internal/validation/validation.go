// Package validation holds the request schemas for every resource.
//
// Each schema collects ALL violations before failing, so clients can show
// every bad field at once. The returned error is an *apperror.AppError whose
// message is the first violation.
package validation

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/sakif/altdirectory/internal/apperror"
)

type checker struct {
	violations []apperror.Violation
}

func (c *checker) add(field, message string) {
	c.violations = append(c.violations, apperror.Violation{Field: field, Message: message})
}

// required trims *value in place and fails when nothing is left.
func (c *checker) required(field string, value *string, message string) {
	*value = strings.TrimSpace(*value)
	if *value == "" {
		c.add(field, message)
	}
}

// present is required for patch fields: absent is fine, empty is not.
func (c *checker) present(field string, value *string, message string) {
	if value == nil {
		return
	}
	c.required(field, value, message)
}

// url trims *value in place and fails unless it is an absolute URL.
func (c *checker) url(field string, value *string, message string) {
	*value = strings.TrimSpace(*value)
	if !isAbsoluteURL(*value) {
		c.add(field, message)
	}
}

func (c *checker) optionalURL(field string, value *string, message string) {
	if value != nil {
		c.url(field, value, message)
	}
}

func (c *checker) optionalEmail(field string, value *string, message string) {
	if value == nil {
		return
	}
	*value = strings.TrimSpace(*value)
	addr, err := mail.ParseAddress(*value)
	if err != nil || addr.Address != *value {
		c.add(field, message)
	}
}

func (c *checker) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return apperror.Invalid(c.violations)
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// ID validates a path identifier.
func ID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperror.ValidationFailed("id", "ID is required")
	}
	return id, nil
}

// Slug validates a path slug.
func Slug(raw string) (string, error) {
	slug := strings.TrimSpace(raw)
	if slug == "" {
		return "", apperror.ValidationFailed("slug", "Slug is required")
	}
	return slug, nil
}

// SourceURL validates the website URL given to the media and generation
// endpoints.
func SourceURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperror.ValidationFailed("url", "Missing URL")
	}
	if !isAbsoluteURL(raw) {
		return "", apperror.ValidationFailed("url", "Invalid URL")
	}
	return raw, nil
}
