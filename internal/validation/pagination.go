package validation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/altdirectory/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination validates ?page=&limit=&q= and applies the defaults.
func Pagination(query url.Values) (repository.ListOptions, error) {
	var c checker
	opts := repository.ListOptions{
		Page:  DefaultPage,
		Limit: DefaultLimit,
		Query: strings.TrimSpace(query.Get("q")),
	}

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			c.add("page", "page must be an integer")
		case n < 1:
			c.add("page", "page must be greater than or equal to 1")
		default:
			opts.Page = n
		}
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			c.add("limit", "limit must be an integer")
		case n < 1:
			c.add("limit", "limit must be greater than or equal to 1")
		case n > MaxLimit:
			c.add("limit", "limit must be less than or equal to 100")
		default:
			opts.Limit = n
		}
	}

	if err := c.err(); err != nil {
		return repository.ListOptions{}, err
	}
	return opts, nil
}
