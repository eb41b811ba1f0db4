package model

import (
	"strings"
	"time"
)

type Tool struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	WebsiteURL     string    `json:"websiteUrl"`
	ScreenshotURL  *string   `json:"screenshotUrl"`
	Description    *string   `json:"description"`
	FaviconURL     *string   `json:"faviconUrl"`
	Content        *string   `json:"content"`
	Tagline        *string   `json:"tagline"`
	IsOpenSource   bool      `json:"isOpenSource"`
	IsFeatured     bool      `json:"isFeatured"`
	SubmitterName  *string   `json:"submitterName"`
	SubmitterEmail *string   `json:"submitterEmail"`
	PageViews      int       `json:"pageViews"`
	CategoryID     *string   `json:"categoryId"`
	AccountID      *string   `json:"accountId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SearchText is the lower-cased helper column kept alongside every tool row.
func (t *Tool) SearchText() string {
	parts := []string{t.Name}
	for _, p := range []*string{t.Tagline, t.Description} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// NewTool is the create payload. AlternativeID, when set, links the new tool
// to an existing alternative in the same transaction.
type NewTool struct {
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	WebsiteURL     string  `json:"websiteUrl"`
	Description    *string `json:"description,omitempty"`
	Content        *string `json:"content,omitempty"`
	Tagline        *string `json:"tagline,omitempty"`
	ScreenshotURL  *string `json:"screenshotUrl,omitempty"`
	FaviconURL     *string `json:"faviconUrl,omitempty"`
	SubmitterName  *string `json:"submitterName,omitempty"`
	SubmitterEmail *string `json:"submitterEmail,omitempty"`
	CategoryID     *string `json:"categoryId,omitempty"`
	AlternativeID  *string `json:"alternativeId,omitempty"`
	IsOpenSource   *bool   `json:"isOpenSource,omitempty"`
	IsFeatured     *bool   `json:"isFeatured,omitempty"`

	// AccountID is the signed-in submitter, set by the server.
	AccountID *string `json:"-"`
}

type ToolPatch struct {
	Name           *string `json:"name,omitempty"`
	Slug           *string `json:"slug,omitempty"`
	WebsiteURL     *string `json:"websiteUrl,omitempty"`
	ScreenshotURL  *string `json:"screenshotUrl,omitempty"`
	Description    *string `json:"description,omitempty"`
	FaviconURL     *string `json:"faviconUrl,omitempty"`
	Content        *string `json:"content,omitempty"`
	Tagline        *string `json:"tagline,omitempty"`
	IsOpenSource   *bool   `json:"isOpenSource,omitempty"`
	IsFeatured     *bool   `json:"isFeatured,omitempty"`
	SubmitterName  *string `json:"submitterName,omitempty"`
	SubmitterEmail *string `json:"submitterEmail,omitempty"`
	PageViews      *int    `json:"pageViews,omitempty"`
	CategoryID     *string `json:"categoryId,omitempty"`
}

// SitemapEntry is one tool page in the public sitemap feed.
type SitemapEntry struct {
	Loc        string    `json:"loc"`
	LastMod    time.Time `json:"lastmod"`
	ChangeFreq string    `json:"changefreq"`
	Priority   float64   `json:"priority"`
}
