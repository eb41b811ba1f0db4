package model

import "time"

// Alternative is the thing a Tool is an alternative to (for example a React
// library that a Vue tool replaces).
type Alternative struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description"`
	WebsiteURL   string    `json:"websiteUrl"`
	FaviconURL   *string   `json:"faviconUrl"`
	IsFeatured   bool      `json:"isFeatured"`
	IsOpenSource bool      `json:"isOpenSource"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type NewAlternative struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	WebsiteURL   string  `json:"websiteUrl"`
	Description  *string `json:"description,omitempty"`
	FaviconURL   *string `json:"faviconUrl,omitempty"`
	IsFeatured   *bool   `json:"isFeatured,omitempty"`
	IsOpenSource *bool   `json:"isOpenSource,omitempty"`
}

type AlternativePatch struct {
	Name         *string `json:"name,omitempty"`
	Slug         *string `json:"slug,omitempty"`
	WebsiteURL   *string `json:"websiteUrl,omitempty"`
	Description  *string `json:"description,omitempty"`
	FaviconURL   *string `json:"faviconUrl,omitempty"`
	IsFeatured   *bool   `json:"isFeatured,omitempty"`
	IsOpenSource *bool   `json:"isOpenSource,omitempty"`
}
