package model

// GeneratedContent is the copy produced for a tool page from its website.
type GeneratedContent struct {
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	Content     string `json:"content"`
}
