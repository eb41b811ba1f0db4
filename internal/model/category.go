package model

import "time"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Label     *string   `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewCategory struct {
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Label *string `json:"label,omitempty"`
}

type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Slug  *string `json:"slug,omitempty"`
	Label *string `json:"label,omitempty"`
}
