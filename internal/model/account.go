// Package model defines the records stored by the directory and the payloads
// used to create and patch them.
package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account links an external identity (the provider's user id) to a local row.
// Accounts are upserted on sign-in; the role only changes out-of-band.
type Account struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"` // identity provider subject, unique
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     *string   `json:"image"` // avatar URL
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the account may perform admin operations.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// AccountPatch carries the profile fields refreshed on sync.
type AccountPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Image *string `json:"image,omitempty"`
	Role  *string `json:"role,omitempty"`
}
