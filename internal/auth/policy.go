package auth

import (
	"context"
	"fmt"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
)

// Access is the protection level a route declares.
type Access int

const (
	Public Access = iota
	Member
	Admin
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Member:
		return "member"
	case Admin:
		return "admin"
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// RoleLookup returns the role stored for an external user id, or "" when
// no account exists yet.
type RoleLookup interface {
	Role(ctx context.Context, userID string) (string, error)
}

// Policy decides whether the identity in a context satisfies an access level.
type Policy struct {
	roles RoleLookup
}

func NewPolicy(roles RoleLookup) *Policy {
	return &Policy{roles: roles}
}

// Authorize returns nil when access is granted, apperror.ErrUnauthorized
// when no identity is present and apperror.ErrForbidden when an admin route
// is hit by a non-admin.
func (p *Policy) Authorize(ctx context.Context, access Access) error {
	if access == Public {
		return nil
	}

	id, ok := IdentityFromContext(ctx)
	if !ok {
		return apperror.Unauthorized("Unauthorized")
	}
	if access == Member {
		return nil
	}

	role, err := p.roles.Role(ctx, id.UserID)
	if err != nil {
		return fmt.Errorf("auth: looking up role: %w", err)
	}
	if role != model.RoleAdmin {
		return apperror.Forbidden("Forbidden: Admin access required")
	}
	return nil
}
