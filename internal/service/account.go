package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
)

// AccountService keeps local accounts in step with the identity provider.
type AccountService struct {
	repo   repository.AccountRepository
	logger *slog.Logger
}

func NewAccountService(repo repository.AccountRepository, logger *slog.Logger) *AccountService {
	return &AccountService{repo: repo, logger: logger}
}

// Sync upserts the account for a signed-in identity. An existing account
// keeps its id and role; the profile fields are refreshed.
func (s *AccountService) Sync(ctx context.Context, id auth.Identity) (*model.Account, error) {
	if id.UserID == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = "User"
	}
	account := &model.Account{
		UserID: id.UserID,
		Name:   name,
		Email:  strings.TrimSpace(id.Email),
	}
	if id.ImageURL != "" {
		account.Image = &id.ImageURL
	}

	if err := s.repo.UpsertAccount(ctx, account); err != nil {
		s.logger.Error("failed to sync account", slog.String("userID", id.UserID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("syncing account: %w", err)
	}

	s.logger.Info("account synced", slog.String("id", account.ID), slog.String("userID", account.UserID))
	return account, nil
}

// FindByUserID returns apperror.ErrNotFound until the user has synced.
func (s *AccountService) FindByUserID(ctx context.Context, userID string) (*model.Account, error) {
	a, err := s.repo.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	if a == nil {
		return nil, apperror.NotFound("User", "id", userID)
	}
	return a, nil
}

// Promote sets the role of an existing account. It is only reachable from
// the command line.
func (s *AccountService) Promote(ctx context.Context, userID, role string) (*model.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "User ID is required")
	}
	if role != model.RoleAdmin && role != model.RoleUser {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("Role must be %q or %q", model.RoleUser, model.RoleAdmin))
	}

	a, err := s.repo.SetAccountRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("setting role: %w", err)
	}

	s.logger.Info("account role changed", slog.String("userID", userID), slog.String("role", role))
	return a, nil
}

// Role implements auth.RoleLookup. A user without an account has no role.
func (s *AccountService) Role(ctx context.Context, userID string) (string, error) {
	a, err := s.repo.FindAccountByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("looking up role: %w", err)
	}
	if a == nil {
		return "", nil
	}
	return a.Role, nil
}
