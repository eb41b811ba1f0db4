package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/model"
)

// AuthService completes the GitHub OAuth login: it syncs the account and
// issues the session token the handler puts in the "token" cookie.
//
//	AuthHandler (HTTP) → AuthService → AccountService (DB)
//	                               ↘ TokenService (JWT)
type AuthService struct {
	accounts *AccountService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewAuthService(accounts *AccountService, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{accounts: accounts, tokens: tokens, logger: logger}
}

// AuthResult bundles the account and the issued token so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	Account *model.Account
	Token   string
}

// LoginGitHub upserts the account for a GitHub profile and issues a token.
// The account is keyed by "github|<id>", which is stable across renames.
func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	id := ghUser.Identity()
	account, err := s.accounts.Sync(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", id.UserID),
		slog.String("login", ghUser.Login),
	)

	// The token carries the synced profile, so the default "User" name
	// travels with it too.
	id.Name = account.Name
	token, err := s.tokens.Generate(id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", id.UserID, err)
	}

	return &AuthResult{Account: account, Token: token}, nil
}
