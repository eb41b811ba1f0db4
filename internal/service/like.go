package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
)

// LikeService records which accounts like which tools. Likes are keyed by
// the local account, so a user must have synced before liking.
type LikeService struct {
	likes    repository.LikeRepository
	accounts repository.AccountRepository
	logger   *slog.Logger
}

func NewLikeService(likes repository.LikeRepository, accounts repository.AccountRepository, logger *slog.Logger) *LikeService {
	return &LikeService{likes: likes, accounts: accounts, logger: logger}
}

// Like returns apperror.ErrConflict when the user already likes the tool.
func (s *LikeService) Like(ctx context.Context, userID, toolID string) (*model.Like, error) {
	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	like, err := s.likes.LikeTool(ctx, account.ID, toolID)
	if err != nil {
		return nil, fmt.Errorf("liking tool: %w", err)
	}

	s.logger.Info("tool liked", slog.String("toolID", toolID), slog.String("accountID", account.ID))
	return like, nil
}

func (s *LikeService) Unlike(ctx context.Context, userID, toolID string) error {
	account, err := s.account(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.likes.UnlikeTool(ctx, account.ID, toolID); err != nil {
		return fmt.Errorf("unliking tool: %w", err)
	}

	s.logger.Info("tool unliked", slog.String("toolID", toolID), slog.String("accountID", account.ID))
	return nil
}

func (s *LikeService) Count(ctx context.Context, toolID string) (int, error) {
	n, err := s.likes.CountToolLikes(ctx, toolID)
	if err != nil {
		return 0, fmt.Errorf("counting likes: %w", err)
	}
	return n, nil
}

func (s *LikeService) account(ctx context.Context, userID string) (*model.Account, error) {
	a, err := s.accounts.FindAccountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	if a == nil {
		return nil, apperror.NotFound("User", "id", userID)
	}
	return a, nil
}
