// Package repository declares the storage contracts used by the service
// layer. Implementations live in subpackages (see repository/sqlite).
//
// Conventions shared by every implementation:
//   - FindX returns (nil, nil) when no row matches; absence is not an error.
//   - UpdateX and DeleteX return apperror.ErrNotFound when zero rows change.
//   - ListX reports Total as the unfiltered table size.
package repository

import (
	"context"
	"math"

	"github.com/sakif/altdirectory/internal/model"
)

// ListOptions selects one page of a listing. Query filters rows but not Total.
// Query matching ignores case for ASCII letters only, so "über" does not find
// "Über".
type ListOptions struct {
	Page  int
	Limit int
	Query string
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt, so a page far past the end stays past the end.
func (o ListOptions) Offset() int {
	if o.Page < 1 || o.Limit < 1 {
		return 0
	}
	if o.Page-1 > math.MaxInt/o.Limit {
		return math.MaxInt
	}
	return (o.Page - 1) * o.Limit
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, in model.NewCategory) (*model.Category, error)
	FindCategory(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context, opts ListOptions) (*model.Page[model.Category], error)
	UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type AlternativeRepository interface {
	CreateAlternative(ctx context.Context, in model.NewAlternative) (*model.Alternative, error)
	FindAlternative(ctx context.Context, id string) (*model.Alternative, error)
	ListAlternatives(ctx context.Context, opts ListOptions) (*model.Page[model.Alternative], error)
	UpdateAlternative(ctx context.Context, id string, patch model.AlternativePatch) (*model.Alternative, error)
	DeleteAlternative(ctx context.Context, id string) error
	ListAlternativeTools(ctx context.Context, alternativeID string, opts ListOptions) (*model.Page[model.Tool], error)
}

type ToolRepository interface {
	// CreateTool inserts the tool and, when in.AlternativeID is set, the
	// alternative link. Both writes commit or neither does.
	CreateTool(ctx context.Context, in model.NewTool) (*model.Tool, error)
	FindTool(ctx context.Context, id string) (*model.Tool, error)
	FindToolBySlug(ctx context.Context, slug string) (*model.Tool, error)
	ListTools(ctx context.Context, opts ListOptions) (*model.Page[model.Tool], error)
	UpdateTool(ctx context.Context, id string, patch model.ToolPatch) (*model.Tool, error)
	DeleteTool(ctx context.Context, id string) error
	ListToolAlternatives(ctx context.Context, toolID string) ([]model.Alternative, error)
	ListSitemapTools(ctx context.Context) ([]model.Tool, error)
}

// LinkRepository manages the alternatives_to_tools join table.
type LinkRepository interface {
	LinkTool(ctx context.Context, alternativeID, toolID string) error
	UnlinkTool(ctx context.Context, alternativeID, toolID string) error
}

type ImageRepository interface {
	CreateImage(ctx context.Context, in model.NewImage) (*model.Image, error)
	FindImage(ctx context.Context, id string) (*model.Image, error)
	ListImages(ctx context.Context, opts ListOptions) (*model.Page[model.Image], error)
	UpdateImage(ctx context.Context, id string, patch model.ImagePatch) (*model.Image, error)
	DeleteImage(ctx context.Context, id string) error
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	FindAccount(ctx context.Context, id string) (*model.Account, error)
	FindAccountByUserID(ctx context.Context, userID string) (*model.Account, error)
	UpdateAccountByUserID(ctx context.Context, userID string, patch model.AccountPatch) (*model.Account, error)
	SetAccountRole(ctx context.Context, userID, role string) (*model.Account, error)
	// UpsertAccount inserts or refreshes the profile keyed by account.UserID.
	// An existing row keeps its id and role.
	UpsertAccount(ctx context.Context, account *model.Account) error
}

type LikeRepository interface {
	// LikeTool returns apperror.ErrConflict when the account already likes the tool.
	LikeTool(ctx context.Context, accountID, toolID string) (*model.Like, error)
	UnlikeTool(ctx context.Context, accountID, toolID string) error
	CountToolLikes(ctx context.Context, toolID string) (int, error)
}
