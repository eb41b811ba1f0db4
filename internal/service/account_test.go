package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/model"
)

// =========================================================================
// ACCOUNT TESTS
// =========================================================================

func TestSync_NewAccount(t *testing.T) {
	svc := NewAccountService(newFakeRepo(), testLogger())

	a, err := svc.Sync(context.Background(), auth.Identity{
		UserID: "user_2abc", Name: "  Ada Lovelace ", Email: "ada@example.com", ImageURL: "https://img/ada.png",
	})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if a.ID == "" || a.Role != model.RoleUser {
		t.Errorf("account = %+v, want id and role user", a)
	}
	if a.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want trimmed", a.Name)
	}
	if a.Image == nil || *a.Image != "https://img/ada.png" {
		t.Errorf("Image = %v", a.Image)
	}
}

func TestSync_DefaultsName(t *testing.T) {
	svc := NewAccountService(newFakeRepo(), testLogger())

	a, err := svc.Sync(context.Background(), auth.Identity{UserID: "user_anon", Name: "   "})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if a.Name != "User" {
		t.Errorf("Name = %q, want %q", a.Name, "User")
	}
}

func TestSync_KeepsIDAndRole(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAccountService(repo, testLogger())
	ctx := context.Background()

	first, _ := svc.Sync(ctx, auth.Identity{UserID: "user_1", Name: "Old"})
	if _, err := svc.Promote(ctx, "user_1", model.RoleAdmin); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}

	second, err := svc.Sync(ctx, auth.Identity{UserID: "user_1", Name: "New"})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed from %q to %q", first.ID, second.ID)
	}
	if second.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin to survive a sync", second.Role)
	}
	if second.Name != "New" {
		t.Errorf("Name = %q, want refreshed", second.Name)
	}
}

func TestSync_RequiresUserID(t *testing.T) {
	svc := NewAccountService(newFakeRepo(), testLogger())

	_, err := svc.Sync(context.Background(), auth.Identity{Name: "nobody"})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Sync() error = %v, want ErrUnauthorized", err)
	}
}

func TestSync_RepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("database is on fire")
	svc := NewAccountService(repo, testLogger())

	if _, err := svc.Sync(context.Background(), auth.Identity{UserID: "u"}); err == nil {
		t.Fatal("Sync() should propagate repository errors")
	}
}

func TestFindByUserID(t *testing.T) {
	svc := NewAccountService(newFakeRepo(), testLogger())
	ctx := context.Background()

	if _, err := svc.FindByUserID(ctx, "user_x"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("FindByUserID() before sync error = %v, want ErrNotFound", err)
	}
	svc.Sync(ctx, auth.Identity{UserID: "user_x", Name: "X"})
	a, err := svc.FindByUserID(ctx, "user_x")
	if err != nil || a.Name != "X" {
		t.Fatalf("FindByUserID() = %+v, %v", a, err)
	}
}

func TestPromote(t *testing.T) {
	svc := NewAccountService(newFakeRepo(), testLogger())
	ctx := context.Background()
	svc.Sync(ctx, auth.Identity{UserID: "user_1"})

	tests := []struct {
		name    string
		userID  string
		role    string
		wantErr error
	}{
		{"admin", "user_1", model.RoleAdmin, nil},
		{"back to user", "user_1", model.RoleUser, nil},
		{"unknown role", "user_1", "superuser", apperror.ErrValidation},
		{"empty user id", " ", model.RoleAdmin, apperror.ErrValidation},
		{"unknown user", "user_404", model.RoleAdmin, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := svc.Promote(ctx, tt.userID, tt.role)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Promote() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Promote() error = %v", err)
			}
			if a.Role != tt.role {
				t.Errorf("Role = %q, want %q", a.Role, tt.role)
			}
		})
	}
}

func TestRole(t *testing.T) {
	svc := NewAccountService(newFakeRepo(), testLogger())
	ctx := context.Background()

	role, err := svc.Role(ctx, "stranger")
	if err != nil || role != "" {
		t.Errorf("Role(stranger) = %q, %v, want empty", role, err)
	}

	svc.Sync(ctx, auth.Identity{UserID: "boss"})
	svc.Promote(ctx, "boss", model.RoleAdmin)
	role, err = svc.Role(ctx, "boss")
	if err != nil || role != model.RoleAdmin {
		t.Errorf("Role(boss) = %q, %v, want admin", role, err)
	}
}

func TestRole_SatisfiesPolicy(t *testing.T) {
	svc := NewAccountService(newFakeRepo(), testLogger())
	ctx := context.Background()
	svc.Sync(ctx, auth.Identity{UserID: "boss"})
	svc.Promote(ctx, "boss", model.RoleAdmin)

	p := auth.NewPolicy(svc)
	if err := p.Authorize(auth.WithIdentity(ctx, auth.Identity{UserID: "boss"}), auth.Admin); err != nil {
		t.Fatalf("Authorize(admin) error = %v", err)
	}
}

// =========================================================================
// GITHUB LOGIN TESTS
// =========================================================================

func newTestAuthService(t *testing.T, repo *fakeRepo) (*AuthService, *auth.TokenService) {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(NewAccountService(repo, testLogger()), ts, testLogger()), ts
}

func TestLoginGitHub_NewUser(t *testing.T) {
	repo := newFakeRepo()
	svc, tokens := newTestAuthService(t, repo)

	result, err := svc.LoginGitHub(context.Background(), &auth.GitHubUser{
		ID: 42, Login: "octocat", Email: "octocat@github.com", AvatarURL: "https://avatars/u/42",
	})
	if err != nil {
		t.Fatalf("LoginGitHub() error = %v", err)
	}
	if result.Account.UserID != "github|42" {
		t.Errorf("UserID = %q, want github|42", result.Account.UserID)
	}
	if result.Account.Name != "octocat" {
		t.Errorf("Name = %q, want login as fallback", result.Account.Name)
	}

	id, err := tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if id.UserID != "github|42" || id.Email != "octocat@github.com" {
		t.Errorf("token identity = %+v", id)
	}
}

func TestLoginGitHub_ExistingUserGetsUpdatedProfile(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.LoginGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "old-login"}); err != nil {
		t.Fatalf("first login error: %v", err)
	}
	result, err := svc.LoginGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "new-login"})
	if err != nil {
		t.Fatalf("second login error: %v", err)
	}
	if result.Account.Name != "new-login" {
		t.Errorf("Name after update = %q, want %q", result.Account.Name, "new-login")
	}
	if len(repo.accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(repo.accounts))
	}
}

func TestLoginGitHub_NilUser(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeRepo())

	if _, err := svc.LoginGitHub(context.Background(), nil); err == nil {
		t.Fatal("LoginGitHub() should return error for nil GitHubUser")
	}
}

func TestLoginGitHub_RepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("database is on fire")
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.LoginGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "user"}); err == nil {
		t.Fatal("LoginGitHub() should propagate repository errors")
	}
}

// =========================================================================
// LIKE TESTS
// =========================================================================

func TestLikes(t *testing.T) {
	repo := newFakeRepo()
	accounts := NewAccountService(repo, testLogger())
	tools := NewToolService(repo, repo, testLogger())
	likes := NewLikeService(repo, repo, testLogger())
	ctx := context.Background()

	accounts.Sync(ctx, auth.Identity{UserID: "fan"})
	tool, _ := tools.Create(ctx, model.NewTool{Name: "Pinia", Slug: "pinia", WebsiteURL: "https://pinia.vuejs.org"})

	if _, err := likes.Like(ctx, "fan", tool.ID); err != nil {
		t.Fatalf("Like() error = %v", err)
	}
	if _, err := likes.Like(ctx, "fan", tool.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Like() error = %v, want ErrConflict", err)
	}
	if n, _ := likes.Count(ctx, tool.ID); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	if err := likes.Unlike(ctx, "fan", tool.ID); err != nil {
		t.Fatalf("Unlike() error = %v", err)
	}
	if err := likes.Unlike(ctx, "fan", tool.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second Unlike() error = %v, want ErrNotFound", err)
	}
	if n, _ := likes.Count(ctx, tool.ID); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestLike_RequiresSyncedAccount(t *testing.T) {
	repo := newFakeRepo()
	likes := NewLikeService(repo, repo, testLogger())

	_, err := likes.Like(context.Background(), "never-synced", "tool-1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Like() error = %v, want ErrNotFound", err)
	}
}

func TestLike_UnknownTool(t *testing.T) {
	repo := newFakeRepo()
	NewAccountService(repo, testLogger()).Sync(context.Background(), auth.Identity{UserID: "fan"})
	likes := NewLikeService(repo, repo, testLogger())

	_, err := likes.Like(context.Background(), "fan", "no-such-tool")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Like() error = %v, want ErrNotFound", err)
	}
}
