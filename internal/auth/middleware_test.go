package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubVerifier accepts exactly one token.
type stubVerifier struct {
	token string
	id    Identity
}

func (s stubVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if token != s.token {
		return Identity{}, errors.New("bad token")
	}
	return s.id, nil
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *TokenService) {
	t.Helper()
	tokens := newTestTokenService(t)
	sessions := stubVerifier{token: "good-session", id: Identity{UserID: "user_2abc", Name: "Ada"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthenticator(sessions, tokens, logger), tokens
}

func TestIdentify(t *testing.T) {
	a, tokens := newTestAuthenticator(t)
	loginToken, err := tokens.Generate(testIdentity)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantID  string
		wantOK  bool
	}{
		{
			name:    "anonymous",
			prepare: func(r *http.Request) {},
		},
		{
			name:    "bearer header",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer good-session") },
			wantID:  "user_2abc",
			wantOK:  true,
		},
		{
			name:    "lowercase bearer scheme",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "bearer good-session") },
			wantID:  "user_2abc",
			wantOK:  true,
		},
		{
			name: "session cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good-session"})
			},
			wantID: "user_2abc",
			wantOK: true,
		},
		{
			name: "login cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: loginToken})
			},
			wantID: testIdentity.UserID,
			wantOK: true,
		},
		{
			name: "bad session falls back to login cookie",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer forged")
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: loginToken})
			},
			wantID: testIdentity.UserID,
			wantOK: true,
		},
		{
			name: "invalid tokens are anonymous",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer forged")
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "garbage"})
			},
		},
		{
			name:    "basic auth is ignored",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Basic Z29vZC1zZXNzaW9u") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
			tt.prepare(r)

			id, ok := a.Identify(r)
			if ok != tt.wantOK {
				t.Fatalf("Identify() ok = %v, want %v", ok, tt.wantOK)
			}
			if id.UserID != tt.wantID {
				t.Errorf("Identify() UserID = %q, want %q", id.UserID, tt.wantID)
			}
		})
	}
}

func TestIdentify_NilSources(t *testing.T) {
	a := NewAuthenticator(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer anything")

	if _, ok := a.Identify(r); ok {
		t.Fatal("Identify() with no sources should be anonymous")
	}
}

func TestMiddleware_StoresIdentity(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	var got Identity
	var gotOK bool
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, gotOK = IdentityFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer good-session")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if !gotOK || got.UserID != "user_2abc" {
		t.Errorf("IdentityFromContext() = %+v, %v", got, gotOK)
	}
}

func TestMiddleware_AnonymousPassesThrough(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	called := false
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := IdentityFromContext(r.Context()); ok {
			t.Error("anonymous request should carry no identity")
		}
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Fatal("Middleware() should never block a request")
	}
}

func TestIdentityFromContext_EmptyUserID(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Name: "ghost"})
	if _, ok := IdentityFromContext(ctx); ok {
		t.Error("an identity without a user id should not count")
	}
}
