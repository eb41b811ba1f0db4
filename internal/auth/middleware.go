package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// SessionCookie carries the identity provider's session JWT.
	SessionCookie = "__session"
	// TokenCookie carries the token issued after a GitHub login.
	TokenCookie = "token"
)

// Identity is the caller as asserted by a verified token.
type Identity struct {
	UserID   string // provider subject, e.g. "user_2abc" or "github|583231"
	Name     string
	Email    string
	ImageURL string
}

// contextKey is unexported so only this package can read or write the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller's identity, or false for an
// anonymous request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// SessionVerifier verifies identity provider session tokens.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Authenticator resolves the identity behind a request. Either source may
// be nil, in which case it is skipped.
type Authenticator struct {
	sessions SessionVerifier
	tokens   *TokenService
	logger   *slog.Logger
}

func NewAuthenticator(sessions SessionVerifier, tokens *TokenService, logger *slog.Logger) *Authenticator {
	return &Authenticator{sessions: sessions, tokens: tokens, logger: logger}
}

// Identify checks the bearer header or session cookie first, then the
// GitHub login cookie. Invalid tokens count as anonymous.
func (a *Authenticator) Identify(r *http.Request) (Identity, bool) {
	if a.sessions != nil {
		if raw := sessionToken(r); raw != "" {
			id, err := a.sessions.Verify(r.Context(), raw)
			if err == nil {
				return id, true
			}
			a.logger.Debug("session token rejected", "error", err)
		}
	}

	if a.tokens != nil {
		if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
			id, err := a.tokens.Validate(c.Value)
			if err == nil {
				return id, true
			}
			a.logger.Debug("login token rejected", "error", err)
		}
	}

	return Identity{}, false
}

// Middleware stores the resolved identity in the request context. It never
// rejects a request; enforcement belongs to the route gate.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := a.Identify(r); ok {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
