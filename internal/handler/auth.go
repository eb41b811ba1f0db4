package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler manages account sync and the GitHub OAuth login flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSync           → upsert the account of the signed-in identity
//   - HandleMe             → return that account
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, sync the account, issue the token cookie
//   - HandleLogout         → clear the token cookie
//
// github and login are nil when GitHub login is not configured; the login
// routes are then not mounted.
type AuthHandler struct {
	accounts      *service.AccountService
	login         *service.AuthService
	github        *auth.GitHubProvider
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(
	accounts *service.AccountService,
	login *service.AuthService,
	github *auth.GitHubProvider,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:      accounts,
		login:         login,
		github:        github,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleSync creates or refreshes the account of the caller from the
// verified token's profile. The frontend calls it right after sign-in.
//
// HTTP: POST /api/auth/sync
// Auth: member
func (h *AuthHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, apperror.Unauthorized("Unauthorized"))
		return
	}
	account, err := h.accounts.Sync(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, account, "User synced successfully")
}

// HandleMe returns the caller's account, role included.
//
// HTTP: GET /api/auth/me
// Auth: member
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, apperror.Unauthorized("Unauthorized"))
		return
	}
	account, err := h.accounts.FindByUserID(r.Context(), id.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeData(w, http.StatusOK, account, "User retrieved successfully")
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived HttpOnly cookie and into the
// authorization URL. The callback only proceeds when both match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Sync the account and issue a session token
//  4. Store the token in an HttpOnly cookie and redirect home
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || r.URL.Query().Get("state") != c.Value {
		h.logger.Warn("auth callback: state mismatch")
		WriteError(w, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange code for GitHub profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		WriteError(w, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}
	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		WriteError(w, apperror.Upstream("Authentication failed", nil))
		return
	}

	// --- Step 3: Sync account, issue token ---
	result, err := h.login.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}

	// --- Step 4: Cookie and redirect ---
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /auth/logout
//
// Tokens are stateless, so logging out only deletes the cookie. The token
// itself stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeData(w, http.StatusOK, nil, "Logged out successfully")
}
