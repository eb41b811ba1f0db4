package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubUserURL = "https://api.github.com/user"

// GitHubUser is the part of the GitHub /user response we use.
type GitHubUser struct {
	ID        int64  `json:"id"` // stable, unlike Login
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty if hidden in GitHub settings
	AvatarURL string `json:"avatar_url"`
}

// Identity maps the GitHub profile onto a directory identity. The subject is
// namespaced so it cannot collide with identity provider ids.
func (u *GitHubUser) Identity() Identity {
	name := u.Name
	if name == "" {
		name = u.Login
	}
	return Identity{
		UserID:   "github|" + strconv.FormatInt(u.ID, 10),
		Name:     name,
		Email:    u.Email,
		ImageURL: u.AvatarURL,
	}
}

// GitHubProvider runs the OAuth authorization code flow against GitHub.
// The code is exchanged server to server, so the GitHub access token never
// reaches the browser.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
	client  *http.Client // used for the token exchange and /user call; nil means http.DefaultClient
}

// NewGitHubProvider creates a GitHubProvider. callbackURL must match the
// OAuth app's "Authorization callback URL" exactly.
func NewGitHubProvider(clientID, clientSecret, callbackURL string, client *http.Client) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userURL: githubUserURL,
		client:  client,
	}
}

// AuthURL returns the GitHub authorization URL. state is echoed back on the
// callback and must match the value stored in the state cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the caller's GitHub profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	if p.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	}

	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.config.Client(ctx, oauthToken).Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
