// Package auth resolves who is calling and decides what they may do.
//
// Two identity sources are accepted:
//
//  1. An RS256 session token from the hosted identity provider, sent as
//     "Authorization: Bearer <jwt>" or in the "__session" cookie. It is
//     verified against the provider's JWKS (see JWKSVerifier).
//  2. An HS256 token this server issues after a GitHub OAuth login, kept in
//     the HttpOnly "token" cookie (see TokenService and GitHubProvider).
//
// Either way the request ends up with an Identity in its context. Policy then
// decides, per route, whether that identity is enough.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "altdirectory"

// TokenLifetime is how long an issued session token stays valid.
const TokenLifetime = 7 * 24 * time.Hour

// TokenService signs and verifies the session tokens issued after an OAuth
// login. HS256: the same secret signs and verifies.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Example: ALTDIR_JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The subject is the identity's UserID; the
// profile rides along so the first request after login needs no lookup.
type claims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Generate signs a session token for id, valid for a week.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, TokenLifetime)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to mint expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	if id.UserID == "" {
		return "", errors.New("auth: identity has no user id")
	}
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
		Name:    id.Name,
		Email:   id.Email,
		Picture: id.ImageURL,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token and returns its identity.
//
// Only HS256 is accepted, which rules out "alg: none" and RS/HS confusion.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	subject := strings.TrimSpace(c.Subject)
	if subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{UserID: subject, Name: c.Name, Email: c.Email, ImageURL: c.Picture}, nil
}
