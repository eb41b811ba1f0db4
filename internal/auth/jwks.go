package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLeeway        = 30 * time.Second
	defaultJWKSCacheTTL  = 5 * time.Minute
	minUnknownKidRefetch = 30 * time.Second
)

var errUnknownKey = errors.New("auth: unknown token key")

// JWKSConfig configures verification of identity provider session tokens.
type JWKSConfig struct {
	URL        string
	Issuer     string
	Audience   string // empty skips the audience check
	Leeway     time.Duration
	HTTPClient *http.Client
}

// JWKSVerifier validates RS256 session tokens against a remote key set.
//
// Keys are fetched lazily and cached for the Cache-Control max-age of the
// JWKS response. A token signed with an unknown kid forces a refetch, so key
// rotation needs no restart; such refetches happen at most once per
// minUnknownKidRefetch.
type JWKSVerifier struct {
	url        string
	issuer     string
	audience   string
	leeway     time.Duration
	httpClient *http.Client

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	keysExpire time.Time
	fetchedAt  time.Time

	group singleflight.Group
	now   func() time.Time
}

func NewJWKSVerifier(cfg JWKSConfig) (*JWKSVerifier, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("auth: JWKS verifier requires a URL")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, errors.New("auth: JWKS verifier requires an issuer")
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &JWKSVerifier{
		url:        url,
		issuer:     issuer,
		audience:   strings.TrimSpace(cfg.Audience),
		leeway:     leeway,
		httpClient: client,
		now:        time.Now,
	}, nil
}

// Verify validates token and returns the identity in its claims.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if v.keysExpired() {
		if err := v.refresh(ctx); err != nil {
			return Identity{}, err
		}
	}

	c, err := v.parse(token)
	if errors.Is(err, errUnknownKey) && v.mayRefetch() {
		if err := v.refresh(ctx); err != nil {
			return Identity{}, err
		}
		c, err = v.parse(token)
	}
	if err != nil {
		return Identity{}, err
	}

	subject := strings.TrimSpace(c.Subject)
	if subject == "" {
		return Identity{}, errors.New("auth: token subject missing")
	}
	return Identity{UserID: subject, Name: c.Name, Email: c.Email, ImageURL: c.Picture}, nil
}

func (v *JWKSVerifier) parse(token string) (*claims, error) {
	c := &claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key := v.key(strings.TrimSpace(kid))
		if key == nil {
			return nil, errUnknownKey
		}
		return key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, errUnknownKey) {
			return nil, errUnknownKey
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return c, nil
}

func (v *JWKSVerifier) key(kid string) *rsa.PublicKey {
	if kid == "" {
		return nil
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keys[kid]
}

func (v *JWKSVerifier) keysExpired() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keys == nil || v.now().After(v.keysExpire)
}

// mayRefetch reports whether an unknown kid may trigger another fetch.
func (v *JWKSVerifier) mayRefetch() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.now().Sub(v.fetchedAt) >= minUnknownKidRefetch
}

// refresh fetches the key set. Concurrent callers share one fetch, which
// outlives the caller that started it.
func (v *JWKSVerifier) refresh(ctx context.Context) error {
	_, err, _ := v.group.Do("jwks", func() (any, error) {
		return nil, v.fetch(context.WithoutCancel(ctx))
	})
	return err
}

func (v *JWKSVerifier) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return fmt.Errorf("auth: building JWKS request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth: fetching JWKS: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: fetching JWKS: status %d", resp.StatusCode)
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("auth: decoding JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, k := range payload.Keys {
		if !strings.EqualFold(strings.TrimSpace(k.Kty), "RSA") {
			continue
		}
		kid := strings.TrimSpace(k.Kid)
		if kid == "" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("auth: JWKS contains no usable RSA keys")
	}

	ttl := parseCacheMaxAge(resp.Header.Get("Cache-Control"))
	if ttl <= 0 {
		ttl = defaultJWKSCacheTTL
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = v.now()
	v.keysExpire = v.fetchedAt.Add(ttl)
	v.mu.Unlock()
	return nil
}

func parseRSAPublicKey(nRaw, eRaw string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(nRaw))
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(eRaw))
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("auth: invalid RSA key")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// parseCacheMaxAge reads max-age from a Cache-Control header; 0 if absent.
func parseCacheMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		raw, ok := strings.CutPrefix(part, "max-age=")
		if !ok {
			continue
		}
		secs, err := time.ParseDuration(strings.TrimSpace(raw) + "s")
		if err != nil {
			return 0
		}
		return secs
	}
	return 0
}
